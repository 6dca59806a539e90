package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pool struct{ busy, size int }

func (p pool) BusyCount() int { return p.busy }
func (p pool) Len() int       { return p.size }

func TestHooks_RecordRuns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := observability.NewMetrics()
	h := observability.Hooks(logger, m)
	ctx := context.Background()

	base := func(typ domain.EventType) domain.EventBase {
		return domain.EventBase{Type: typ, Env: "DragStripEnv"}
	}

	h.OnRunStart(ctx, &domain.RunEvent{EventBase: base(domain.EventRunStart), RunID: "a"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Active.WithLabelValues("DragStripEnv")))

	for i := 1; i <= 3; i++ {
		h.OnStep(ctx, &domain.StepEvent{EventBase: base(domain.EventStep), Step: i})
	}
	h.OnRunEnd(ctx, &domain.RunEvent{EventBase: base(domain.EventRunEnd), RunID: "a", Steps: 3, Time: 9, Finished: true})

	h.OnRunStart(ctx, &domain.RunEvent{EventBase: base(domain.EventRunStart), RunID: "b"})
	h.OnRunEnd(ctx, &domain.RunEvent{EventBase: base(domain.EventRunEnd), RunID: "b", Err: errors.New("boom")})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Steps.WithLabelValues("DragStripEnv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("DragStripEnv", observability.OutcomeFinished)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("DragStripEnv", observability.OutcomeFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Active.WithLabelValues("DragStripEnv")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunSeconds))

	assert.Contains(t, buf.String(), "outcome=finished")
	assert.Contains(t, buf.String(), "err=boom")
	assert.NotContains(t, buf.String(), "msg=step", "steps are debug only")
}

func TestHooks_WithoutMetrics(t *testing.T) {
	h := observability.Hooks(slog.New(slog.DiscardHandler), nil)
	assert.NotPanics(t, func() {
		h.OnRunStart(context.Background(), &domain.RunEvent{})
		h.OnStep(context.Background(), &domain.StepEvent{})
		h.OnRunEnd(context.Background(), &domain.RunEvent{})
	})
}

func TestMetrics_RegisterWithPool(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics()
	m.WatchPool(pool{busy: 2, size: 4})
	require.NoError(t, m.Register(reg))

	expected := `
# HELP bngenvs_workers_busy Workers running a session.
# TYPE bngenvs_workers_busy gauge
bngenvs_workers_busy 2
# HELP bngenvs_workers_total Workers in the pool.
# TYPE bngenvs_workers_total gauge
bngenvs_workers_total 4
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"bngenvs_workers_busy", "bngenvs_workers_total"))

	assert.Error(t, m.Register(reg), "registering twice fails")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, observability.OutcomeUnfinished, observability.Outcome(&domain.RunEvent{}))
	assert.Equal(t, observability.OutcomeFinished, observability.Outcome(&domain.RunEvent{Finished: true}))
	assert.Equal(t, observability.OutcomeFailed, observability.Outcome(&domain.RunEvent{Finished: true, Err: errors.New("x")}))
}
