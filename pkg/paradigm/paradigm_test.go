package paradigm_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/bngenvs/pkg/adapters/fake"
	"github.com/aretw0/bngenvs/pkg/bngsim"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
	"github.com/aretw0/bngenvs/pkg/paradigm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noWait(context.Context, time.Duration) error { return nil }

func launch(t *testing.T, f *fake.Simulator, opts ...domain.ConfigOption) *bngsim.Sim {
	t.Helper()
	cfg, err := domain.NewConfig(opts...)
	require.NoError(t, err)
	s := bngsim.New(cfg, f.Connector(), bngsim.WithWait(noWait))
	require.NoError(t, s.Launch(context.Background()))
	return s
}

// runToEnd steps p until done and records each step the way an environment does.
func runToEnd(t *testing.T, p paradigm.Paradigm, s *bngsim.Sim, limit int) *history.History {
	t.Helper()
	ctx := context.Background()
	h := history.New()
	for i := 0; i < limit; i++ {
		res, err := p.Step(ctx, s, nil)
		require.NoError(t, err)
		assert.Nil(t, res.Reward)
		require.NoError(t, h.AppendStep(p.CurrentStep(), s.RealTime(p.CurrentStep()), res.Observation, nil))
		if res.Done {
			return h
		}
	}
	t.Fatalf("%s did not finish within %d steps", p.Name(), limit)
	return nil
}

// observed collects one observation key across the recorded steps.
func observed(h *history.History, key string) []any {
	obs := h.Observations()
	out := make([]any, len(obs))
	for i, o := range obs {
		out[i] = o[key]
	}
	return out
}

func TestStep_AfterDoneFails(t *testing.T) {
	f := fake.New(fake.WithWaypoints(paradigm.TrackTestRoute...))
	s := launch(t, f, domain.WithMaxTime(0.5), domain.WithFPS(20))

	p, err := paradigm.NewTrackTest(domain.Params{}, nil)
	require.NoError(t, err)
	runToEnd(t, p, s, 100)

	_, err = p.Step(context.Background(), s, nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinished)
}

func TestStep_ResetsLazily(t *testing.T) {
	f := fake.New()
	s := launch(t, f)

	p, err := paradigm.NewDragStrip(nil)
	require.NoError(t, err)
	assert.Nil(t, p.Vehicle())

	res, err := p.Step(context.Background(), s, nil)
	require.NoError(t, err)
	assert.False(t, res.Done)
	assert.Equal(t, 1, p.CurrentStep())
	assert.NotNil(t, p.Vehicle())
	assert.Len(t, f.Stats().Scenarios, 1)
}

func TestReset_RearmsAfterDone(t *testing.T) {
	ctx := context.Background()
	f := fake.New()
	s := launch(t, f, domain.WithMaxTime(0.1), domain.WithFPS(20))

	p, err := paradigm.NewDragStrip(nil)
	require.NoError(t, err)
	runToEnd(t, p, s, 10)
	require.True(t, p.Done())

	require.NoError(t, p.Reset(ctx, s))
	assert.False(t, p.Done())
	assert.Equal(t, 0, p.CurrentStep())

	_, err = p.Step(ctx, s, nil)
	require.NoError(t, err)
	assert.Len(t, f.Stats().Scenarios, 2)
}

func TestStep_HardTimeLimit(t *testing.T) {
	f := fake.New()
	s := launch(t, f, domain.WithMaxTime(0.1), domain.WithFPS(20), domain.WithErrorOnOutOfTime(true))

	p, err := paradigm.NewDragStrip(nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := p.Step(ctx, s, nil)
		require.NoError(t, err)
	}
	res, err := p.Step(ctx, s, nil)
	assert.ErrorIs(t, err, domain.ErrOutOfTime)
	assert.True(t, res.Done)
	assert.True(t, p.Done())
	assert.False(t, p.Finished())

	_, err = p.Step(ctx, s, nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinished)
}
