package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/bngenvs/pkg/domain"
)

// Hooks logs run starts and ends and, when m is non-nil, records them in m.
// Individual steps are logged at debug level only.
func Hooks(logger *slog.Logger, m *Metrics) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run start", "env", e.Env, "run_id", e.RunID)
			if m != nil {
				m.Active.WithLabelValues(e.Env).Inc()
			}
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step", "env", e.Env, "step", e.Step, "time_s", e.Time, "done", e.Done)
			if m != nil {
				m.Steps.WithLabelValues(e.Env).Inc()
			}
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			outcome := Outcome(e)
			if e.Err != nil {
				logger.WarnContext(ctx, "run end", "env", e.Env, "run_id", e.RunID, "outcome", outcome, "steps", e.Steps, "err", e.Err)
			} else {
				logger.InfoContext(ctx, "run end", "env", e.Env, "run_id", e.RunID, "outcome", outcome,
					"steps", e.Steps, "time_s", e.Time, "path", e.Path)
			}
			if m == nil {
				return
			}
			m.Active.WithLabelValues(e.Env).Dec()
			m.Runs.WithLabelValues(e.Env, outcome).Inc()
			if e.Err == nil {
				m.RunSeconds.WithLabelValues(e.Env).Observe(e.Time)
			}
		},
	}
}

// Outcome classifies a run end event.
func Outcome(e *domain.RunEvent) string {
	switch {
	case e.Err != nil:
		return OutcomeFailed
	case e.Finished:
		return OutcomeFinished
	default:
		return OutcomeUnfinished
	}
}
