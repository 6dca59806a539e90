package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart EventType = "run_start"
	EventStep     EventType = "step"
	EventRunEnd   EventType = "run_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Env       string    `json:"env"`
}

// RunEvent is emitted when a run starts and when it ends.
type RunEvent struct {
	EventBase
	RunID string  `json:"run_id,omitempty"`
	Steps int     `json:"steps,omitempty"`
	Time  float64 `json:"time_s,omitempty"`
	// Finished and Err are only set on run end.
	Finished bool   `json:"finished,omitempty"`
	Path     string `json:"path,omitempty"`
	Err      error  `json:"-"`
}

// StepEvent is emitted after every completed step.
type StepEvent struct {
	EventBase
	Step int     `json:"step"`
	Time float64 `json:"time_s"`
	Done bool    `json:"done"`
}

// LifecycleHooks defines callbacks for run observability.
type LifecycleHooks struct {
	OnRunStart func(context.Context, *RunEvent)
	OnStep     func(context.Context, *StepEvent)
	OnRunEnd   func(context.Context, *RunEvent)
}

// Merge chains two hook sets; h runs before other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart: chain(h.OnRunStart, other.OnRunStart),
		OnStep:     chain(h.OnStep, other.OnStep),
		OnRunEnd:   chain(h.OnRunEnd, other.OnRunEnd),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
