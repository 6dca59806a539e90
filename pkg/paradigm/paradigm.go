package paradigm

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
	"github.com/aretw0/bngenvs/pkg/ports"
)

// Session is the slice of the simulation session manager a paradigm drives.
// *bngsim.Sim satisfies it.
type Session interface {
	Config() domain.Config
	StartScenario(ctx context.Context, sc domain.Scenario, loadStartWait time.Duration) error
	Step(ctx context.Context) error
	Vehicle(id string) (ports.Vehicle, error)
	CheckTimeLimit(step int) (bool, error)
	RealTime(step int) float64
	AttachSensors(ctx context.Context, v ports.Vehicle) error
	PollSensors(ctx context.Context, v ports.Vehicle) (domain.SensorData, error)
	AddDebugPath(ctx context.Context, nodes []domain.PathNode) error
	RemoveDebugPaths(ctx context.Context) error
}

// StepResult is the outcome of one step. Reward is always nil; it exists for
// symmetry with generic step-based environments.
type StepResult struct {
	Observation domain.SensorData
	Reward      *float64
	Done        bool
	Info        map[string]any
}

// Paradigm is one environment type's scenario setup and termination logic.
type Paradigm interface {
	// Name is the environment type name stamped into run records.
	Name() string
	StartScenario(ctx context.Context, s Session) error
	Step(ctx context.Context, s Session, action any) (StepResult, error)
	Reset(ctx context.Context, s Session) error
	Done() bool
	// Finished reports whether the run ended through the variant's own success
	// predicate rather than the time budget.
	Finished() bool
	CurrentStep() int
	Vehicle() ports.Vehicle
	// Results computes the variant-specific summary values of a completed run.
	Results(ctx context.Context, h *history.History) (domain.Results, error)
}

// lifecycle holds the state shared by every variant.
type lifecycle struct {
	ready    bool
	done     bool
	finished bool
	step     int
	vehicle  ports.Vehicle
}

func (l *lifecycle) Done() bool             { return l.done }
func (l *lifecycle) Finished() bool         { return l.finished }
func (l *lifecycle) CurrentStep() int       { return l.step }
func (l *lifecycle) Vehicle() ports.Vehicle { return l.vehicle }

// reset runs start and re-arms the state machine.
func (l *lifecycle) reset(ctx context.Context, s Session, start func(context.Context, Session) error) error {
	l.ready = false
	if err := start(ctx, s); err != nil {
		return err
	}
	l.ready = true
	l.done = false
	l.finished = false
	l.step = 0
	return nil
}

// advance performs the shared part of a step: lazy reset, terminal check, one blocking
// physics step and a sensor poll.
func (l *lifecycle) advance(ctx context.Context, s Session, reset func(context.Context, Session) error) (domain.SensorData, error) {
	if !l.ready {
		if err := reset(ctx, s); err != nil {
			return nil, err
		}
	}
	if l.done {
		return nil, domain.ErrAlreadyFinished
	}
	if err := s.Step(ctx); err != nil {
		return nil, err
	}
	return s.PollSensors(ctx, l.vehicle)
}

// checkTime applies the session's time budget to the current step. A hard failure
// also marks the paradigm done.
func (l *lifecycle) checkTime(s Session) (bool, error) {
	over, err := s.CheckTimeLimit(l.step)
	if err != nil {
		l.done = true
		return true, err
	}
	return over, nil
}

// spawn loads sc and returns the handle of its first vehicle with sensors attached.
func spawn(ctx context.Context, s Session, sc domain.Scenario, loadStartWait time.Duration) (ports.Vehicle, error) {
	if err := s.StartScenario(ctx, sc, loadStartWait); err != nil {
		return nil, err
	}
	v, err := s.Vehicle(sc.Vehicles[0].ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle %q: %w", sc.Vehicles[0].ID, err)
	}
	return v, nil
}

// position reads the vehicle position from a state sensor sample.
func position(obs domain.SensorData) (domain.Vec3, error) {
	state, ok := obs[ports.SensorState].(map[string]any)
	if !ok {
		return domain.Vec3{}, fmt.Errorf("observation has no %q sensor", ports.SensorState)
	}
	var pos []float64
	if err := decodeWeak(state["pos"], &pos); err != nil || len(pos) != 3 {
		return domain.Vec3{}, fmt.Errorf("invalid state position %v", state["pos"])
	}
	return domain.Vec3{pos[0], pos[1], pos[2]}, nil
}
