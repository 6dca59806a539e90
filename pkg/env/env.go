package env

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/bngsim"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
	"github.com/aretw0/bngenvs/pkg/paradigm"
	"github.com/aretw0/bngenvs/pkg/ports"
	"github.com/aretw0/bngenvs/pkg/results"
)

// Environment type names, as stamped into run records.
const (
	CrashTestEnv = "CrashTestEnv"
	DragStripEnv = "DragStripEnv"
	TrackTestEnv = "TrackTestEnv"
)

// ErrUnknownKind is returned for an environment name that matches no type.
var ErrUnknownKind = errors.New("unknown environment")

// Kinds lists the environment type names.
func Kinds() []string {
	return []string{CrashTestEnv, DragStripEnv, TrackTestEnv}
}

// ParseKind accepts a type name in any of the forms "TrackTestEnv", "track_test",
// "track-test" or "track".
func ParseKind(s string) (string, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	norm = strings.TrimSuffix(norm, "env")
	for _, k := range Kinds() {
		full := strings.ToLower(strings.TrimSuffix(k, "Env"))
		if norm == full || norm+"test" == full || norm+"strip" == full {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Config builds the run config of kind: the type's defaults followed by opts.
func Config(kind string, opts ...domain.ConfigOption) (domain.Config, error) {
	var defaults []domain.ConfigOption
	switch kind {
	case CrashTestEnv:
		defaults = domain.CrashTestConfig()
	case DragStripEnv:
		defaults = domain.DragStripConfig()
	case TrackTestEnv:
		defaults = domain.TrackTestConfig()
	default:
		return domain.Config{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return domain.NewConfig(append(defaults, opts...)...)
}

// Modifiers holds per-step inputs for Run. Modifiers["action"][i] is passed as the
// action of step i+1; steps past the end of the sequence get a nil action.
type Modifiers map[string][]any

// Environment composes one simulation session with one scenario paradigm.
// It is not safe for concurrent use; run environments in parallel on separate
// workers instead.
type Environment struct {
	name     string
	params   domain.Params
	cfg      domain.Config
	sim      *bngsim.Sim
	paradigm paradigm.Paradigm
	history  *history.History

	results domain.Results
	record  *results.Record

	index   ports.RunIndex
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	simOpts []bngsim.Option
	now     func() time.Time
}

// Option configures an Environment.
type Option func(*Environment)

// WithLogger sets the logger shared with the session and the run record.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Environment) { e.logger = logger }
}

// WithIndex registers every saved run record in idx.
func WithIndex(idx ports.RunIndex) Option {
	return func(e *Environment) { e.index = idx }
}

// WithHooks registers observability hooks. Repeated calls chain.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Environment) { e.hooks = e.hooks.Merge(hooks) }
}

// WithSimOptions passes options to the session.
func WithSimOptions(opts ...bngsim.Option) Option {
	return func(e *Environment) { e.simOpts = append(e.simOpts, opts...) }
}

// NewCrashTest creates a crash test environment. cfg must carry a part config
// catalog.
func NewCrashTest(params domain.Params, cfg domain.Config, connect ports.Connector, opts ...Option) (*Environment, error) {
	if cfg.CarConfigs == nil {
		return nil, fmt.Errorf("failed to create crash test: %w", domain.ErrMissingCatalog)
	}
	p, err := paradigm.NewCrashTest(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create crash test: %w", err)
	}
	return newEnvironment(p, params, cfg, connect, opts), nil
}

// NewDragStrip creates a drag strip environment.
func NewDragStrip(params domain.Params, cfg domain.Config, connect ports.Connector, opts ...Option) (*Environment, error) {
	p, err := paradigm.NewDragStrip(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create drag strip: %w", err)
	}
	return newEnvironment(p, params, cfg, connect, opts), nil
}

// NewTrackTest creates a track test environment.
func NewTrackTest(params domain.Params, cfg domain.Config, connect ports.Connector, opts ...Option) (*Environment, error) {
	e := &Environment{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	p, err := paradigm.NewTrackTest(params, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create track test: %w", err)
	}
	return newEnvironment(p, params, cfg, connect, opts), nil
}

// New creates an environment of kind, as accepted by ParseKind.
func New(kind string, params domain.Params, cfg domain.Config, connect ports.Connector, opts ...Option) (*Environment, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	switch k {
	case CrashTestEnv:
		return NewCrashTest(params, cfg, connect, opts...)
	case DragStripEnv:
		return NewDragStrip(params, cfg, connect, opts...)
	default:
		return NewTrackTest(params, cfg, connect, opts...)
	}
}

func newEnvironment(p paradigm.Paradigm, params domain.Params, cfg domain.Config, connect ports.Connector, opts []Option) *Environment {
	e := &Environment{
		name:     p.Name(),
		params:   params.Clone(),
		cfg:      cfg,
		paradigm: p,
		history:  history.New(),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("env", e.name)
	simOpts := append([]bngsim.Option{bngsim.WithLogger(e.logger)}, e.simOpts...)
	e.sim = bngsim.New(cfg, connect, simOpts...)
	return e
}

// Name is the environment type name.
func (e *Environment) Name() string { return e.name }

// Params returns a copy of the run parameters.
func (e *Environment) Params() domain.Params { return e.params.Clone() }

// Config returns the run config.
func (e *Environment) Config() domain.Config { return e.cfg }

// Session returns the underlying simulation session.
func (e *Environment) Session() *bngsim.Sim { return e.sim }

// Paradigm returns the scenario state machine.
func (e *Environment) Paradigm() paradigm.Paradigm { return e.paradigm }

// History returns the telemetry recorded by the last Run.
func (e *Environment) History() *history.History { return e.history }

// Results returns the summary of the last completed Run, or nil.
func (e *Environment) Results() domain.Results { return e.results }

// Record returns the run record saved by the last completed Run, or nil.
func (e *Environment) Record() *results.Record { return e.record }

// Done reports whether the current episode has ended.
func (e *Environment) Done() bool { return e.paradigm.Done() }

// Step advances the scenario by one step. action is accepted and ignored by every
// built-in paradigm. The first Step of a fresh environment launches the session.
func (e *Environment) Step(ctx context.Context, action any) (paradigm.StepResult, error) {
	if !e.sim.Connected() {
		if err := e.sim.Launch(ctx); err != nil {
			return paradigm.StepResult{}, err
		}
	}
	return e.paradigm.Step(ctx, e.sim, action)
}

// Reset relaunches the session, reloads the scenario and clears the history.
func (e *Environment) Reset(ctx context.Context) error {
	if err := e.sim.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	if err := e.paradigm.Reset(ctx, e.sim); err != nil {
		return fmt.Errorf("failed to reset scenario: %w", err)
	}
	e.history.Reset()
	e.results = nil
	e.record = nil
	return nil
}
