package bngsim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
)

// DefaultCloseDelay is the pause after teardown that lets the simulator process release
// its resources before the next launch.
const DefaultCloseDelay = time.Second

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sim owns exactly one simulator connection.
// It is not safe for concurrent use.
type Sim struct {
	cfg     domain.Config
	connect ports.Connector
	conn    ports.Simulator
	sensors SensorSet
	overlay *DebugOverlay
	logs    map[string]string

	closeDelay time.Duration
	wait       WaitFunc
	logger     *slog.Logger
}

// Option configures a Sim.
type Option func(*Sim)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sim) { s.logger = l }
}

// WithConnection reuses an existing, not yet opened, simulator connection.
func WithConnection(conn ports.Simulator) Option {
	return func(s *Sim) { s.conn = conn }
}

// WithCloseDelay overrides DefaultCloseDelay.
func WithCloseDelay(d time.Duration) Option {
	return func(s *Sim) { s.closeDelay = d }
}

// WithWait replaces the blocking wait used for load and close delays.
func WithWait(w WaitFunc) Option {
	return func(s *Sim) { s.wait = w }
}

// New creates a Sim for cfg. connect is used by Launch whenever no connection exists.
func New(cfg domain.Config, connect ports.Connector, opts ...Option) *Sim {
	s := &Sim{
		cfg:        cfg,
		connect:    connect,
		sensors:    NewSensorSet(cfg.UseTechSensors),
		logs:       make(map[string]string),
		closeDelay: DefaultCloseDelay,
		wait:       Sleep,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.UseTechSensors {
		s.logger.Warn("tech sensors requested but none are defined, using the basic sensor set")
	}
	return s
}

// Config returns the run config.
func (s *Sim) Config() domain.Config {
	return s.cfg
}

// Connected reports whether a connection reference exists.
func (s *Sim) Connected() bool {
	return s.conn != nil
}

// Connection returns the live connection or domain.ErrNoConnection.
func (s *Sim) Connection() (ports.Simulator, error) {
	if s.conn == nil {
		return nil, domain.ErrNoConnection
	}
	return s.conn, nil
}

// Launch creates a connection if none exists and opens it. Open is issued on every call.
func (s *Sim) Launch(ctx context.Context) error {
	if s.conn == nil {
		if s.connect == nil {
			return fmt.Errorf("failed to launch simulator: %w", domain.ErrNoConnection)
		}
		conn, err := s.connect(s.cfg.BeamNG)
		if err != nil {
			return fmt.Errorf("failed to connect to simulator at %s:%d: %w", s.cfg.BeamNG.Host, s.cfg.BeamNG.Port, err)
		}
		s.conn = conn
	}
	if err := s.conn.Open(ctx); err != nil {
		return fmt.Errorf("failed to open simulator: %w", err)
	}
	s.logger.Debug("simulator launched", "host", s.cfg.BeamNG.Host, "port", s.cfg.BeamNG.Port)
	return nil
}

// Close tears down the connection when the config allows it or force is set.
// After teardown it waits the close delay and drops the reference.
func (s *Sim) Close(ctx context.Context, force bool) error {
	if s.conn == nil || !(s.cfg.CloseOnDone || force) {
		return nil
	}
	err := s.conn.Close(ctx)
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close simulator: %w", err)
	}
	s.logger.Debug("simulator closed", "force", force)
	return s.wait(ctx, s.closeDelay)
}

// Reset force-closes any connection and launches a fresh one.
func (s *Sim) Reset(ctx context.Context) error {
	if err := s.Close(ctx, true); err != nil {
		return err
	}
	return s.Launch(ctx)
}

// StartScenario loads sc, waits loadStartWait, starts it with the configured step rate
// and leaves it paused.
func (s *Sim) StartScenario(ctx context.Context, sc domain.Scenario, loadStartWait time.Duration) error {
	conn, err := s.Connection()
	if err != nil {
		return err
	}
	if err := conn.LoadScenario(ctx, sc); err != nil {
		return fmt.Errorf("failed to load scenario %s/%s: %w", sc.Level, sc.Name, err)
	}
	if err := s.wait(ctx, loadStartWait); err != nil {
		return err
	}
	if err := conn.StartScenario(ctx); err != nil {
		return fmt.Errorf("failed to start scenario: %w", err)
	}
	if err := conn.SetStepsPerSecond(ctx, s.cfg.FPS); err != nil {
		return fmt.Errorf("failed to set steps per second: %w", err)
	}
	if err := conn.ApplyGraphicsSetting(ctx); err != nil {
		return fmt.Errorf("failed to apply graphics setting: %w", err)
	}
	if err := conn.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause scenario: %w", err)
	}
	s.logger.Debug("scenario started", "level", sc.Level, "scenario", sc.Name)
	return nil
}

// Step advances the simulator by one physics step and blocks until it completes.
func (s *Sim) Step(ctx context.Context) error {
	conn, err := s.Connection()
	if err != nil {
		return err
	}
	if err := conn.Step(ctx, 1, true); err != nil {
		return fmt.Errorf("failed to step simulator: %w", err)
	}
	return nil
}

// Vehicle returns a handle for a vehicle of the loaded scenario.
func (s *Sim) Vehicle(id string) (ports.Vehicle, error) {
	conn, err := s.Connection()
	if err != nil {
		return nil, err
	}
	return conn.Vehicle(id)
}

// CheckTimeLimit reports whether step exceeds MaxTime*FPS. Past the budget it returns
// an *domain.OutOfTimeError instead when the config asks for hard failures.
func (s *Sim) CheckTimeLimit(step int) (bool, error) {
	maxSteps := s.cfg.MaxSteps()
	if float64(step) <= maxSteps {
		return false, nil
	}
	if s.cfg.ErrorOnOutOfTime {
		return true, &domain.OutOfTimeError{Step: step, MaxSteps: maxSteps, MaxTime: s.cfg.MaxTime, FPS: s.cfg.FPS}
	}
	return true, nil
}

// RealTime converts a step count into simulated seconds.
func (s *Sim) RealTime(step int) float64 {
	return float64(step) / float64(s.cfg.FPS)
}

// AttachSensors attaches the managed sensor set to v.
func (s *Sim) AttachSensors(ctx context.Context, v ports.Vehicle) error {
	return s.sensors.Attach(ctx, v)
}

// PollSensors returns a deep copy of the latest sample of the managed sensors.
func (s *Sim) PollSensors(ctx context.Context, v ports.Vehicle) (domain.SensorData, error) {
	return s.sensors.Poll(ctx, v)
}

// StartLogging starts the simulator's logging for v into path when logging is enabled.
func (s *Sim) StartLogging(ctx context.Context, v ports.Vehicle, path string) error {
	if !s.cfg.Logging {
		return nil
	}
	if err := v.StartLogging(ctx, path); err != nil {
		return fmt.Errorf("failed to start logging for %s: %w", v.ID(), err)
	}
	s.logs[v.ID()] = path
	return nil
}

// StopLogging stops logging for v and returns the path passed to StartLogging.
// ok is false when logging is disabled or was never started for v.
func (s *Sim) StopLogging(ctx context.Context, v ports.Vehicle) (path string, ok bool, err error) {
	if !s.cfg.Logging {
		return "", false, nil
	}
	path, ok = s.logs[v.ID()]
	if !ok {
		return "", false, nil
	}
	delete(s.logs, v.ID())
	if err := v.StopLogging(ctx); err != nil {
		return "", false, fmt.Errorf("failed to stop logging for %s: %w", v.ID(), err)
	}
	return path, true, nil
}

// Sleep is the default WaitFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
