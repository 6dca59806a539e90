// Package fake provides a deterministic in-process simulator implementing the
// ports.Simulator and ports.Vehicle capabilities.
//
// Vehicles move kinematically: along a fixed trajectory when one is configured,
// along an AI script, towards an AI waypoint, or with their set velocity. Sensor
// samples are synthesized from that motion, so the scenario paradigms can be exercised
// without a running simulator.
package fake

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/aretw0/bngenvs"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
)

// Simulator is an in-memory simulator instance. It can be closed and reopened, like a
// long-lived simulator process, and is safe for concurrent use.
type Simulator struct {
	mu sync.Mutex

	cfg       domain.BeamNGConfig
	logRoot   string
	open      bool
	opens     int
	closes    int
	paused    bool
	fps       int
	steps     int
	graphics  int
	scenarios []domain.Scenario
	vehicles  map[string]*Vehicle
	calls     []string

	waypoints  map[string]domain.Vec3
	trajectory []domain.Vec3
	hold       int
	cruise     float64

	spheres map[int]domain.Vec3
	lines   map[int][]domain.Vec3
	nextID  int

	failures map[string]error
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithWaypoints registers named level waypoints for AISetWaypoint.
func WithWaypoints(wps ...domain.Waypoint) Option {
	return func(s *Simulator) {
		for _, wp := range wps {
			s.waypoints[wp.Name] = wp.Pos
		}
	}
}

// WithTrajectory makes every vehicle follow points, holding each one for hold steps
// and staying on the last point afterwards. It overrides every other motion source.
func WithTrajectory(hold int, points ...domain.Vec3) Option {
	return func(s *Simulator) {
		if hold < 1 {
			hold = 1
		}
		s.hold = hold
		s.trajectory = append([]domain.Vec3(nil), points...)
	}
}

// WithCruiseSpeed sets the AI waypoint driving speed in m/s at aggression 1.
func WithCruiseSpeed(mps float64) Option {
	return func(s *Simulator) { s.cruise = mps }
}

// WithLogRoot sets the directory relative logging paths resolve against.
// It defaults to <user>/<SimulatorDataVersion> of the connection config.
func WithLogRoot(dir string) Option {
	return func(s *Simulator) { s.logRoot = dir }
}

// WithFailure makes the named method return err.
func WithFailure(method string, err error) Option {
	return func(s *Simulator) { s.failures[method] = err }
}

// New creates a closed Simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		vehicles:  make(map[string]*Vehicle),
		waypoints: make(map[string]domain.Vec3),
		spheres:   make(map[int]domain.Vec3),
		lines:     make(map[int][]domain.Vec3),
		failures:  make(map[string]error),
		cruise:    40,
		fps:       60,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connector returns a ports.Connector that always hands out s, as a worker bound to a
// single simulator process would.
func (s *Simulator) Connector() ports.Connector {
	return func(cfg domain.BeamNGConfig) (ports.Simulator, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.failures["Connect"]; err != nil {
			return nil, err
		}
		s.cfg = cfg
		return s, nil
	}
}

// NewConnector returns a ports.Connector creating a fresh Simulator per connection.
func NewConnector(opts ...Option) ports.Connector {
	return func(cfg domain.BeamNGConfig) (ports.Simulator, error) {
		s := New(opts...)
		s.cfg = cfg
		return s, nil
	}
}

func (s *Simulator) record(method string) error {
	s.calls = append(s.calls, method)
	return s.failures[method]
}

func (s *Simulator) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Open"); err != nil {
		return err
	}
	s.open = true
	s.opens++
	return nil
}

func (s *Simulator) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Close"); err != nil {
		return err
	}
	s.open = false
	s.closes++
	s.vehicles = make(map[string]*Vehicle)
	return nil
}

func (s *Simulator) LoadScenario(ctx context.Context, sc domain.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("LoadScenario"); err != nil {
		return err
	}
	if !s.open {
		return fmt.Errorf("load scenario: %w", errClosed)
	}
	s.scenarios = append(s.scenarios, sc)
	s.steps = 0
	s.vehicles = make(map[string]*Vehicle, len(sc.Vehicles))
	for _, spec := range sc.Vehicles {
		s.vehicles[spec.ID] = newVehicle(s, spec)
	}
	return nil
}

func (s *Simulator) StartScenario(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("StartScenario"); err != nil {
		return err
	}
	s.paused = false
	return nil
}

func (s *Simulator) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Pause"); err != nil {
		return err
	}
	s.paused = true
	return nil
}

func (s *Simulator) SetStepsPerSecond(ctx context.Context, fps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("SetStepsPerSecond"); err != nil {
		return err
	}
	if fps <= 0 {
		return fmt.Errorf("invalid steps per second %d", fps)
	}
	s.fps = fps
	return nil
}

func (s *Simulator) ApplyGraphicsSetting(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ApplyGraphicsSetting"); err != nil {
		return err
	}
	s.graphics++
	return nil
}

// Step advances every vehicle n physics steps. wait is implied: the fake is synchronous.
func (s *Simulator) Step(ctx context.Context, n int, wait bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("Step"); err != nil {
		return err
	}
	if !s.open {
		return fmt.Errorf("step: %w", errClosed)
	}
	dt := 1 / float64(s.fps)
	for i := 0; i < n; i++ {
		s.steps++
		for _, v := range s.vehicles {
			v.advance(s.steps, dt)
		}
	}
	return nil
}

func (s *Simulator) Vehicle(id string) (ports.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %q not in scenario", id)
	}
	return v, nil
}

func (s *Simulator) AddSpheres(ctx context.Context, centers []domain.Vec3, style ports.DebugStyle) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("AddSpheres"); err != nil {
		return nil, err
	}
	ids := make([]int, len(centers))
	for i, c := range centers {
		s.nextID++
		s.spheres[s.nextID] = c
		ids[i] = s.nextID
	}
	return ids, nil
}

// RemoveSpheres ignores unknown ids.
func (s *Simulator) RemoveSpheres(ctx context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("RemoveSpheres"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(s.spheres, id)
	}
	return nil
}

func (s *Simulator) AddPolyline(ctx context.Context, nodes []domain.Vec3, style ports.DebugStyle) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("AddPolyline"); err != nil {
		return 0, err
	}
	s.nextID++
	s.lines[s.nextID] = append([]domain.Vec3(nil), nodes...)
	return s.nextID, nil
}

func (s *Simulator) RemovePolyline(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("RemovePolyline"); err != nil {
		return err
	}
	delete(s.lines, id)
	return nil
}

func (s *Simulator) resolveLogDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	root := s.logRoot
	if root == "" {
		root = filepath.Join(s.cfg.User, bngenvs.SimulatorDataVersion)
	}
	return filepath.Join(root, dir)
}
