package fake

import (
	"errors"
	"slices"

	"github.com/aretw0/bngenvs/pkg/domain"
)

var errClosed = errors.New("simulator connection is closed")

// Stats is a snapshot of the simulator's bookkeeping.
type Stats struct {
	Open      bool
	Opens     int
	Closes    int
	Paused    bool
	FPS       int
	Steps     int
	Graphics  int
	Spheres   int
	Lines     int
	Scenarios []domain.Scenario
}

// Stats returns a snapshot for assertions.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Open:      s.open,
		Opens:     s.opens,
		Closes:    s.closes,
		Paused:    s.paused,
		FPS:       s.fps,
		Steps:     s.steps,
		Graphics:  s.graphics,
		Spheres:   len(s.spheres),
		Lines:     len(s.lines),
		Scenarios: slices.Clone(s.scenarios),
	}
}

// Calls returns the method names invoked so far, in order.
func (s *Simulator) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Config returns the connection config the simulator was bound with.
func (s *Simulator) Config() domain.BeamNGConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}
