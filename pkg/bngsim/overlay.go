package bngsim

import (
	"context"
	"fmt"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
)

var (
	sphereStyle = ports.DebugStyle{Radius: 0.25, Color: [4]float64{0.5, 0, 0, 0.8}, Cling: true, Offset: 0.1}
	lineStyle   = ports.DebugStyle{Color: [4]float64{0, 0, 0, 0.1}, Cling: true, Offset: 0.1}
)

// DebugOverlay is a drawn path: one sphere per node plus a polyline through them.
// Overlays live in the simulator, not the scenario, so they survive scenario resets
// until destroyed.
type DebugOverlay struct {
	SphereIDs []int
	LineID    int
}

// DrawPath draws nodes on sim and returns the owning handle.
func DrawPath(ctx context.Context, sim ports.Simulator, nodes []domain.PathNode) (*DebugOverlay, error) {
	points := make([]domain.Vec3, len(nodes))
	for i, n := range nodes {
		points[i] = n.Pos()
	}
	spheres, err := sim.AddSpheres(ctx, points, sphereStyle)
	if err != nil {
		return nil, fmt.Errorf("failed to draw debug spheres: %w", err)
	}
	line, err := sim.AddPolyline(ctx, points, lineStyle)
	if err != nil {
		_ = sim.RemoveSpheres(ctx, spheres)
		return nil, fmt.Errorf("failed to draw debug polyline: %w", err)
	}
	return &DebugOverlay{SphereIDs: spheres, LineID: line}, nil
}

// Destroy removes the overlay from sim.
func (o *DebugOverlay) Destroy(ctx context.Context, sim ports.Simulator) error {
	if err := sim.RemoveSpheres(ctx, o.SphereIDs); err != nil {
		return fmt.Errorf("failed to remove debug spheres: %w", err)
	}
	if err := sim.RemovePolyline(ctx, o.LineID); err != nil {
		return fmt.Errorf("failed to remove debug polyline: %w", err)
	}
	return nil
}

// AddDebugPath draws nodes, clearing any overlay drawn before.
func (s *Sim) AddDebugPath(ctx context.Context, nodes []domain.PathNode) error {
	if err := s.RemoveDebugPaths(ctx); err != nil {
		return err
	}
	conn, err := s.Connection()
	if err != nil {
		return err
	}
	o, err := DrawPath(ctx, conn, nodes)
	if err != nil {
		return err
	}
	s.overlay = o
	return nil
}

// RemoveDebugPaths destroys the current overlay. Without one it does nothing.
func (s *Sim) RemoveDebugPaths(ctx context.Context) error {
	if s.overlay == nil {
		return nil
	}
	o := s.overlay
	s.overlay = nil
	if s.conn == nil {
		return nil
	}
	return o.Destroy(ctx, s.conn)
}

// Overlay returns the current overlay handle, or nil.
func (s *Sim) Overlay() *DebugOverlay {
	return s.overlay
}
