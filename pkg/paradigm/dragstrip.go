package paradigm

import (
	"context"
	"fmt"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
)

const (
	dragModel     = "sunburst"
	dragStartX    = 40.0
	dragY         = 405.0
	dragZ         = 101.0
	dragNodes     = 12
	dragFinishIdx = 9
)

// DragStripPath is the straight scripted run down the strip, one node per second.
var DragStripPath = func() []domain.PathNode {
	nodes := make([]domain.PathNode, dragNodes)
	for t := range nodes {
		nodes[t] = domain.PathNode{X: 50 + 40*float64(t+1), Y: dragY, Z: dragZ, T: float64(t)}
	}
	return nodes
}()

// DragStripFinishX is the x coordinate of the finish line.
var DragStripFinishX = DragStripPath[dragFinishIdx].X

// DragStrip runs a sunburst down the gridmap drag strip with the given parts.
// Every param is a part slot mapped to the part name to install.
type DragStrip struct {
	lifecycle
	params domain.Params
}

// NewDragStrip creates the paradigm. params may be empty.
func NewDragStrip(params domain.Params) (*DragStrip, error) {
	return &DragStrip{params: params.Clone()}, nil
}

func (p *DragStrip) Name() string { return "DragStripEnv" }

// PartConfig is the part config applied on start.
func (p *DragStrip) PartConfig() domain.PartConfig {
	parts := make(map[string]string, len(p.params))
	for slot, part := range p.params {
		parts[slot] = fmt.Sprint(part)
	}
	return domain.PartConfig{Parts: parts, Vars: map[string]float64{}}
}

func (p *DragStrip) StartScenario(ctx context.Context, s Session) error {
	sc := domain.Scenario{
		Level: "gridmap_v2",
		Name:  "drag_strip",
		Vehicles: []domain.VehicleSpec{{
			ID:      dragModel,
			Model:   dragModel,
			Licence: "MONOLITH",
			Pose: domain.Pose{
				Pos: domain.Vec3{dragStartX, dragY, dragZ},
				Rot: domain.Quat{0, 0, -0.707, 0.707},
			},
		}},
	}
	v, err := spawn(ctx, s, sc, 0)
	if err != nil {
		return err
	}
	p.vehicle = v

	if err := v.SetPartConfig(ctx, p.PartConfig()); err != nil {
		return fmt.Errorf("failed to set part config: %w", err)
	}
	if err := s.AttachSensors(ctx, v); err != nil {
		return err
	}
	if err := v.AISetScript(ctx, DragStripPath); err != nil {
		return fmt.Errorf("failed to set ai script: %w", err)
	}
	if err := s.RemoveDebugPaths(ctx); err != nil {
		return err
	}
	return s.AddDebugPath(ctx, DragStripPath)
}

func (p *DragStrip) Reset(ctx context.Context, s Session) error {
	return p.reset(ctx, s, p.StartScenario)
}

// Step advances one physics step. The run finishes when the car crosses the finish
// line and ends without finishing when the time budget runs out first.
func (p *DragStrip) Step(ctx context.Context, s Session, action any) (StepResult, error) {
	obs, err := p.advance(ctx, s, p.Reset)
	if err != nil {
		return StepResult{}, err
	}
	p.step++
	over, err := p.checkTime(s)
	if err != nil {
		return StepResult{Observation: obs, Done: true, Info: map[string]any{}}, err
	}
	pos, err := position(obs)
	if err != nil {
		return StepResult{}, err
	}
	if pos.X() >= DragStripFinishX {
		p.finished = true
	}
	p.done = over || p.finished
	return StepResult{Observation: obs, Done: p.done, Info: map[string]any{}}, nil
}

func (p *DragStrip) Results(ctx context.Context, h *history.History) (domain.Results, error) {
	res := domain.Results{"parts_requested": p.params.Clone()}
	if p.vehicle != nil {
		actual, err := p.vehicle.PartConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read applied part config: %w", err)
		}
		res["parts_actual"] = actual
	}
	return res, nil
}
