package paradigm

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
	"github.com/aretw0/bngenvs/pkg/ports"
)

const (
	crashY        = 114.0
	crashZ        = 101.0
	crashFlatX    = -268.0
	crashWedgeX   = -224.0
	crashBarX     = -246.0
	crashBollardX = -286.0

	crashPathNodes  = 10
	crashPathLength = 120.0
	crashLoadWait   = 3 * time.Second

	// KPHToMPS converts km/h to m/s.
	KPHToMPS = 0.27778
)

// CrashTestStartPositions are the approach lanes in front of each obstacle.
var CrashTestStartPositions = map[string]domain.Vec3{
	"flat_left":      {crashFlatX - 2, crashY, crashZ},
	"flat_mid":       {crashFlatX, crashY, crashZ},
	"flat_right":     {crashFlatX + 2, crashY, crashZ},
	"raised_bar":     {crashBarX, crashY, crashZ},
	"bollards_left":  {crashBollardX + 2, crashY, crashZ},
	"bollards_mid":   {crashBollardX, crashY, crashZ},
	"bollards_right": {crashBollardX - 2, crashY, crashZ},
	"wedge":          {crashWedgeX, crashY, crashZ},
}

// StartPositionNames returns the start position names sorted.
func StartPositionNames() []string {
	names := make([]string, 0, len(CrashTestStartPositions))
	for k := range CrashTestStartPositions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// GForceKeys are the g-force channels summarized after a crash.
var GForceKeys = []string{"gx", "gy", "gz", "gx2", "gy2", "gz2"}

// CrashTest crashes a catalog car into an obstacle of the gridmap destruction area.
// The run always lasts the full step budget.
type CrashTest struct {
	lifecycle
	params domain.Params
	typed  CrashTestParams
	path   []domain.PathNode
}

// NewCrashTest validates params and creates the paradigm.
func NewCrashTest(params domain.Params) (*CrashTest, error) {
	if err := requireKeys(params, "start_position", "speed_kph", "car_config_name"); err != nil {
		return nil, err
	}
	p := &CrashTest{params: params.Clone()}
	if err := decodeParams(p.params, &p.typed); err != nil {
		return nil, err
	}
	if _, ok := CrashTestStartPositions[p.typed.StartPosition]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStartPosition, p.typed.StartPosition)
	}
	if p.typed.SpeedKPH <= 0 {
		return nil, fmt.Errorf("invalid params: speed_kph must be positive, got %g", p.typed.SpeedKPH)
	}
	p.path = crashPath(CrashTestStartPositions[p.typed.StartPosition], p.typed.SpeedKPH*KPHToMPS)
	return p, nil
}

func (p *CrashTest) Name() string { return "CrashTestEnv" }

// Path returns the approach path.
func (p *CrashTest) Path() []domain.PathNode {
	return append([]domain.PathNode(nil), p.path...)
}

// crashPath is a straight run of 120 m along +y, timed as if the car holds speed.
func crashPath(start domain.Vec3, speed float64) []domain.PathNode {
	nodes := make([]domain.PathNode, crashPathNodes)
	for i := range nodes {
		dy := crashPathLength * float64(i) / float64(crashPathNodes-1)
		nodes[i] = domain.PathNode{X: start.X(), Y: start.Y() + dy, Z: crashZ, T: dy / speed}
	}
	return nodes
}

// CarModel is the model prefix of the "<model>__<config>" catalog name.
func (p *CrashTest) CarModel() string {
	model, _, _ := strings.Cut(p.typed.CarConfigName, "__")
	return model
}

func (p *CrashTest) StartScenario(ctx context.Context, s Session) error {
	catalog := s.Config().CarConfigs
	if catalog == nil {
		return domain.ErrMissingCatalog
	}
	parts, ok := catalog.Lookup(p.typed.CarConfigName)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownPartConfig, p.typed.CarConfigName)
	}

	model := p.CarModel()
	sc := domain.Scenario{
		Level: "gridmap_v2",
		Name:  "crash_test",
		Vehicles: []domain.VehicleSpec{{
			ID:      model,
			Model:   model,
			Licence: "MONOLITH",
			Pose: domain.Pose{
				Pos: CrashTestStartPositions[p.typed.StartPosition],
				Rot: domain.Quat{0, 0, -1, 0},
			},
		}},
	}
	v, err := spawn(ctx, s, sc, crashLoadWait)
	if err != nil {
		return err
	}
	p.vehicle = v

	if err := v.SetPartConfig(ctx, parts.Clone()); err != nil {
		return fmt.Errorf("failed to set part config: %w", err)
	}
	if err := s.AttachSensors(ctx, v); err != nil {
		return err
	}
	if err := v.SetVelocity(ctx, p.typed.SpeedKPH*KPHToMPS, 1); err != nil {
		return fmt.Errorf("failed to set velocity: %w", err)
	}
	if err := v.AISetScript(ctx, p.path); err != nil {
		return fmt.Errorf("failed to set ai script: %w", err)
	}
	if err := s.RemoveDebugPaths(ctx); err != nil {
		return err
	}
	return s.AddDebugPath(ctx, p.path)
}

func (p *CrashTest) Reset(ctx context.Context, s Session) error {
	return p.reset(ctx, s, p.StartScenario)
}

// Step advances one physics step. The run ends on the step budget, which is this
// variant's success predicate, so budget exhaustion counts as finished.
func (p *CrashTest) Step(ctx context.Context, s Session, action any) (StepResult, error) {
	obs, err := p.advance(ctx, s, p.Reset)
	if err != nil {
		return StepResult{}, err
	}
	p.step++
	over, err := p.checkTime(s)
	if err != nil {
		return StepResult{Observation: obs, Done: true, Info: map[string]any{}}, err
	}
	p.done = over
	p.finished = over
	return StepResult{Observation: obs, Done: p.done, Info: map[string]any{}}, nil
}

// Results reports the requested and applied parts plus damage and g-force extrema.
func (p *CrashTest) Results(ctx context.Context, h *history.History) (domain.Results, error) {
	res := domain.Results{"parts_requested": p.params.Clone()}
	if p.vehicle != nil {
		actual, err := p.vehicle.PartConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read applied part config: %w", err)
		}
		res["parts_actual"] = actual
	}

	maxDamage := math.Inf(-1)
	maxG := make(map[string]float64, len(GForceKeys))
	for _, k := range GForceKeys {
		maxG[k] = math.Inf(-1)
	}
	for _, obs := range h.Observations() {
		if d, ok := sensorField(obs, ports.SensorDamage, "damage"); ok {
			maxDamage = math.Max(maxDamage, d)
		}
		for _, k := range GForceKeys {
			if g, ok := sensorField(obs, ports.SensorGForces, k); ok {
				maxG[k] = math.Max(maxG[k], math.Abs(g))
			}
		}
	}
	res["max_damage"] = finiteOrNil(maxDamage)
	for _, k := range GForceKeys {
		res["max_abs_"+k] = finiteOrNil(maxG[k])
	}
	return res, nil
}

func sensorField(obs domain.SensorData, sensor, field string) (float64, bool) {
	m, ok := obs[sensor].(map[string]any)
	if !ok {
		return 0, false
	}
	raw, ok := m[field]
	if !ok || raw == nil {
		return 0, false
	}
	var f float64
	if err := decodeWeak(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

func finiteOrNil(f float64) any {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return f
}
