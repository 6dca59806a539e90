package paradigm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/cars"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/history"
)

const (
	trackModel = "scintilla"

	// WaypointReachedDistance is how close the car must get for a waypoint to count.
	WaypointReachedDistance = 150.0
	// FinishDistance is how close to the last route point the car must end.
	FinishDistance = 3.0

	trackAISpeedLimit = 500.0
)

// Extra observation keys added by TrackTest.
const (
	KeyDistToNextWaypoint = "dist_to_next_waypoint"
	KeyCurrentWaypoint    = "current_waypoint"
	KeyCurrentWaypointIdx = "current_waypoint_idx"
)

// TrackTestObservationKeys are the keys TrackTest adds to each step's observation.
var TrackTestObservationKeys = []string{KeyDistToNextWaypoint, KeyCurrentWaypoint, KeyCurrentWaypointIdx}

var (
	trackWP1 = domain.Waypoint{Name: "quickrace_wp1", Pos: domain.Vec3{47, 256, 28}}
	trackWP2 = domain.Waypoint{Name: "quickrace_wp2", Pos: domain.Vec3{393, -130, 34}}
	trackWP3 = domain.Waypoint{Name: "quickrace_wp3", Pos: domain.Vec3{-12, -65, 29}}
	trackWP4 = domain.Waypoint{Name: "quickrace_wp4", Pos: domain.Vec3{-220, 368, 27}}
	trackWP5 = domain.Waypoint{Name: "quickrace_wp11", Pos: domain.Vec3{-413, 467, 34}}
	trackWP6 = domain.Waypoint{Name: "hr_start", Pos: domain.Vec3{-402, 244, 25}}
)

// TrackTestRoute is one lap of the short Hirochi circuit, start line to start line.
var TrackTestRoute = []domain.Waypoint{trackWP1, trackWP2, trackWP3, trackWP4, trackWP5, trackWP6}

// TrackTestFinalWaypoint is targeted once the route is exhausted so the AI keeps racing
// through the finish line instead of braking onto it.
var TrackTestFinalWaypoint = trackWP1

// TrackTestSpawn is the grid position.
var TrackTestSpawn = domain.Pose{Pos: domain.Vec3{-408.4, 260.23, 25.423}, Rot: domain.Quat{0, 0, -0.3, 1}}

// TrackTest drives a tuned scintilla around a lap of Hirochi Raceway under AI control.
// Params prefixed with "$" override part config vars; "driver_aggression" sets the AI.
type TrackTest struct {
	lifecycle
	params domain.Params
	typed  TrackTestParams
	vars   map[string]float64
	logger *slog.Logger

	current domain.Waypoint
	idx     int
	reached []bool
}

// NewTrackTest validates params and creates the paradigm.
func NewTrackTest(params domain.Params, logger *slog.Logger) (*TrackTest, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &TrackTest{
		params: params.Clone(),
		typed:  TrackTestParams{DriverAggression: 1},
		vars:   make(map[string]float64),
		logger: logger,
	}
	if err := decodeParams(p.params, &p.typed); err != nil {
		return nil, err
	}
	for k, v := range p.params {
		if !strings.HasPrefix(k, "$") {
			continue
		}
		var f float64
		if err := decodeWeak(v, &f); err != nil {
			return nil, fmt.Errorf("invalid params: %q is not numeric: %w", k, err)
		}
		p.vars[k] = f
	}
	p.rewind()
	return p, nil
}

func (p *TrackTest) Name() string { return "TrackTestEnv" }

// PartConfig is the rally baseline with the requested vars applied.
func (p *TrackTest) PartConfig() domain.PartConfig {
	pc := cars.ScintillaRally()
	for k, v := range p.vars {
		pc.Vars[k] = v
	}
	return pc
}

// CurrentWaypoint is the waypoint the AI is driving to.
func (p *TrackTest) CurrentWaypoint() domain.Waypoint { return p.current }

// CurrentWaypointIdx counts the route waypoints reached so far.
func (p *TrackTest) CurrentWaypointIdx() int { return p.idx }

func (p *TrackTest) rewind() {
	p.idx = 0
	p.current = TrackTestRoute[0]
	p.reached = make([]bool, len(TrackTestRoute))
}

func (p *TrackTest) StartScenario(ctx context.Context, s Session) error {
	sc := domain.Scenario{
		Level: "hirochi_raceway",
		Name:  "start_line",
		Vehicles: []domain.VehicleSpec{{
			ID:      trackModel,
			Model:   trackModel,
			Licence: "MONOLITH",
			Pose:    TrackTestSpawn,
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
	if err := v.AISetMode(ctx, "manual"); err != nil {
		return fmt.Errorf("failed to set ai mode: %w", err)
	}
	if err := v.AISetAggression(ctx, p.typed.DriverAggression); err != nil {
		return fmt.Errorf("failed to set ai aggression: %w", err)
	}
	if err := v.AISetSpeed(ctx, trackAISpeedLimit, "limit"); err != nil {
		return fmt.Errorf("failed to set ai speed: %w", err)
	}
	if err := v.AISetWaypoint(ctx, p.current.Name); err != nil {
		return fmt.Errorf("failed to set waypoint %s: %w", p.current.Name, err)
	}
	return nil
}

func (p *TrackTest) Reset(ctx context.Context, s Session) error {
	p.rewind()
	return p.reset(ctx, s, p.StartScenario)
}

// Step advances one physics step. A route waypoint counts as reached once the car is
// within WaypointReachedDistance of it; the AI is then sent to the next one, or to the
// final waypoint after the last. The lap finishes when every waypoint is reached and
// the car is within FinishDistance of the last route point.
func (p *TrackTest) Step(ctx context.Context, s Session, action any) (StepResult, error) {
	obs, err := p.advance(ctx, s, p.Reset)
	if err != nil {
		return StepResult{}, err
	}
	p.step++

	pos, err := position(obs)
	if err != nil {
		return StepResult{}, err
	}
	dist := pos.Dist(p.current.Pos)
	toFinish := pos.Dist(TrackTestRoute[len(TrackTestRoute)-1].Pos)

	if p.idx < len(TrackTestRoute) && dist < WaypointReachedDistance && !p.reached[p.idx] {
		p.reached[p.idx] = true
		p.idx++
		if p.idx == len(TrackTestRoute) {
			p.current = TrackTestFinalWaypoint
		} else {
			p.current = TrackTestRoute[p.idx]
		}
		p.logger.Debug("waypoint reached", "step", p.step, "time_s", s.RealTime(p.step), "next", p.current.Name)
		if err := p.vehicle.AISetWaypoint(ctx, p.current.Name); err != nil {
			return StepResult{}, fmt.Errorf("failed to set waypoint %s: %w", p.current.Name, err)
		}
	}

	if p.idx == len(TrackTestRoute) && toFinish < FinishDistance {
		p.finished = true
	}

	over, err := p.checkTime(s)
	obs[KeyDistToNextWaypoint] = dist
	obs[KeyCurrentWaypoint] = map[string]any{"name": p.current.Name, "pos": []float64{p.current.Pos.X(), p.current.Pos.Y(), p.current.Pos.Z()}}
	obs[KeyCurrentWaypointIdx] = p.idx
	if err != nil {
		return StepResult{Observation: obs, Done: true, Info: map[string]any{}}, err
	}
	p.done = p.finished || over
	return StepResult{Observation: obs, Done: p.done, Info: map[string]any{}}, nil
}

// Results has nothing beyond what the environment records for every run.
func (p *TrackTest) Results(ctx context.Context, h *history.History) (domain.Results, error) {
	return domain.Results{}, nil
}
