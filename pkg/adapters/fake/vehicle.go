package fake

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aretw0/bngenvs/pkg/domain"
)

const (
	gravity        = 9.81
	impactG        = 8.0
	damagePerG     = 50.0
	smoothing      = 0.1
	waypointArrive = 0.5
)

// Vehicle is a kinematic vehicle inside a fake Simulator.
type Vehicle struct {
	sim  *Simulator
	spec domain.VehicleSpec

	time    float64
	pos     domain.Vec3
	vel     domain.Vec3
	g       domain.Vec3
	g2      domain.Vec3
	damage  float64
	sensors map[string]bool
	parts   *domain.PartConfig

	aiMode     string
	aggression float64
	speedLimit float64
	route      []string
	script     []domain.PathNode
	scriptT    float64

	logDir  string
	logRows [][]float64
}

func newVehicle(sim *Simulator, spec domain.VehicleSpec) *Vehicle {
	return &Vehicle{
		sim:        sim,
		spec:       spec,
		pos:        spec.Pose.Pos,
		sensors:    make(map[string]bool),
		aiMode:     "disabled",
		aggression: 1,
	}
}

func (v *Vehicle) ID() string { return v.spec.ID }

func (v *Vehicle) call(method string) error {
	return v.sim.record("Vehicle." + method)
}

func (v *Vehicle) AttachSensor(ctx context.Context, name string) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("AttachSensor"); err != nil {
		return err
	}
	v.sensors[name] = true
	return nil
}

func (v *Vehicle) Poll(ctx context.Context) (domain.SensorData, error) {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("Poll"); err != nil {
		return nil, err
	}
	speed := norm(v.vel)
	all := map[string]any{
		"state": map[string]any{
			"pos": slice(v.pos),
			"vel": slice(v.vel),
			"dir": slice(v.heading()),
		},
		"electrics": map[string]any{
			"wheelspeed": speed,
			"airspeed":   speed,
			"throttle":   throttle(speed),
		},
		"g_forces": map[string]any{
			"gx": v.g[0], "gy": v.g[1], "gz": v.g[2],
			"gx2": v.g2[0], "gy2": v.g2[1], "gz2": v.g2[2],
		},
		"damage": map[string]any{
			"damage": v.damage,
		},
	}
	out := make(domain.SensorData, len(v.sensors))
	for name := range v.sensors {
		if data, ok := all[name]; ok {
			out[name] = data
		}
	}
	return out, nil
}

func (v *Vehicle) SetPartConfig(ctx context.Context, cfg domain.PartConfig) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("SetPartConfig"); err != nil {
		return err
	}
	c := cfg.Clone()
	v.parts = &c
	return nil
}

// PartConfig returns the applied config. Unset configs read back as the model's empty
// default.
func (v *Vehicle) PartConfig(ctx context.Context) (domain.PartConfig, error) {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("PartConfig"); err != nil {
		return domain.PartConfig{}, err
	}
	applied := domain.PartConfig{Parts: map[string]string{}, Vars: map[string]float64{}}
	if v.parts != nil {
		applied = v.parts.Clone()
	}
	applied.Format = 2
	applied.Model = v.spec.Model
	return applied, nil
}

func (v *Vehicle) SetVelocity(ctx context.Context, mps float64, dt float64) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("SetVelocity"); err != nil {
		return err
	}
	f := v.forward()
	v.vel = domain.Vec3{f[0] * mps, f[1] * mps, f[2] * mps}
	return nil
}

func (v *Vehicle) AISetMode(ctx context.Context, mode string) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("AISetMode"); err != nil {
		return err
	}
	v.aiMode = mode
	return nil
}

func (v *Vehicle) AISetAggression(ctx context.Context, aggression float64) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("AISetAggression"); err != nil {
		return err
	}
	v.aggression = aggression
	return nil
}

func (v *Vehicle) AISetSpeed(ctx context.Context, speed float64, mode string) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("AISetSpeed"); err != nil {
		return err
	}
	v.speedLimit = speed
	return nil
}

// AISetWaypoint queues a waypoint. The fake AI drives through every queued waypoint in
// order, so rerouting early never cuts a corner.
func (v *Vehicle) AISetWaypoint(ctx context.Context, waypoint string) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("AISetWaypoint"); err != nil {
		return err
	}
	if _, ok := v.sim.waypoints[waypoint]; !ok {
		return fmt.Errorf("unknown waypoint %q", waypoint)
	}
	v.route = append(v.route, waypoint)
	return nil
}

func (v *Vehicle) AISetScript(ctx context.Context, script []domain.PathNode) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("AISetScript"); err != nil {
		return err
	}
	v.script = append([]domain.PathNode(nil), script...)
	v.scriptT = 0
	return nil
}

func (v *Vehicle) StartLogging(ctx context.Context, dir string) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("StartLogging"); err != nil {
		return err
	}
	v.logDir = v.sim.resolveLogDir(dir)
	v.logRows = nil
	return nil
}

// StopLogging writes one CSV file per logged channel into the logging directory.
func (v *Vehicle) StopLogging(ctx context.Context) error {
	v.sim.mu.Lock()
	defer v.sim.mu.Unlock()
	if err := v.call("StopLogging"); err != nil {
		return err
	}
	if v.logDir == "" {
		return nil
	}
	dir := v.logDir
	v.logDir = ""
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	channels := []struct {
		name string
		cols []string
		idx  []int
	}{
		{"position", []string{"time", "pos_x", "pos_y", "pos_z", "speed"}, []int{0, 1, 2, 3, 4}},
		{"gforces", []string{"time", "gx", "gy", "gz"}, []int{0, 5, 6, 7}},
	}
	for _, ch := range channels {
		path := filepath.Join(dir, v.spec.ID+"_"+ch.name+".csv")
		if err := writeCSV(path, ch.cols, ch.idx, v.logRows); err != nil {
			return err
		}
	}
	v.logRows = nil
	return nil
}

func writeCSV(path string, header []string, idx []int, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(idx))
	for _, row := range rows {
		for i, j := range idx {
			rec[i] = strconv.FormatFloat(row[j], 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// advance moves the vehicle by one physics step. The simulator lock is held.
func (v *Vehicle) advance(step int, dt float64) {
	v.time += dt
	prev := v.pos
	prevVel := v.vel

	switch {
	case len(v.sim.trajectory) > 0:
		i := (step - 1) / v.sim.hold
		if i >= len(v.sim.trajectory) {
			i = len(v.sim.trajectory) - 1
		}
		v.pos = v.sim.trajectory[i]
		v.vel = domain.Vec3{}
		v.g = domain.Vec3{}
		v.log()
		return
	case len(v.script) > 0:
		v.scriptT += dt
		v.pos = interpolate(v.script, v.scriptT)
	case len(v.route) > 0 && v.aiMode != "disabled":
		v.driveTowards(dt)
	default:
		v.pos = domain.Vec3{v.pos[0] + v.vel[0]*dt, v.pos[1] + v.vel[1]*dt, v.pos[2] + v.vel[2]*dt}
	}

	v.vel = domain.Vec3{(v.pos[0] - prev[0]) / dt, (v.pos[1] - prev[1]) / dt, (v.pos[2] - prev[2]) / dt}
	for i := range v.g {
		v.g[i] = (v.vel[i] - prevVel[i]) / dt / gravity
		v.g2[i] = (1-smoothing)*v.g2[i] + smoothing*v.g[i]
	}
	if g := norm(v.g); g > impactG {
		v.damage += (g - impactG) * damagePerG
	}
	v.log()
}

func (v *Vehicle) driveTowards(dt float64) {
	target := v.sim.waypoints[v.route[0]]
	speed := v.sim.cruise * v.aggression
	if v.speedLimit > 0 && speed > v.speedLimit {
		speed = v.speedLimit
	}
	d := domain.Vec3{target[0] - v.pos[0], target[1] - v.pos[1], target[2] - v.pos[2]}
	dist := norm(d)
	stride := speed * dt
	if dist <= stride || dist < waypointArrive {
		v.pos = target
		v.route = v.route[1:]
		return
	}
	k := stride / dist
	v.pos = domain.Vec3{v.pos[0] + d[0]*k, v.pos[1] + d[1]*k, v.pos[2] + d[2]*k}
}

func (v *Vehicle) log() {
	if v.logDir == "" {
		return
	}
	v.logRows = append(v.logRows, []float64{
		v.time, v.pos[0], v.pos[1], v.pos[2], norm(v.vel), v.g[0], v.g[1], v.g[2],
	})
}

// forward is the spawn rotation applied to the model's forward axis (0, -1, 0).
func (v *Vehicle) forward() domain.Vec3 {
	q := v.spec.Pose.Rot
	if q == (domain.Quat{}) {
		q = domain.Quat{0, 0, 0, 1}
	}
	return rotate(q, domain.Vec3{0, -1, 0})
}

func (v *Vehicle) heading() domain.Vec3 {
	if n := norm(v.vel); n > 0 {
		return domain.Vec3{v.vel[0] / n, v.vel[1] / n, v.vel[2] / n}
	}
	return v.forward()
}

func interpolate(nodes []domain.PathNode, t float64) domain.Vec3 {
	if t <= nodes[0].T {
		return nodes[0].Pos()
	}
	for i := 1; i < len(nodes); i++ {
		a, b := nodes[i-1], nodes[i]
		if t <= b.T {
			span := b.T - a.T
			if span <= 0 {
				return b.Pos()
			}
			k := (t - a.T) / span
			return domain.Vec3{a.X + (b.X-a.X)*k, a.Y + (b.Y-a.Y)*k, a.Z + (b.Z-a.Z)*k}
		}
	}
	return nodes[len(nodes)-1].Pos()
}

func rotate(q domain.Quat, v domain.Vec3) domain.Vec3 {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	x, y, z, w := q[0]/n, q[1]/n, q[2]/n, q[3]/n
	// v' = v + 2w(u x v) + 2u x (u x v)
	cx := y*v[2] - z*v[1]
	cy := z*v[0] - x*v[2]
	cz := x*v[1] - y*v[0]
	return domain.Vec3{
		v[0] + 2*w*cx + 2*(y*cz-z*cy),
		v[1] + 2*w*cy + 2*(z*cx-x*cz),
		v[2] + 2*w*cz + 2*(x*cy-y*cx),
	}
}

func slice(v domain.Vec3) []float64 {
	return []float64{v[0], v[1], v[2]}
}

func norm(v domain.Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func throttle(speed float64) float64 {
	if speed > 0 {
		return 1
	}
	return 0
}
