package ports

import (
	"context"

	"github.com/aretw0/bngenvs/pkg/domain"
)

// Sensor names understood by Vehicle.AttachSensor.
const (
	SensorState     = "state"
	SensorElectrics = "electrics"
	SensorGForces   = "g_forces"
	SensorDamage    = "damage"
)

// DebugStyle controls how debug geometry is drawn.
type DebugStyle struct {
	Radius float64
	Color  [4]float64
	Cling  bool
	Offset float64
}

// Simulator is the capability surface of one simulator connection.
// Implementations block until the simulator acknowledges each call.
type Simulator interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error

	LoadScenario(ctx context.Context, sc domain.Scenario) error
	StartScenario(ctx context.Context) error
	Pause(ctx context.Context) error
	// Step advances the physics by n steps. With wait set it returns only once the
	// steps have completed.
	Step(ctx context.Context, n int, wait bool) error
	SetStepsPerSecond(ctx context.Context, fps int) error
	ApplyGraphicsSetting(ctx context.Context) error

	// Vehicle returns a handle to a vehicle of the loaded scenario.
	Vehicle(id string) (Vehicle, error)

	AddSpheres(ctx context.Context, centers []domain.Vec3, style DebugStyle) ([]int, error)
	RemoveSpheres(ctx context.Context, ids []int) error
	AddPolyline(ctx context.Context, nodes []domain.Vec3, style DebugStyle) (int, error)
	RemovePolyline(ctx context.Context, id int) error
}

// Vehicle is the capability surface of one spawned vehicle.
type Vehicle interface {
	ID() string

	AttachSensor(ctx context.Context, name string) error
	// Poll samples every attached sensor.
	Poll(ctx context.Context) (domain.SensorData, error)

	SetPartConfig(ctx context.Context, cfg domain.PartConfig) error
	// PartConfig reads back the configuration the simulator actually applied.
	PartConfig(ctx context.Context) (domain.PartConfig, error)

	SetVelocity(ctx context.Context, mps float64, dt float64) error
	AISetMode(ctx context.Context, mode string) error
	AISetAggression(ctx context.Context, aggression float64) error
	AISetSpeed(ctx context.Context, speed float64, mode string) error
	AISetWaypoint(ctx context.Context, waypoint string) error
	AISetScript(ctx context.Context, script []domain.PathNode) error

	StartLogging(ctx context.Context, dir string) error
	StopLogging(ctx context.Context) error
}

// Connector creates a Simulator for the given connection config. It must not open
// the connection.
type Connector func(cfg domain.BeamNGConfig) (Simulator, error)
