package domain

// VehicleSpec describes one vehicle placed into a scenario.
type VehicleSpec struct {
	ID      string
	Model   string
	Licence string
	Pose    Pose
}

// Scenario is a level plus the vehicles spawned into it.
type Scenario struct {
	Level    string
	Name     string
	Vehicles []VehicleSpec
}
