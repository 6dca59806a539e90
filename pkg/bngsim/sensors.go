package bngsim

import (
	"context"
	"fmt"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
)

// techSensors lists the extended sensors. None are defined yet.
var techSensors []string

// SensorSet is the fixed set of sensors attached to every driven vehicle.
type SensorSet struct {
	includeTech bool
}

// NewSensorSet creates the sensor set. No tech sensors are defined yet, so
// includeTech does not change the attached set.
func NewSensorSet(includeTech bool) SensorSet {
	return SensorSet{includeTech: includeTech}
}

// Names returns the active sensor names in attach order.
func (s SensorSet) Names() []string {
	names := []string{ports.SensorState, ports.SensorElectrics, ports.SensorGForces, ports.SensorDamage}
	if s.includeTech {
		names = append(names, techSensors...)
	}
	return names
}

// Attach attaches every sensor to v.
func (s SensorSet) Attach(ctx context.Context, v ports.Vehicle) error {
	for _, name := range s.Names() {
		if err := v.AttachSensor(ctx, name); err != nil {
			return fmt.Errorf("failed to attach sensor %q to %s: %w", name, v.ID(), err)
		}
	}
	return nil
}

// Poll samples v and returns a deep copy restricted to the managed sensors.
func (s SensorSet) Poll(ctx context.Context, v ports.Vehicle) (domain.SensorData, error) {
	raw, err := v.Poll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to poll sensors for %s: %w", v.ID(), err)
	}
	out := make(domain.SensorData, len(s.Names()))
	for _, name := range s.Names() {
		if val, ok := raw[name]; ok {
			out[name] = domain.CloneValue(val)
		}
	}
	return out, nil
}
