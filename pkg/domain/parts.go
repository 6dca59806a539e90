package domain

// Paint is one vehicle paint layer.
type Paint struct {
	BaseColor          [4]float64 `json:"baseColor" yaml:"baseColor"`
	Metallic           float64    `json:"metallic" yaml:"metallic"`
	Roughness          float64    `json:"roughness" yaml:"roughness"`
	Clearcoat          float64    `json:"clearcoat" yaml:"clearcoat"`
	ClearcoatRoughness float64    `json:"clearcoatRoughness" yaml:"clearcoatRoughness"`
}

// PartConfig is a set of part selections (slot -> part) and numeric setpoints
// (variable -> value) applied to one vehicle.
type PartConfig struct {
	Format int                `json:"format,omitempty" yaml:"format,omitempty"`
	Model  string             `json:"model,omitempty" yaml:"model,omitempty"`
	Parts  map[string]string  `json:"parts" yaml:"parts"`
	Vars   map[string]float64 `json:"vars" yaml:"vars"`
	Paints []Paint            `json:"paints,omitempty" yaml:"paints,omitempty"`
}

// Clone returns a deep copy.
func (p PartConfig) Clone() PartConfig {
	out := PartConfig{
		Format: p.Format,
		Model:  p.Model,
		Parts:  make(map[string]string, len(p.Parts)),
		Vars:   make(map[string]float64, len(p.Vars)),
	}
	for k, v := range p.Parts {
		out.Parts[k] = v
	}
	for k, v := range p.Vars {
		out.Vars[k] = v
	}
	if p.Paints != nil {
		out.Paints = append([]Paint(nil), p.Paints...)
	}
	return out
}

// PartCatalog looks up named part configs. Names have the form "<model>__<config>".
type PartCatalog interface {
	Lookup(name string) (PartConfig, bool)
	Names() []string
}
