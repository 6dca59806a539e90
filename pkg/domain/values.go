package domain

// Params is the flat mapping of experiment inputs supplied by the caller.
type Params map[string]any

// Clone returns a deep copy so later caller mutations do not leak into a run.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return Params(cloneMap(p))
}

// Results is the scalar summary of one finished run.
type Results map[string]any

// Outcome is the completion marker of a persisted run record. It is written last.
type Outcome struct {
	Complete bool   `json:"complete"`
	Env      string `json:"env"`
	Version  string `json:"version"`
}

// SensorData is one poll of every attached sensor, keyed by sensor name.
type SensorData map[string]any

// Clone returns a deep copy of the sample.
func (s SensorData) Clone() SensorData {
	if s == nil {
		return nil
	}
	return SensorData(cloneMap(s))
}

// CloneValue deep copies the container types found in sensor samples and params.
// Other values are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case SensorData:
		return t.Clone()
	case Params:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	case map[string]float64:
		out := make(map[string]float64, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case PartConfig:
		return t.Clone()
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}
