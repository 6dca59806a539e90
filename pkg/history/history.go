// Package history records per-step telemetry as a set of named, equal-length sequences.
package history

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aretw0/bngenvs/pkg/domain"
)

// Required sequence keys.
const (
	KeyTime     = "time_s"
	KeyCarState = "car_state"
	KeyStep     = "time_pts"
)

// History is an append-only log of named sequences. Every Append pushes one value onto
// every sequence so all sequences keep the same length.
// It is not safe for concurrent use.
type History struct {
	keys []string
	seqs map[string][]any
}

// New creates an empty History with the required keys plus extraKeys.
func New(extraKeys ...string) *History {
	keys := []string{KeyTime, KeyCarState, KeyStep}
	for _, k := range extraKeys {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	h := &History{keys: keys}
	h.Reset()
	return h
}

// Reset empties every declared sequence.
func (h *History) Reset() {
	h.seqs = make(map[string][]any, len(h.keys))
	for _, k := range h.keys {
		h.seqs[k] = []any{}
	}
}

// Append pushes one value per declared key. Missing or unknown keys are rejected
// without modifying the history.
func (h *History) Append(items map[string]any) error {
	for _, k := range h.keys {
		if _, ok := items[k]; !ok {
			return fmt.Errorf("%w: missing %q", domain.ErrPartialAppend, k)
		}
	}
	for k := range items {
		if _, ok := h.seqs[k]; !ok {
			return fmt.Errorf("%w: unknown key %q", domain.ErrPartialAppend, k)
		}
	}
	for _, k := range h.keys {
		h.seqs[k] = append(h.seqs[k], items[k])
	}
	return nil
}

// AppendStep appends one completed step. extras must cover every extra key.
func (h *History) AppendStep(step int, t float64, obs domain.SensorData, extras map[string]any) error {
	items := make(map[string]any, len(h.keys))
	for k, v := range extras {
		items[k] = v
	}
	items[KeyStep] = step
	items[KeyTime] = t
	items[KeyCarState] = obs
	return h.Append(items)
}

// Len is the number of completed steps, measured on the time sequence.
func (h *History) Len() int {
	return len(h.seqs[KeyTime])
}

// Keys returns the declared keys in declaration order.
func (h *History) Keys() []string {
	return slices.Clone(h.keys)
}

// Get returns a copy of one sequence, or nil for an undeclared key.
func (h *History) Get(key string) []any {
	s, ok := h.seqs[key]
	if !ok {
		return nil
	}
	return slices.Clone(s)
}

// Observations returns the per-step sensor snapshots.
func (h *History) Observations() []domain.SensorData {
	out := make([]domain.SensorData, 0, h.Len())
	for _, v := range h.seqs[KeyCarState] {
		out = append(out, asSensorData(v))
	}
	return out
}

// Validate reports a sequence whose length diverges from the time sequence.
func (h *History) Validate() error {
	n := h.Len()
	for _, k := range h.keys {
		if len(h.seqs[k]) != n {
			return fmt.Errorf("history sequence %q has %d entries, want %d", k, len(h.seqs[k]), n)
		}
	}
	return nil
}

// Map exposes the sequences keyed by name. The map is a shallow copy.
func (h *History) Map() map[string][]any {
	out := make(map[string][]any, len(h.keys))
	for _, k := range h.keys {
		out[k] = slices.Clone(h.seqs[k])
	}
	return out
}

// MarshalJSON encodes the history as {"key": [values...]}.
func (h *History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.seqs)
}

// UnmarshalJSON restores a history written by MarshalJSON. Keys beyond the required
// ones become extra keys in sorted order.
func (h *History) UnmarshalJSON(data []byte) error {
	var raw map[string][]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode history: %w", err)
	}
	restored, err := FromMap(raw)
	if err != nil {
		return err
	}
	*h = *restored
	return nil
}

// FromMap builds a History from decoded sequences. The required keys must be present
// and all sequences must have equal length.
func FromMap(raw map[string][]any) (*History, error) {
	var extras []string
	for k := range raw {
		if k != KeyTime && k != KeyCarState && k != KeyStep {
			extras = append(extras, k)
		}
	}
	slices.Sort(extras)

	h := New(extras...)
	for _, k := range h.keys {
		s, ok := raw[k]
		if !ok {
			return nil, fmt.Errorf("history is missing required key %q", k)
		}
		if s == nil {
			s = []any{}
		}
		h.seqs[k] = s
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func asSensorData(v any) domain.SensorData {
	switch t := v.(type) {
	case domain.SensorData:
		return t
	case map[string]any:
		return domain.SensorData(t)
	default:
		return nil
	}
}
