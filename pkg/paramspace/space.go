// Package paramspace describes the parameters each environment accepts: their
// ranges or choices, defaults, and a sampler for batch runs.
package paramspace

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ErrOutOfSpace is returned by Validate for a value outside its dimension.
var ErrOutOfSpace = errors.New("parameter out of space")

// Dim is one parameter. It is continuous over [Min, Max] when Choices is empty.
type Dim struct {
	Key         string  `json:"key"`
	Description string  `json:"description,omitempty"`
	Min         float64 `json:"min,omitempty"`
	Max         float64 `json:"max,omitempty"`
	Choices     []any   `json:"choices,omitempty"`
	Default     any     `json:"default"`
}

// Continuous reports whether d is a numeric range.
func (d Dim) Continuous() bool { return len(d.Choices) == 0 }

// Sample draws a value uniformly from d.
func (d Dim) Sample(rng *rand.Rand) any {
	if d.Continuous() {
		return d.Min + rng.Float64()*(d.Max-d.Min)
	}
	return d.Choices[rng.IntN(len(d.Choices))]
}

// Contains reports whether v lies in d. Numbers given as strings are accepted.
func (d Dim) Contains(v any) bool {
	if d.Continuous() {
		var f float64
		if err := mapstructure.WeakDecode(v, &f); err != nil {
			return false
		}
		return f >= d.Min && f <= d.Max
	}
	want := fmt.Sprint(v)
	return slices.ContainsFunc(d.Choices, func(c any) bool { return fmt.Sprint(c) == want })
}

// Space is the parameter space of one environment type.
type Space struct {
	Env  string `json:"env"`
	Dims []Dim  `json:"dims"`
}

// Keys lists the parameter keys in declaration order.
func (s Space) Keys() []string {
	keys := make([]string, len(s.Dims))
	for i, d := range s.Dims {
		keys[i] = d.Key
	}
	return keys
}

// Dim returns the dimension named key.
func (s Space) Dim(key string) (Dim, bool) {
	for _, d := range s.Dims {
		if d.Key == key {
			return d, true
		}
	}
	return Dim{}, false
}

// Defaults returns every dimension's default value.
func (s Space) Defaults() domain.Params {
	p := make(domain.Params, len(s.Dims))
	for _, d := range s.Dims {
		p[d.Key] = d.Default
	}
	return p
}

// Sample draws one value per dimension.
func (s Space) Sample(rng *rand.Rand) domain.Params {
	p := make(domain.Params, len(s.Dims))
	for _, d := range s.Dims {
		p[d.Key] = d.Sample(rng)
	}
	return p
}

// Validate checks that every key of p belongs to s and lies within its dimension.
func (s Space) Validate(p domain.Params) error {
	var errs []error
	for _, k := range sortedKeys(p) {
		d, ok := s.Dim(k)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s has no parameter %q", ErrOutOfSpace, s.Env, k))
			continue
		}
		if !d.Contains(p[k]) {
			errs = append(errs, fmt.Errorf("%w: %s=%v", ErrOutOfSpace, k, p[k]))
		}
	}
	return errors.Join(errs...)
}

// Merge returns the defaults overridden by p.
func (s Space) Merge(p domain.Params) domain.Params {
	out := s.Defaults()
	for k, v := range p {
		out[k] = v
	}
	return out
}

func sortedKeys(p domain.Params) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
