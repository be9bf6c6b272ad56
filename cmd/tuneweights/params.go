// Package main searches for cost/density weights that produce good
// lane-formation behavior in the two-opposing-groups scenario.
package main

import (
	"github.com/error323/continuumcrowds/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the set of all optimizable parameters: the per-group
// unit-cost weights and the three global density thresholds.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "alpha", Min: 0.1, Max: 5.0, Default: 1.0},
			{Name: "beta", Min: 0.0, Max: 3.0, Default: 0.2},
			{Name: "gamma", Min: 0.0, Max: 6.0, Default: 2.0},
			{Name: "rho_bar", Min: 0.01, Max: 0.3, Default: 0.05},
			{Name: "rho_min", Min: 0.02, Max: 0.5, Default: 0.1},
			{Name: "rho_max", Min: 0.3, Max: 2.0, Default: 0.9},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg's cost and density
// sections, then re-finalizes cfg (§ config.Finalize) so Derived reflects
// the new values. Returns an error if the resulting config is invalid (most
// commonly rho_min crossing rho_max somewhere in the search space) — the
// caller treats that as a failed evaluation, not a program error.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	i := 0

	cfg.Cost.Alpha = clamped[i]
	i++
	cfg.Cost.Beta = clamped[i]
	i++
	cfg.Cost.Gamma = clamped[i]
	i++
	cfg.Density.RhoBar = clamped[i]
	i++
	cfg.Density.RhoMin = clamped[i]
	i++
	cfg.Density.RhoMax = clamped[i]

	return cfg.Finalize()
}
