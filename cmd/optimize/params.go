package main

import (
	"github.com/pthm-cable/trackrunner/neural"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the weights and biases of a linear driving policy,
// in the flat layout neural.NewLinearPolicy expects.
type ParamVector struct {
	Inputs int
	Specs  []ParamSpec
}

// NewParamVector creates bounded parameters for a policy over inputs observations.
// The acceleration bias defaults to a gentle forward throttle.
func NewParamVector(inputs int, bound float64) *ParamVector {
	specs := make([]ParamSpec, 0, neural.LinearParamCount(inputs))
	for _, out := range neural.OutputDescriptors() {
		for _, in := range neural.InputDescriptors(inputs) {
			specs = append(specs, ParamSpec{Name: out.ID + "_" + in.ID, Min: -bound, Max: bound})
		}
	}
	specs = append(specs,
		ParamSpec{Name: "acc_bias", Min: -bound, Max: bound, Default: min(0.5, bound)},
		ParamSpec{Name: "steer_bias", Min: -bound, Max: bound},
	)
	return &ParamVector{Inputs: inputs, Specs: specs}
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
		clamped[i] = max(spec.Min, min(spec.Max, v[i]))
	}
	return clamped
}

// Policy builds the clamped linear policy for a raw parameter vector.
func (pv *ParamVector) Policy(values []float64) (*neural.LinearPolicy, error) {
	return neural.NewLinearPolicy(pv.Inputs, pv.Clamp(values))
}
