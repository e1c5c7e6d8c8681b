package neural

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/trackrunner/components"
)

// LinearPolicy is a single-layer controller: action = tanh(W*obs + b).
// Row 0 drives acceleration, row 1 steering.
type LinearPolicy struct {
	w   *mat.Dense
	b   *mat.VecDense
	out *mat.VecDense
}

// linearOutputs is the number of policy rows (acceleration, steer).
const linearOutputs = 2

// LinearParamCount returns the number of parameters for a policy over inputs observations.
func LinearParamCount(inputs int) int {
	return linearOutputs * (inputs + 1)
}

// NewLinearPolicy builds a policy from a flat parameter vector laid out as
// the row-major weight matrix followed by the biases.
func NewLinearPolicy(inputs int, params []float64) (*LinearPolicy, error) {
	if inputs <= 0 {
		return nil, fmt.Errorf("linear policy: inputs must be positive, got %d", inputs)
	}
	if len(params) != LinearParamCount(inputs) {
		return nil, fmt.Errorf("linear policy: want %d params for %d inputs, got %d",
			LinearParamCount(inputs), inputs, len(params))
	}
	n := linearOutputs * inputs
	w := make([]float64, n)
	copy(w, params[:n])
	b := make([]float64, linearOutputs)
	copy(b, params[n:])

	return &LinearPolicy{
		w:   mat.NewDense(linearOutputs, inputs, w),
		b:   mat.NewVecDense(linearOutputs, b),
		out: mat.NewVecDense(linearOutputs, nil),
	}, nil
}

// Inputs returns the observation length the policy expects.
func (p *LinearPolicy) Inputs() int {
	_, c := p.w.Dims()
	return c
}

// Params returns a copy of the flat parameter vector.
func (p *LinearPolicy) Params() []float64 {
	r, c := p.w.Dims()
	params := make([]float64, 0, r*c+linearOutputs)
	for i := 0; i < r; i++ {
		params = append(params, p.w.RawRowView(i)...)
	}
	return append(params, p.b.RawVector().Data...)
}

// Act implements the episode controller contract. Not safe for concurrent use.
func (p *LinearPolicy) Act(obs []float64) (components.Action, error) {
	if len(obs) != p.Inputs() {
		return components.Action{}, fmt.Errorf("linear policy: expected %d inputs, got %d", p.Inputs(), len(obs))
	}
	p.out.MulVec(p.w, mat.NewVecDense(len(obs), obs))
	p.out.AddVec(p.out, p.b)
	return components.Action{
		Acceleration: math.Tanh(p.out.AtVec(0)),
		Steer:        math.Tanh(p.out.AtVec(1)),
	}, nil
}

// Clone returns an independent copy for use on another goroutine.
func (p *LinearPolicy) Clone() *LinearPolicy {
	c, _ := NewLinearPolicy(p.Inputs(), p.Params())
	return c
}

type linearPolicyFile struct {
	Inputs int       `json:"inputs"`
	Params []float64 `json:"params"`
}

// Save writes the policy as JSON.
func (p *LinearPolicy) Save(path string) error {
	data, err := json.MarshalIndent(linearPolicyFile{Inputs: p.Inputs(), Params: p.Params()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding policy: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing policy: %w", err)
	}
	return nil
}

// LoadLinearPolicy reads a policy written by Save.
func LoadLinearPolicy(path string) (*LinearPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	var f linearPolicyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding policy %s: %w", path, err)
	}
	return NewLinearPolicy(f.Inputs, f.Params)
}
