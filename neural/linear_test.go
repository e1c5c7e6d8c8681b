package neural

import (
	"math"
	"path/filepath"
	"testing"
)

func TestNewLinearPolicyValidation(t *testing.T) {
	if _, err := NewLinearPolicy(0, nil); err == nil {
		t.Error("expected error for zero inputs")
	}
	if _, err := NewLinearPolicy(3, make([]float64, 5)); err == nil {
		t.Error("expected error for wrong parameter count")
	}
}

func TestLinearPolicyAct(t *testing.T) {
	// acc = tanh(1*x0 + 0.5), steer = tanh(-2*x2)
	params := []float64{
		1, 0, 0,
		0, 0, -2,
		0.5, 0,
	}
	p, err := NewLinearPolicy(3, params)
	if err != nil {
		t.Fatal(err)
	}

	a, err := p.Act([]float64{0.25, 9, 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if want := math.Tanh(0.75); math.Abs(a.Acceleration-want) > 1e-12 {
		t.Errorf("Acceleration = %v, want %v", a.Acceleration, want)
	}
	if want := math.Tanh(-0.2); math.Abs(a.Steer-want) > 1e-12 {
		t.Errorf("Steer = %v, want %v", a.Steer, want)
	}

	if _, err := p.Act([]float64{1}); err == nil {
		t.Error("expected error for short observation")
	}
}

func TestLinearPolicyParamsRoundTrip(t *testing.T) {
	params := make([]float64, LinearParamCount(4))
	for i := range params {
		params[i] = float64(i) - 3.5
	}
	p, err := NewLinearPolicy(4, params)
	if err != nil {
		t.Fatal(err)
	}

	// The policy keeps its own copy
	params[0] = 100
	if got := p.Params(); got[0] != -3.5 {
		t.Errorf("policy aliased the caller's slice: %v", got[0])
	}

	path := filepath.Join(t.TempDir(), "policy.json")
	if err := p.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadLinearPolicy(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Inputs() != 4 {
		t.Errorf("Inputs = %d, want 4", loaded.Inputs())
	}
	want := p.Params()
	for i, v := range loaded.Params() {
		if v != want[i] {
			t.Errorf("param %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestLoadLinearPolicyMissing(t *testing.T) {
	if _, err := LoadLinearPolicy(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error")
	}
}
