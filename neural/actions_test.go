package neural

import (
	"math"
	"testing"
)

func TestCenteredMapping(t *testing.T) {
	m := CenteredMapping{DeadZone: 0.1}

	tests := []struct {
		name      string
		outputs   []float64
		wantAcc   float64
		wantSteer float64
	}{
		{"full throttle left", []float64{1, 0}, 1, -1},
		{"full brake right", []float64{0, 1}, -1, 1},
		{"neutral", []float64{0.5, 0.5}, 0, 0},
		{"inside dead zone", []float64{0.54, 0.5}, 0, 0},
		{"outside dead zone", []float64{0.6, 0.75}, 0.2, 0.5},
		{"missing outputs", nil, 0, 0},
		{"nan output", []float64{math.NaN(), 0.5}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := m.Map(tt.outputs)
			if math.Abs(a.Acceleration-tt.wantAcc) > 1e-9 {
				t.Errorf("Acceleration = %v, want %v", a.Acceleration, tt.wantAcc)
			}
			if math.Abs(a.Steer-tt.wantSteer) > 1e-9 {
				t.Errorf("Steer = %v, want %v", a.Steer, tt.wantSteer)
			}
		})
	}
}

func TestPilotAct(t *testing.T) {
	pilot, err := NewPilot(NewDenseBrainGenome(1, testInputs, testOutputs, testRNG()), CenteredMapping{DeadZone: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	a, err := pilot.Act(make([]float64, testInputs))
	if err != nil {
		t.Fatal(err)
	}
	if a.Acceleration < -1 || a.Acceleration > 1 || a.Steer < -1 || a.Steer > 1 {
		t.Errorf("action %+v outside [-1, 1]", a)
	}

	if _, err := pilot.Act(make([]float64, 3)); err == nil {
		t.Error("expected error for short observation")
	}
}
