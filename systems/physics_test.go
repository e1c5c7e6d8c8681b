package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/trackrunner/components"
)

func TestMaxSteer(t *testing.T) {
	spec := testVehicle()

	tests := []struct {
		name  string
		speed float64
		want  float64
	}{
		{"standstill", 0, 0.4},
		{"half speed", 0.25, 0.4 * 0.6},
		{"top speed", 0.5, 0.4 * 0.2},
		{"negative speed uses magnitude", -0.5, 0.4 * 0.2},
		{"beyond top speed floors at zero", 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxSteer(spec, tt.speed)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("MaxSteer(%v) = %v, want %v", tt.speed, got, tt.want)
			}
		})
	}
}

func TestMaxSteerMonotonic(t *testing.T) {
	spec := testVehicle()
	prev := MaxSteer(spec, 0)
	for v := 0.0; v <= 2*spec.MaxSpeed; v += 0.001 {
		got := MaxSteer(spec, v)
		if got < 0 {
			t.Fatalf("MaxSteer(%v) = %v, negative", v, got)
		}
		if got > prev+1e-15 {
			t.Fatalf("MaxSteer increased at v=%v: %v > %v", v, got, prev)
		}
		if mirrored := MaxSteer(spec, -v); mirrored != got {
			t.Fatalf("MaxSteer(-%v) = %v, want %v", v, mirrored, got)
		}
		prev = got
	}
}

func TestStepFrictionDecay(t *testing.T) {
	spec := testVehicle()

	for _, dt := range []float64{0.001, 0.01, 0.1, 0.3} {
		s := components.VehicleState{VX: 0.3}
		for i := 0; i < 500; i++ {
			next := Step(s, spec, dt, 0, 0)
			if next.VX > s.VX {
				t.Fatalf("dt=%v step %d: speed grew %v -> %v", dt, i, s.VX, next.VX)
			}
			if next.VX < 0 {
				t.Fatalf("dt=%v step %d: speed reversed to %v", dt, i, next.VX)
			}
			s = next
		}
		if s.VX >= 0.3 {
			t.Errorf("dt=%v: speed did not decay, got %v", dt, s.VX)
		}
	}
}

func TestStepStationaryStaysAtRest(t *testing.T) {
	spec := testVehicle()
	s := components.VehicleState{X: 0.5, Y: 0.5, Heading: 1}
	for i := 0; i < 100; i++ {
		s = Step(s, spec, 0.01, 0, 0)
	}
	if s.VX != 0 || s.X != 0.5 || s.Y != 0.5 || s.Heading != 1 {
		t.Errorf("stationary vehicle moved: %+v", s)
	}
	if math.Abs(s.Elapsed-1) > 1e-9 {
		t.Errorf("Elapsed = %v, want 1", s.Elapsed)
	}
}

func TestStepSpeedLimits(t *testing.T) {
	spec := testVehicle()

	s := components.VehicleState{}
	for i := 0; i < 1000; i++ {
		s = Step(s, spec, 0.01, 1e6, 0)
	}
	if s.VX != spec.MaxSpeed {
		t.Errorf("speed = %v, want capped at %v", s.VX, spec.MaxSpeed)
	}

	s = Step(s, spec, 0.01, -1e6, 0)
	if s.VX < 0 {
		t.Errorf("hard brake reversed the vehicle: %v", s.VX)
	}
	if s.VX >= spec.MaxSpeed {
		t.Errorf("hard brake did not slow the vehicle: %v", s.VX)
	}
}

func TestStepStraightLine(t *testing.T) {
	spec := testVehicle()
	s := components.VehicleState{X: 0.2, Y: 0.5}
	for i := 0; i < 50; i++ {
		s = Step(s, spec, 0.01, 1, 0)
	}

	if s.Y != 0.5 || s.Heading != 0 {
		t.Errorf("straight drive drifted: y=%v heading=%v", s.Y, s.Heading)
	}
	if s.X <= 0.2 {
		t.Errorf("x did not advance: %v", s.X)
	}
	if math.Abs(s.Distance-(s.X-0.2)) > 1e-12 {
		t.Errorf("Distance = %v, want %v", s.Distance, s.X-0.2)
	}
}

func TestStepSteeringClampedBySpeed(t *testing.T) {
	spec := testVehicle()
	dt := 0.01
	s := components.VehicleState{VX: spec.MaxSpeed}

	got := Step(s, spec, dt, 1, 100)

	steer := MaxSteer(spec, spec.MaxSpeed)
	want := spec.MaxSpeed * math.Sin(steer) / spec.Length * dt
	if math.Abs(got.Heading-want) > 1e-12 {
		t.Errorf("Heading = %v, want %v", got.Heading, want)
	}

	left := Step(s, spec, dt, 1, -100)
	if math.Abs(left.Heading+want) > 1e-12 {
		t.Errorf("negative steer Heading = %v, want %v", left.Heading, -want)
	}
}

func TestStepNonFiniteInputs(t *testing.T) {
	spec := testVehicle()
	s := components.VehicleState{X: 0.5, Y: 0.5, VX: 0.2}

	want := Step(s, spec, 0.01, 0, 0)
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := Step(s, spec, 0.01, bad, bad)
		if got != want {
			t.Errorf("Step with %v = %+v, want %+v", bad, got, want)
		}
	}
}

func TestStepDeterministic(t *testing.T) {
	spec := testVehicle()
	run := func() components.VehicleState {
		s := components.VehicleState{X: 0.3, Y: 0.3}
		for i := 0; i < 300; i++ {
			s = Step(s, spec, 0.01, math.Sin(float64(i)), math.Cos(float64(i)*0.3))
		}
		return s
	}
	if a, b := run(), run(); a != b {
		t.Errorf("Step not deterministic: %+v vs %+v", a, b)
	}
}

func BenchmarkStep(b *testing.B) {
	spec := testVehicle()
	s := components.VehicleState{X: 0.5, Y: 0.5, VX: 0.2}
	for i := 0; i < b.N; i++ {
		s = Step(s, spec, 0.01, 0.5, 0.1)
	}
}
