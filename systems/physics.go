// Package systems contains the pure simulation math: occupancy grid, vehicle
// kinematics, collision detection and sensor ray casting.
package systems

import (
	"math"

	"github.com/pthm-cable/trackrunner/components"
)

// steerSpeedFalloff is the fraction of the steering range lost at top speed.
const steerSpeedFalloff = 0.8

// MaxSteer returns the steering bound at the given speed.
// It shrinks linearly with |speed| and is floored at 0.
func MaxSteer(spec components.VehicleSpec, speed float64) float64 {
	if spec.MaxSpeed <= 0 {
		return math.Max(0, spec.MaxSteerAngle)
	}
	return math.Max(0, spec.MaxSteerAngle*(1-steerSpeedFalloff*math.Abs(speed)/spec.MaxSpeed))
}

// Step integrates one tick of the bicycle model and returns the new state.
// rawAcceleration and rawSteer are scaled by the vehicle gains and clamped;
// non-finite inputs count as zero. The vehicle never moves backward.
func Step(s components.VehicleState, spec components.VehicleSpec, dt, rawAcceleration, rawSteer float64) components.VehicleState {
	v := s.VX
	maxSteer := MaxSteer(spec, v)

	acc := clamp(finiteOr(rawAcceleration, 0)*spec.AccelerationGain, -spec.BrakeDeceleration, spec.MaxAcceleration)
	steer := clamp(finiteOr(rawSteer, 0)*spec.SteerGain, -maxSteer, maxSteer)

	// Coasting: velocity-proportional friction
	if acc == 0 {
		acc -= v * spec.FrictionCoefficient * dt
	}

	v = clamp(v+acc*dt, 0, spec.MaxSpeed)

	// Turn about the front axle: radius = length / sin(steer)
	var angularVel float64
	if steer != 0 {
		turningRadius := spec.Length / math.Sin(steer)
		angularVel = v / turningRadius
	}

	s.X += v * math.Cos(s.Heading) * dt
	s.Y += v * math.Sin(s.Heading) * dt
	s.Heading += angularVel * dt
	s.VX = v
	s.VY = 0
	s.Distance += v * dt
	s.Elapsed += dt

	return s
}
