// Package components defines the data types shared by the simulation systems.
package components

import "fmt"

// VehicleSpec holds the constant physical parameters of a vehicle.
// All lengths are in normalized track units (the track spans [0,1]²).
type VehicleSpec struct {
	Length              float64 `yaml:"length"`
	Width               float64 `yaml:"width"`
	MaxSpeed            float64 `yaml:"max_speed"`
	MaxAcceleration     float64 `yaml:"max_acceleration"`
	BrakeDeceleration   float64 `yaml:"brake_deceleration"`
	MaxSteerAngle       float64 `yaml:"max_steer_angle"`
	FrictionCoefficient float64 `yaml:"friction_coefficient"`
	AccelerationGain    float64 `yaml:"acceleration_gain"`
	SteerGain           float64 `yaml:"steer_gain"`

	// ReferenceOffset shifts the collision rectangle centre forward along the
	// heading, away from the kinematic reference point.
	ReferenceOffset float64 `yaml:"reference_offset"`
}

// VehicleState is the mutable state of one simulated vehicle.
// Velocity is longitudinal only: VY stays zero.
type VehicleState struct {
	X, Y     float64
	VX, VY   float64
	Heading  float64 // radians
	Distance float64 // distance traveled
	Elapsed  float64 // simulated seconds
}

// Speed returns the forward speed.
func (s VehicleState) Speed() float64 {
	return s.VX
}

// SensorSpec configures the distance sensor fan.
type SensorSpec struct {
	FieldOfView float64 `yaml:"field_of_view"` // radians
	RayCount    int     `yaml:"ray_count"`
	MaxRange    float64 `yaml:"max_range"`
	StepSize    float64 `yaml:"step_size"`
}

// Pose is a spawn position and heading.
type Pose struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Heading float64 `yaml:"heading"`
}

// Cell identifies one occupancy grid cell.
type Cell struct {
	X, Y int
}

// Action is a raw control command, before vehicle gains are applied.
type Action struct {
	Acceleration float64
	Steer        float64
}

// Phase is the lifecycle state of an episode.
type Phase uint8

const (
	PhaseRunning Phase = iota
	PhaseCollided
	PhaseTimedOut
)

// Terminal reports whether no further steps are allowed.
func (p Phase) Terminal() bool {
	return p != PhaseRunning
}

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseCollided:
		return "collided"
	case PhaseTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}
