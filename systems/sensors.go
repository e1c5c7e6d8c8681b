package systems

import (
	"math"

	"github.com/pthm-cable/trackrunner/components"
)

// ObservationSize returns the observation length for the given sensors:
// forward speed, heading, then one distance per ray.
func ObservationSize(spec components.SensorSpec) int {
	return spec.RayCount + 2
}

// RayAngle returns the absolute angle of ray i.
// Rays are spaced fov/rayCount apart, offset by the integer half count.
func RayAngle(heading float64, spec components.SensorSpec, i int) float64 {
	return heading + float64(i-spec.RayCount/2)*spec.FieldOfView/float64(spec.RayCount)
}

// CastRays appends one wall distance per ray to dst and returns it.
func CastRays(s components.VehicleState, spec components.SensorSpec, grid *Grid, dst []float64) []float64 {
	steps := int(math.Floor(spec.MaxRange/spec.StepSize + 1e-9))
	for i := 0; i < spec.RayCount; i++ {
		dst = append(dst, castRay(s.X, s.Y, RayAngle(s.Heading, spec, i), spec, steps, grid))
	}
	return dst
}

// castRay marches from (x, y) in fixed steps and returns the distance of the
// first sample inside a wall cell, or exactly MaxRange when none is hit.
func castRay(x, y, angle float64, spec components.SensorSpec, steps int, grid *Grid) float64 {
	dx, dy := math.Cos(angle), math.Sin(angle)
	for k := 1; k <= steps; k++ {
		d := float64(k) * spec.StepSize
		if d > spec.MaxRange {
			break
		}
		if grid.IsWallAt(x+d*dx, y+d*dy) {
			return d
		}
	}
	return spec.MaxRange
}

// Observe writes the controller input vector into dst (reusing its storage):
// (forward speed, heading wrapped to (-Pi, Pi], distance_0 … distance_{n-1}).
func Observe(s components.VehicleState, spec components.SensorSpec, grid *Grid, dst []float64) []float64 {
	dst = append(dst[:0], s.Speed(), wrapAngle(s.Heading))
	return CastRays(s, spec, grid, dst)
}
