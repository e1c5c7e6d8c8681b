package systems

import (
	"math"

	"github.com/pthm-cable/trackrunner/components"
)

// testVehicle mirrors the default vehicle section of config/defaults.yaml.
func testVehicle() components.VehicleSpec {
	return components.VehicleSpec{
		Length:              0.02,
		Width:               0.01,
		MaxSpeed:            0.5,
		MaxAcceleration:     1.2,
		BrakeDeceleration:   30,
		MaxSteerAngle:       0.4,
		FrictionCoefficient: 10,
		AccelerationGain:    1.2,
		SteerGain:           0.4,
	}
}

func testSensors() components.SensorSpec {
	return components.SensorSpec{
		FieldOfView: math.Pi / 4,
		RayCount:    10,
		MaxRange:    0.2,
		StepSize:    0.01,
	}
}

// wallColumn returns every cell of column x in a size×size grid.
func wallColumn(size, x int) []components.Cell {
	cells := make([]components.Cell, size)
	for y := range cells {
		cells[y] = components.Cell{X: x, Y: y}
	}
	return cells
}
