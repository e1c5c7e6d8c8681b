package neural

import (
	"math"

	"github.com/pthm-cable/trackrunner/components"
)

// ActionMapper turns raw network outputs into a driving command.
type ActionMapper interface {
	Map(outputs []float64) components.Action
}

// CenteredMapping reads two sigmoid outputs in [0,1] as signed commands:
// acceleration = 2*o0-1 and steer = 2*o1-1. Acceleration inside the dead
// zone is zero so the vehicle can coast under friction.
type CenteredMapping struct {
	DeadZone float64
}

// Map implements ActionMapper. Missing outputs read as 0.5 (neutral).
func (m CenteredMapping) Map(outputs []float64) components.Action {
	acc := 2*outputAt(outputs, 0) - 1
	if math.Abs(acc) < m.DeadZone {
		acc = 0
	}
	return components.Action{
		Acceleration: acc,
		Steer:        2*outputAt(outputs, 1) - 1,
	}
}

func outputAt(outputs []float64, i int) float64 {
	if i >= len(outputs) || math.IsNaN(outputs[i]) {
		return 0.5
	}
	return outputs[i]
}
