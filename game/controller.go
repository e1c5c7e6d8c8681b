package game

import "github.com/pthm-cable/trackrunner/components"

// Controller maps an observation vector to a raw action.
// A controller instance drives one vehicle; races call it from worker
// goroutines, so it must not be shared between slots.
type Controller interface {
	Act(obs []float64) (components.Action, error)
}

// ControllerFunc adapts a plain function to Controller.
type ControllerFunc func(obs []float64) (components.Action, error)

// Act calls f.
func (f ControllerFunc) Act(obs []float64) (components.Action, error) {
	return f(obs)
}

// ConstantController ignores observations and always returns the same action.
type ConstantController components.Action

// Act returns the fixed action.
func (c ConstantController) Act([]float64) (components.Action, error) {
	return components.Action(c), nil
}
