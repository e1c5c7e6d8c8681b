package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/trackrunner/components"
	"github.com/pthm-cable/trackrunner/config"
)

// ErrInvalidSettings is wrapped by every Settings.Validate failure.
var ErrInvalidSettings = errors.New("invalid episode settings")

// Settings holds everything one episode needs besides the grid.
// Episodes never read global configuration.
type Settings struct {
	Vehicle  components.VehicleSpec
	Sensors  components.SensorSpec
	DT       float64 // seconds per step
	MaxTime  float64 // simulated seconds before TimedOut
	MaxSteps int     // hard step bound; 0 = ceil(MaxTime/DT)
	Spawn    components.Pose
}

// SettingsFromConfig builds episode settings from the loaded config with the given spawn.
func SettingsFromConfig(cfg *config.Config, spawn components.Pose) Settings {
	return Settings{
		Vehicle:  cfg.Vehicle,
		Sensors:  cfg.Sensors,
		DT:       cfg.Episode.DT,
		MaxTime:  cfg.Episode.MaxTime,
		MaxSteps: cfg.Derived.MaxSteps,
		Spawn:    spawn,
	}
}

// Validate rejects settings that would make an episode unbounded or meaningless.
func (s Settings) Validate() error {
	switch {
	case !(s.DT > 0) || math.IsInf(s.DT, 0):
		return fmt.Errorf("%w: dt must be positive and finite, got %v", ErrInvalidSettings, s.DT)
	case !(s.MaxTime > 0) || math.IsInf(s.MaxTime, 0):
		return fmt.Errorf("%w: max time must be positive and finite, got %v", ErrInvalidSettings, s.MaxTime)
	case s.MaxSteps < 0:
		return fmt.Errorf("%w: max steps must not be negative, got %d", ErrInvalidSettings, s.MaxSteps)
	case s.Sensors.RayCount <= 0:
		return fmt.Errorf("%w: ray count must be positive, got %d", ErrInvalidSettings, s.Sensors.RayCount)
	case !(s.Sensors.StepSize > 0) || !(s.Sensors.MaxRange > 0):
		return fmt.Errorf("%w: sensor step size and range must be positive", ErrInvalidSettings)
	case !(s.Vehicle.MaxSpeed > 0):
		return fmt.Errorf("%w: vehicle max speed must be positive", ErrInvalidSettings)
	}
	return nil
}

// stepLimit returns the step bound, deriving it from MaxTime when unset.
func (s Settings) stepLimit() int {
	if s.MaxSteps > 0 {
		return s.MaxSteps
	}
	return int(math.Ceil(s.MaxTime/s.DT - 1e-9))
}

// spawnState returns a fresh vehicle at rest at the spawn pose.
func (s Settings) spawnState() components.VehicleState {
	return components.VehicleState{X: s.Spawn.X, Y: s.Spawn.Y, Heading: s.Spawn.Heading}
}
