package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/trackrunner/components"
	"github.com/pthm-cable/trackrunner/systems"
)

// ErrEpisodeOver is returned when stepping an episode that already terminated.
var ErrEpisodeOver = errors.New("episode already terminated")

// cancelCheckInterval is how many steps Run takes between context checks.
const cancelCheckInterval = 1024

// Result is the fitness signal and final diagnostics of one episode.
type Result struct {
	Distance float64
	Elapsed  float64
	Phase    components.Phase
	Steps    int
	State    components.VehicleState
	Contacts []components.Cell
}

// Fitness returns the distance traveled.
func (r Result) Fitness() float64 {
	return r.Distance
}

// LogValue implements slog.LogValuer for structured logging.
func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("phase", r.Phase.String()),
		slog.Float64("distance", r.Distance),
		slog.Float64("elapsed", r.Elapsed),
		slog.Int("steps", r.Steps),
		slog.Float64("x", r.State.X),
		slog.Float64("y", r.State.Y),
		slog.Float64("heading", r.State.Heading),
		slog.Int("contacts", len(r.Contacts)),
	)
}

func resultOf(state components.VehicleState, status components.Status) Result {
	return Result{
		Distance: state.Distance,
		Elapsed:  state.Elapsed,
		Phase:    status.Phase,
		Steps:    status.Steps,
		State:    state,
		Contacts: status.Contacts,
	}
}

// advance runs one tick: kinematics, then collision, then timeout.
// Terminal statuses are left untouched.
func advance(grid *systems.Grid, s *Settings, limit int, state *components.VehicleState, status *components.Status, a components.Action) {
	if status.Phase.Terminal() {
		return
	}
	*state = systems.Step(*state, s.Vehicle, s.DT, a.Acceleration, a.Steer)
	status.Steps++

	if hit := systems.CheckCollision(*state, s.Vehicle, grid); hit.Collided {
		status.Phase = components.PhaseCollided
		status.Contacts = hit.Cells
		return
	}
	if state.Elapsed >= s.MaxTime || status.Steps >= limit {
		status.Phase = components.PhaseTimedOut
	}
}

// Episode is one bounded run of a single vehicle on a shared read-only grid.
type Episode struct {
	grid     *systems.Grid
	settings Settings
	limit    int
	state    components.VehicleState
	status   components.Status
	obs      []float64
}

// NewEpisode spawns a vehicle at rest at settings.Spawn.
func NewEpisode(grid *systems.Grid, settings Settings) (*Episode, error) {
	if grid == nil {
		return nil, fmt.Errorf("new episode: nil grid")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Episode{
		grid:     grid,
		settings: settings,
		limit:    settings.stepLimit(),
		state:    settings.spawnState(),
		obs:      make([]float64, systems.ObservationSize(settings.Sensors)),
	}, nil
}

// State returns the current vehicle pose and counters.
func (e *Episode) State() components.VehicleState {
	return e.state
}

// Phase returns the current lifecycle phase.
func (e *Episode) Phase() components.Phase {
	return e.status.Phase
}

// Steps returns the number of ticks taken.
func (e *Episode) Steps() int {
	return e.status.Steps
}

// Contacts returns the wall cells touched on the terminal tick, if any.
func (e *Episode) Contacts() []components.Cell {
	return e.status.Contacts
}

// Observe returns the observation for the current state.
// The slice is reused by the next call.
func (e *Episode) Observe() []float64 {
	e.obs = systems.Observe(e.state, e.settings.Sensors, e.grid, e.obs)
	return e.obs
}

// Advance applies one action and returns the resulting phase.
func (e *Episode) Advance(a components.Action) (components.Phase, error) {
	if e.status.Phase.Terminal() {
		return e.status.Phase, ErrEpisodeOver
	}
	advance(e.grid, &e.settings, e.limit, &e.state, &e.status, a)
	return e.status.Phase, nil
}

// Result returns the episode outcome so far.
func (e *Episode) Result() Result {
	return resultOf(e.state, e.status)
}

// Run drives the episode with ctrl until it terminates.
// A controller error or context cancellation stops the run and is returned
// with the partial result.
func (e *Episode) Run(ctx context.Context, ctrl Controller) (Result, error) {
	for !e.status.Phase.Terminal() {
		if e.status.Steps%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return e.Result(), err
			}
		}
		action, err := ctrl.Act(e.Observe())
		if err != nil {
			return e.Result(), fmt.Errorf("controller at step %d: %w", e.status.Steps, err)
		}
		advance(e.grid, &e.settings, e.limit, &e.state, &e.status, action)
	}
	return e.Result(), nil
}

// RunEpisode runs a fresh episode with ctrl.
func RunEpisode(ctx context.Context, grid *systems.Grid, settings Settings, ctrl Controller) (Result, error) {
	ep, err := NewEpisode(grid, settings)
	if err != nil {
		return Result{}, err
	}
	return ep.Run(ctx, ctrl)
}
