package game

import (
	"context"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/trackrunner/components"
	"github.com/pthm-cable/trackrunner/systems"
	"github.com/pthm-cable/trackrunner/telemetry"
)

// racerSnapshot captures read-only state for parallel processing.
type racerSnapshot struct {
	Entity ecs.Entity
	Slot   int
	State  components.VehicleState
	Status components.Status
}

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	State  components.VehicleState
	Status components.Status
	Err    error
}

// Race steps one vehicle per controller in lockstep on a shared grid.
// Every vehicle is an entity holding VehicleState, Driver and Status.
type Race struct {
	grid        *systems.Grid
	settings    Settings
	limit       int
	controllers []Controller
	pool        *WorkerPool
	ownPool     bool
	perf        *telemetry.PerfCollector

	world       *ecs.World
	racerMapper *ecs.Map3[components.VehicleState, components.Driver, components.Status]
	racerFilter *ecs.Filter3[components.VehicleState, components.Driver, components.Status]
	stateMap    *ecs.Map1[components.VehicleState]
	statusMap   *ecs.Map1[components.Status]

	snapshots []racerSnapshot
	intents   []intent
	scratch   [][]float64 // per-worker observation buffers
	ticks     int
}

// NewRace spawns one vehicle per controller at settings.Spawn.
// A nil pool runs every tick on the calling goroutine.
func NewRace(grid *systems.Grid, settings Settings, controllers []Controller, pool *WorkerPool) (*Race, error) {
	if grid == nil {
		return nil, fmt.Errorf("new race: nil grid")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	ownPool := false
	if pool == nil {
		pool = NewWorkerPool(1)
		ownPool = true
	}

	world := ecs.NewWorld()
	r := &Race{
		grid:        grid,
		settings:    settings,
		limit:       settings.stepLimit(),
		controllers: controllers,
		pool:        pool,
		ownPool:     ownPool,
		world:       world,
		racerMapper: ecs.NewMap3[components.VehicleState, components.Driver, components.Status](world),
		racerFilter: ecs.NewFilter3[components.VehicleState, components.Driver, components.Status](world),
		stateMap:    ecs.NewMap1[components.VehicleState](world),
		statusMap:   ecs.NewMap1[components.Status](world),
		snapshots:   make([]racerSnapshot, 0, len(controllers)),
		intents:     make([]intent, 0, len(controllers)),
		scratch:     make([][]float64, pool.Workers()),
	}

	obsSize := systems.ObservationSize(settings.Sensors)
	for i := range r.scratch {
		r.scratch[i] = make([]float64, obsSize)
	}

	for slot := range controllers {
		state := settings.spawnState()
		driver := components.Driver{Slot: slot}
		status := components.Status{Phase: components.PhaseRunning}
		r.racerMapper.NewEntity(&state, &driver, &status)
	}
	return r, nil
}

// SetPerf attaches a tick timing collector. Nil disables timing.
func (r *Race) SetPerf(p *telemetry.PerfCollector) {
	r.perf = p
}

// Ticks returns the number of lockstep ticks run so far.
func (r *Race) Ticks() int {
	return r.ticks
}

// Close stops the worker pool if the race created it.
func (r *Race) Close() {
	if r.ownPool {
		r.pool.Stop()
	}
}

// Run ticks until every vehicle has terminated and returns results indexed by slot.
// The first controller error (lowest slot) aborts the race.
func (r *Race) Run(ctx context.Context) ([]Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return r.Results(), err
		}
		running, err := r.Tick()
		if err != nil {
			return r.Results(), err
		}
		if running == 0 {
			return r.Results(), nil
		}
	}
}

// Tick advances every running vehicle by one step and returns how many
// vehicles are still running afterwards.
func (r *Race) Tick() (int, error) {
	r.perf.StartTick()
	defer r.perf.EndTick()

	// Phase A: Build snapshots (single-threaded)
	r.perf.StartPhase(telemetry.PhaseSnapshot)
	r.snapshots = r.snapshots[:0]
	query := r.racerFilter.Query()
	for query.Next() {
		state, driver, status := query.Get()
		if status.Phase.Terminal() {
			continue
		}
		r.snapshots = append(r.snapshots, racerSnapshot{
			Entity: query.Entity(),
			Slot:   driver.Slot,
			State:  *state,
			Status: *status,
		})
	}

	n := len(r.snapshots)
	if n == 0 {
		return 0, nil
	}
	if cap(r.intents) < n {
		r.intents = make([]intent, n)
	}
	r.intents = r.intents[:n]

	// Phase B: Compute (parallel above the threshold)
	r.perf.StartPhase(telemetry.PhaseCompute)
	r.pool.Run(n, r.computeChunk)

	// Phase C: Apply intents (single-threaded, preserves determinism)
	r.perf.StartPhase(telemetry.PhaseApply)
	r.ticks++
	return r.applyIntents()
}

// computeChunk senses, decides and integrates snapshots [i0, i1).
func (r *Race) computeChunk(i0, i1, worker int) {
	obs := r.scratch[worker]
	for i := i0; i < i1; i++ {
		snap := &r.snapshots[i]
		in := &r.intents[i]
		in.State, in.Status, in.Err = snap.State, snap.Status, nil

		obs = systems.Observe(snap.State, r.settings.Sensors, r.grid, obs)
		action, err := r.controllers[snap.Slot].Act(obs)
		if err != nil {
			in.Err = fmt.Errorf("slot %d at step %d: %w", snap.Slot, snap.Status.Steps, err)
			continue
		}
		advance(r.grid, &r.settings, r.limit, &in.State, &in.Status, action)
	}
	r.scratch[worker] = obs
}

// applyIntents writes computed results back to the ECS components.
func (r *Race) applyIntents() (int, error) {
	var firstErr error
	firstSlot := len(r.controllers)
	running := 0

	for i, snap := range r.snapshots {
		in := &r.intents[i]
		if in.Err != nil {
			if snap.Slot < firstSlot {
				firstErr, firstSlot = in.Err, snap.Slot
			}
			continue
		}

		state := r.stateMap.Get(snap.Entity)
		status := r.statusMap.Get(snap.Entity)
		if state == nil || status == nil {
			continue
		}
		*state = in.State
		*status = in.Status
		if !status.Phase.Terminal() {
			running++
		}
	}
	return running, firstErr
}

// Results returns the current outcome of every vehicle, indexed by slot.
func (r *Race) Results() []Result {
	results := make([]Result, len(r.controllers))
	query := r.racerFilter.Query()
	for query.Next() {
		state, driver, status := query.Get()
		results[driver.Slot] = resultOf(*state, *status)
	}
	return results
}

// RunRace runs one race to completion and releases its resources.
func RunRace(ctx context.Context, grid *systems.Grid, settings Settings, controllers []Controller, pool *WorkerPool) ([]Result, error) {
	race, err := NewRace(grid, settings, controllers, pool)
	if err != nil {
		return nil, err
	}
	defer race.Close()
	return race.Run(ctx)
}
