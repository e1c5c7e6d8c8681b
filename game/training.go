package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/trackrunner/components"
	"github.com/pthm-cable/trackrunner/config"
	"github.com/pthm-cable/trackrunner/neural"
	"github.com/pthm-cable/trackrunner/telemetry"
)

const (
	// perfWindow is the number of race ticks averaged in perf reports.
	perfWindow = 1000
	hallSize   = 10
)

// Trainer evolves driving controllers. Each generation races the whole
// population on the shared track; fitness is distance traveled.
type Trainer struct {
	track    *Track
	settings Settings
	evolver  *neural.Evolver
	mapper   neural.ActionMapper
	pool     *WorkerPool
	out      *telemetry.OutputManager
	perf     *telemetry.PerfCollector
	hall     *telemetry.HallOfFame

	generations int
	best        *Champion
}

// Champion is the best controller seen so far.
type Champion struct {
	Generation int
	Organism   *neural.Organism
	Result     Result
}

// NEATConfig returns the evolution settings for cfg: the optional
// evolution.neat_config file on top of the defaults, shaped to the observation.
func NEATConfig(cfg *config.Config) (*neural.Config, error) {
	inputs, outputs := cfg.Derived.NumInputs, cfg.Derived.NumOutputs
	if cfg.Evolution.NEATConfig == "" {
		nc := neural.DefaultConfig(inputs, outputs)
		nc.Brain.InitialConnectionProb = cfg.Evolution.ConnectionProb
		return nc, nil
	}
	return neural.LoadConfig(cfg.Evolution.NEATConfig, inputs, outputs)
}

// NewTrainer creates the initial population. out may be nil.
func NewTrainer(cfg *config.Config, track *Track, out *telemetry.OutputManager, rng *rand.Rand) (*Trainer, error) {
	settings := SettingsFromConfig(cfg, track.Spawn)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	nc, err := NEATConfig(cfg)
	if err != nil {
		return nil, err
	}
	evolver, err := neural.NewEvolver(nc, cfg.Evolution.Population, rng)
	if err != nil {
		return nil, fmt.Errorf("creating trainer: %w", err)
	}

	return &Trainer{
		track:       track,
		settings:    settings,
		evolver:     evolver,
		mapper:      neural.CenteredMapping{DeadZone: cfg.Actions.DeadZone},
		pool:        NewWorkerPool(cfg.Evolution.Workers),
		out:         out,
		perf:        telemetry.NewPerfCollector(perfWindow),
		hall:        telemetry.NewHallOfFame(hallSize),
		generations: cfg.Evolution.Generations,
	}, nil
}

// Close stops the worker pool.
func (t *Trainer) Close() {
	t.pool.Stop()
}

// Best returns the best controller seen so far, or nil before the first generation.
func (t *Trainer) Best() *Champion {
	return t.best
}

// Hall returns the best per-generation champions so far.
func (t *Trainer) Hall() *telemetry.HallOfFame {
	return t.hall
}

// Run evaluates and breeds for the configured number of generations.
// The last generation is evaluated but not bred.
func (t *Trainer) Run(ctx context.Context) (*Champion, error) {
	for gen := 0; gen < t.generations; gen++ {
		if _, err := t.RunGeneration(ctx); err != nil {
			return t.best, err
		}
		if gen == t.generations-1 {
			break
		}
		if err := t.evolver.Epoch(); err != nil {
			return t.best, fmt.Errorf("generation %d: %w", gen, err)
		}
	}
	if t.best == nil {
		return nil, nil
	}
	slog.Info("training finished",
		"generations", t.generations,
		"best_generation", t.best.Generation,
		"best", t.best.Result,
		"hall_size", t.hall.Size(),
	)
	if err := t.out.WriteHallOfFame(t.hall); err != nil {
		return t.best, err
	}
	if t.out != nil {
		if err := neural.SaveGenome(t.out.Path("champion.genome"), t.best.Organism.Genome); err != nil {
			return t.best, err
		}
	}
	return t.best, nil
}

// RunGeneration races the current population and records its fitness.
func (t *Trainer) RunGeneration(ctx context.Context) (telemetry.GenerationStats, error) {
	start := time.Now()
	gen := t.evolver.Generation()
	pop := t.evolver.Population()

	controllers := make([]Controller, 0, len(pop))
	pilots := make([]*neural.Pilot, 0, len(pop))
	members := make([]*neural.Organism, 0, len(pop))
	for _, org := range pop {
		org.Fitness = 0
		pilot, err := neural.NewPilot(org.Genome, t.mapper)
		if err != nil {
			slog.Warn("skipping unbuildable genome", "generation", gen, "genome", org.Genome.Id, "error", err)
			continue
		}
		controllers = append(controllers, pilot)
		pilots = append(pilots, pilot)
		members = append(members, org)
	}

	race, err := NewRace(t.track.Grid, t.settings, controllers, t.pool)
	if err != nil {
		return telemetry.GenerationStats{}, err
	}
	race.SetPerf(t.perf)
	results, err := race.Run(ctx)
	if err != nil {
		return telemetry.GenerationStats{}, fmt.Errorf("generation %d: %w", gen, err)
	}

	stats := telemetry.GenerationStats{
		Generation: gen,
		Population: len(pop),
		Species:    t.evolver.SpeciesCount(),
		Ticks:      race.Ticks(),
	}

	bestSlot := -1
	for slot, res := range results {
		members[slot].Fitness = res.Fitness()
		switch res.Phase {
		case components.PhaseCollided:
			stats.Collided++
		case components.PhaseTimedOut:
			stats.TimedOut++
		}
		if bestSlot < 0 || res.Fitness() > results[bestSlot].Fitness() {
			bestSlot = slot
		}
	}
	fitness := make([]float64, len(pop))
	for i, org := range pop {
		fitness[i] = org.Fitness
	}

	summary := telemetry.ComputeFitnessStats(fitness)
	stats.Best = summary.Max
	stats.Mean = summary.Mean
	stats.Std = summary.Std
	stats.P10 = summary.P10
	stats.P50 = summary.P50
	stats.P90 = summary.P90
	stats.WallTimeMS = time.Since(start).Milliseconds()

	slog.Info("generation", "stats", stats)
	slog.Debug("species",
		"generation", gen,
		"summary", t.evolver.SpeciesStats(),
		"top", t.evolver.TopSpecies(3),
	)
	if err := t.out.WriteGeneration(stats); err != nil {
		return stats, err
	}
	if err := t.out.WritePerf(t.perf.Stats(), gen); err != nil {
		return stats, err
	}

	if bestSlot >= 0 {
		if err := t.recordChampion(gen, members[bestSlot], pilots[bestSlot], results[bestSlot]); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (t *Trainer) recordChampion(gen int, org *neural.Organism, pilot *neural.Pilot, res Result) error {
	if t.best == nil || res.Fitness() > t.best.Result.Fitness() {
		t.best = &Champion{Generation: gen, Organism: org, Result: res}
	}
	rec := telemetry.ChampionRecord{
		Generation: gen,
		GenomeID:   org.Genome.Id,
		Distance:   res.Distance,
		Elapsed:    res.Elapsed,
		Steps:      res.Steps,
		Phase:      res.Phase.String(),
		X:          res.State.X,
		Y:          res.State.Y,
		Heading:    res.State.Heading,
		Nodes:      pilot.Brain().NodeCount(),
		Links:      pilot.Brain().LinkCount(),
	}
	t.hall.Consider(res.Fitness(), rec)
	return t.out.WriteChampion(rec)
}
