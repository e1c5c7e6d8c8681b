package pong

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/trackrunner/config"
	"github.com/pthm-cable/trackrunner/game"
	"github.com/pthm-cable/trackrunner/neural"
	"github.com/pthm-cable/trackrunner/telemetry"
)

// pairing is one scheduled match between two population indices.
type pairing struct {
	left, right int
	seed        int64
	result      MatchResult
	err         error
}

// Trainer evolves paddle controllers by pairwise play: every genome meets
// every other genome once per generation.
type Trainer struct {
	cfg     config.PongConfig
	evolver *neural.Evolver
	pool    *game.WorkerPool
	out     *telemetry.OutputManager
	rng     *rand.Rand
}

// NewTrainer creates the initial population. out may be nil.
func NewTrainer(cfg *config.Config, out *telemetry.OutputManager, rng *rand.Rand) (*Trainer, error) {
	pc := cfg.Pong
	if pc.Population < 2 {
		return nil, fmt.Errorf("pong trainer: population must be at least 2, got %d", pc.Population)
	}
	if _, err := NewGame(pc.Width, pc.Height, pc.Gravity, rng); err != nil {
		return nil, err
	}

	nc := neural.DefaultConfig(NumInputs, NumOutputs)
	nc.Brain.InitialConnectionProb = 1
	evolver, err := neural.NewEvolver(nc, pc.Population, rng)
	if err != nil {
		return nil, fmt.Errorf("pong trainer: %w", err)
	}
	return &Trainer{
		cfg:     pc,
		evolver: evolver,
		pool:    game.NewWorkerPool(cfg.Evolution.Workers),
		out:     out,
		rng:     rng,
	}, nil
}

// Close stops the worker pool.
func (t *Trainer) Close() {
	t.pool.Stop()
}

// Run trains for the configured number of generations and returns the final champion.
func (t *Trainer) Run(ctx context.Context) (*neural.Organism, error) {
	for gen := 0; gen < t.cfg.Generations; gen++ {
		if _, err := t.RunGeneration(ctx); err != nil {
			return nil, err
		}
		if gen == t.cfg.Generations-1 {
			break
		}
		if err := t.evolver.Epoch(); err != nil {
			return nil, fmt.Errorf("pong generation %d: %w", gen, err)
		}
	}
	return t.evolver.Champion(), nil
}

// RunGeneration plays the round robin and assigns fitness.
func (t *Trainer) RunGeneration(ctx context.Context) (telemetry.PongStats, error) {
	start := time.Now()
	gen := t.evolver.Generation()
	pop := t.evolver.Population()

	players := make([]*NetworkPlayer, len(pop))
	for i, org := range pop {
		org.Fitness = 0
		p, err := NewNetworkPlayer(org.Genome)
		if err != nil {
			return telemetry.PongStats{}, fmt.Errorf("pong generation %d: %w", gen, err)
		}
		players[i] = p
	}

	stats := telemetry.PongStats{
		Generation: gen,
		Population: len(pop),
		Species:    t.evolver.SpeciesCount(),
	}

	// Each round pairs every player at most once, so rounds run in parallel
	// without sharing a network between goroutines.
	for _, round := range roundRobin(len(pop)) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for i := range round {
			round[i].seed = t.rng.Int63()
		}
		t.pool.Run(len(round), func(lo, hi, _ int) {
			for i := lo; i < hi; i++ {
				t.play(&round[i], players)
			}
		})
		for i := range round {
			m := &round[i]
			if m.err != nil {
				return stats, fmt.Errorf("pong generation %d: match %d-%d: %w", gen, m.left, m.right, m.err)
			}
			pop[m.left].Fitness += m.result.LeftFitness
			pop[m.right].Fitness += m.result.RightFitness
			stats.Games++
			stats.TotalHits += m.result.Info.LeftHits + m.result.Info.RightHits
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
	stats.WallTimeMS = time.Since(start).Milliseconds()

	slog.Info("pong generation", "stats", stats)
	return stats, t.out.WritePong(stats)
}

func (t *Trainer) play(m *pairing, players []*NetworkPlayer) {
	g, err := NewGame(t.cfg.Width, t.cfg.Height, t.cfg.Gravity, rand.New(rand.NewSource(m.seed)))
	if err != nil {
		m.err = err
		return
	}
	m.result, m.err = PlayMatch(g, players[m.left], players[m.right], MatchLimits{
		MaxHits:  t.cfg.MaxHits,
		MaxTicks: t.cfg.MaxTicks,
	})
}

// roundRobin schedules every unordered pair of n players exactly once using
// the circle method. The lower index always plays left.
func roundRobin(n int) [][]pairing {
	if n < 2 {
		return nil
	}
	slots := make([]int, 0, n+1)
	for i := 0; i < n; i++ {
		slots = append(slots, i)
	}
	if n%2 == 1 {
		slots = append(slots, -1) // bye
	}
	m := len(slots)

	rounds := make([][]pairing, 0, m-1)
	for r := 0; r < m-1; r++ {
		round := make([]pairing, 0, m/2)
		for k := 0; k < m/2; k++ {
			a, b := slots[k], slots[m-1-k]
			if a < 0 || b < 0 {
				continue
			}
			round = append(round, pairing{left: min(a, b), right: max(a, b)})
		}
		rounds = append(rounds, round)

		// Rotate everything but the first slot.
		last := slots[m-1]
		copy(slots[2:], slots[1:m-1])
		slots[1] = last
	}
	return rounds
}

// EvaluateAgainstOptimal plays the genome on the left against the analytic
// player for the given number of matches.
func EvaluateAgainstOptimal(org *neural.Organism, cfg config.PongConfig, matches int, rng *rand.Rand) ([]MatchResult, error) {
	player, err := NewNetworkPlayer(org.Genome)
	if err != nil {
		return nil, err
	}
	results := make([]MatchResult, 0, matches)
	for i := 0; i < matches; i++ {
		g, err := NewGame(cfg.Width, cfg.Height, cfg.Gravity, rng)
		if err != nil {
			return nil, err
		}
		res, err := PlayMatch(g, player, &OptimalPlayer{}, MatchLimits{MaxHits: cfg.MaxHits, MaxTicks: cfg.MaxTicks})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
