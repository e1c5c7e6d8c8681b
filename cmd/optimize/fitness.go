package main

import (
	"context"
	"math"
	"sync"

	"github.com/pthm-cable/trackrunner/components"
	"github.com/pthm-cable/trackrunner/game"
	"github.com/pthm-cable/trackrunner/neural"
	"github.com/pthm-cable/trackrunner/systems"
	"github.com/pthm-cable/trackrunner/telemetry"
)

// FitnessEvaluator races a candidate policy from several spawn poses.
type FitnessEvaluator struct {
	params   *ParamVector
	grid     *systems.Grid
	settings game.Settings
	spawns   []components.Pose

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestPolicy  *neural.LinearPolicy
	lastSummary telemetry.FitnessSummary
}

// NewFitnessEvaluator creates a new evaluator. settings.Spawn is replaced per variant.
func NewFitnessEvaluator(params *ParamVector, grid *systems.Grid, settings game.Settings, spawns []components.Pose) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		grid:        grid,
		settings:    settings,
		spawns:      spawns,
		bestFitness: math.Inf(1),
	}
}

// SpawnVariants returns the base pose turned by evenly spaced heading offsets
// in [-spread, spread].
func SpawnVariants(base components.Pose, n int, spread float64) []components.Pose {
	if n <= 1 {
		return []components.Pose{base}
	}
	poses := make([]components.Pose, n)
	for i := range poses {
		p := base
		p.Heading += -spread + 2*spread*float64(i)/float64(n-1)
		poses[i] = p
	}
	return poses
}

// BestPolicy returns the policy from the best evaluation.
func (fe *FitnessEvaluator) BestPolicy() *neural.LinearPolicy {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestPolicy
}

// LastSummary returns the distance summary from the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() telemetry.FitnessSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated mean distance over all spawn variants.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	policy, err := fe.params.Policy(x)
	if err != nil {
		return math.Inf(1)
	}

	// Run all spawn variants in parallel
	distances := make([]float64, len(fe.spawns))
	var wg sync.WaitGroup
	for i, spawn := range fe.spawns {
		wg.Add(1)
		go func(idx int, pose components.Pose) {
			defer wg.Done()
			settings := fe.settings
			settings.Spawn = pose
			res, err := game.RunEpisode(context.Background(), fe.grid, settings, policy.Clone())
			if err != nil {
				return
			}
			distances[idx] = res.Distance
		}(i, spawn)
	}
	wg.Wait()

	summary := telemetry.ComputeFitnessStats(distances)
	fitness := -summary.Mean

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestPolicy = policy
	}
	fe.lastSummary = summary
	fe.mu.Unlock()

	return fitness
}
