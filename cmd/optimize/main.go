// Package main provides CMA-ES optimization of a linear driving policy,
// a baseline for the evolved controllers.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/trackrunner/config"
	"github.com/pthm-cable/trackrunner/game"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	spawns := flag.Int("spawns", 3, "Number of spawn headings per evaluation")
	spread := flag.Float64("spread", 0.2, "Spawn heading spread in radians")
	bound := flag.Float64("bound", 2.0, "Absolute bound on every weight")
	maxTime := flag.Float64("max-time", 0, "Episode length in seconds (0 = use config)")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	track, err := game.LoadTrack(cfg)
	if err != nil {
		log.Fatalf("failed to load track: %v", err)
	}

	settings := game.SettingsFromConfig(cfg, track.Spawn)
	if *maxTime > 0 {
		settings.MaxTime = *maxTime
		settings.MaxSteps = 0
	}
	if err := settings.Validate(); err != nil {
		log.Fatalf("invalid episode settings: %v", err)
	}

	// Create parameter vector
	params := NewParamVector(cfg.Derived.NumInputs, *bound)
	variants := SpawnVariants(track.Spawn, *spawns, *spread)

	// Create fitness evaluator
	evaluator := NewFitnessEvaluator(params, track.Grid, settings, variants)

	// Set up CMA-ES
	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	// Create optimization problem
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Denormalize to get raw parameter values
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	// CMA-ES settings
	optSettings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation
	}

	// Population size
	popSize := *population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3.0*math.Log(float64(dim)))
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	// Open log file
	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	// Write header
	header := []string{"eval", "fitness", "mean_distance", "min_distance", "max_distance"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	// Track evaluations and timing
	evalCount := 0
	bestFitness := math.Inf(1)
	startTime := time.Now()

	// Wrap the function to log evaluations
	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++
		bestFitness = min(bestFitness, fitness)
		summary := evaluator.LastSummary()

		// Log clamped values to CSV (these are the values actually used)
		clamped := params.Clamp(params.Denormalize(x))
		row := []string{
			strconv.Itoa(evalCount),
			fmt.Sprintf("%.6f", fitness),
			fmt.Sprintf("%.6f", summary.Mean),
			fmt.Sprintf("%.6f", summary.Min),
			fmt.Sprintf("%.6f", summary.Max),
		}
		for _, v := range clamped {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		logWriter.Write(row)
		logWriter.Flush()

		// Calculate timing
		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

		fmt.Printf("Eval %d/%d: distance=%.3f (min %.3f, best %.3f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, summary.Mean, summary.Min, -bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	// Run optimization
	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Spawn headings per evaluation: %d, max time: %.1fs\n", len(variants), settings.MaxTime)

	if _, err := optimize.Minimize(problem, initX, optSettings, method); err != nil {
		log.Printf("optimization ended: %v", err)
	}

	totalTime := time.Since(startTime)
	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	fmt.Printf("Best mean distance: %.4f\n", -bestFitness)

	// Save best policy
	best := evaluator.BestPolicy()
	if best == nil {
		log.Fatal("no policy was evaluated")
	}
	policyPath := filepath.Join(*outputDir, "best_policy.json")
	if err := best.Save(policyPath); err != nil {
		log.Fatalf("failed to write best policy: %v", err)
	}
	fmt.Printf("Best policy saved to: %s\n", policyPath)

	configOutPath := filepath.Join(*outputDir, "config.yaml")
	if err := cfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write config: %v", err)
	}
}
