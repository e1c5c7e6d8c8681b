package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/trackrunner/config"
	"github.com/pthm-cable/trackrunner/game"
	"github.com/pthm-cable/trackrunner/neural"
	"github.com/pthm-cable/trackrunner/pong"
	"github.com/pthm-cable/trackrunner/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", "train", "Run mode: train, drive or pong")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (overrides telemetry.output_dir)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	policyPath := flag.String("policy", "", "Linear policy JSON for drive mode (empty = constant throttle)")
	throttle := flag.Float64("throttle", 0.5, "Constant acceleration for drive mode without a policy")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.LevelVar
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting", "mode", *mode, "seed", rngSeed, "config", *configPath)

	switch *mode {
	case "train":
		err = runTrain(ctx, cfg, rng)
	case "drive":
		err = runDrive(ctx, cfg, *policyPath, *throttle)
	case "pong":
		err = runPong(ctx, cfg, rng)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		slog.Error("run failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

func openOutput(cfg *config.Config) (*telemetry.OutputManager, error) {
	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := out.WriteConfig(cfg); err != nil {
		out.Close()
		return nil, err
	}
	return out, nil
}

func runTrain(ctx context.Context, cfg *config.Config, rng *rand.Rand) error {
	track, err := game.LoadTrack(cfg)
	if err != nil {
		return err
	}
	out, err := openOutput(cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	trainer, err := game.NewTrainer(cfg, track, out, rng)
	if err != nil {
		return err
	}
	defer trainer.Close()

	slog.Info("training",
		"generations", cfg.Evolution.Generations,
		"population", cfg.Evolution.Population,
		"inputs", cfg.Derived.NumInputs,
		"max_steps", cfg.Derived.MaxSteps,
		"output_dir", out.Dir(),
	)
	_, err = trainer.Run(ctx)
	return err
}

func runDrive(ctx context.Context, cfg *config.Config, policyPath string, throttle float64) error {
	track, err := game.LoadTrack(cfg)
	if err != nil {
		return err
	}

	var ctrl game.Controller = game.ConstantController{Acceleration: throttle}
	if policyPath != "" {
		policy, err := neural.LoadLinearPolicy(policyPath)
		if err != nil {
			return err
		}
		if policy.Inputs() != cfg.Derived.NumInputs {
			return fmt.Errorf("policy %s expects %d inputs, observation has %d", policyPath, policy.Inputs(), cfg.Derived.NumInputs)
		}
		ctrl = policy
	}

	res, err := game.RunEpisode(ctx, track.Grid, game.SettingsFromConfig(cfg, track.Spawn), ctrl)
	if err != nil {
		return err
	}
	slog.Info("drive finished", "policy", policyPath, "result", res)
	return nil
}

func runPong(ctx context.Context, cfg *config.Config, rng *rand.Rand) error {
	out, err := openOutput(cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	trainer, err := pong.NewTrainer(cfg, out, rng)
	if err != nil {
		return err
	}
	defer trainer.Close()

	champ, err := trainer.Run(ctx)
	if err != nil {
		return err
	}

	results, err := pong.EvaluateAgainstOptimal(champ, cfg.Pong, 5, rng)
	if err != nil {
		return err
	}
	for i, r := range results {
		slog.Info("champion vs optimal",
			"match", i,
			"ticks", r.Ticks,
			"left_hits", r.Info.LeftHits,
			"right_hits", r.Info.RightHits,
			"left_score", r.Info.LeftScore,
			"right_score", r.Info.RightScore,
		)
	}
	return nil
}
