package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/trackrunner/components"
	"github.com/pthm-cable/trackrunner/config"
	"github.com/pthm-cable/trackrunner/systems"
)

// Track is a loaded occupancy grid and the pose vehicles start from.
type Track struct {
	Grid   *systems.Grid
	Spawn  components.Pose
	Source string // image path, or "generated"
}

// WallRule converts the configured wall rule.
func WallRule(cfg config.WallRuleConfig) systems.WallRule {
	return systems.WallRule{Threshold: cfg.Threshold, Invert: cfg.Invert}
}

// TrackParams converts the configured generator parameters.
func TrackParams(cfg config.GeneratorConfig) systems.TrackParams {
	return systems.TrackParams{
		Seed:       cfg.Seed,
		Resolution: cfg.Resolution,
		Radius:     cfg.Radius,
		RoadWidth:  cfg.RoadWidth,
		Amplitude:  cfg.Amplitude,
		Frequency:  cfg.Frequency,
	}
}

// LoadTrack builds the grid from track.image with episode.spawn, or generates
// a track and uses its spawn pose when no image is configured.
func LoadTrack(cfg *config.Config) (*Track, error) {
	rule := WallRule(cfg.Track.WallRule)

	if cfg.Track.Image != "" {
		grid, err := systems.LoadGrid(cfg.Track.Image, cfg.Track.GridSize, rule)
		if err != nil {
			return nil, fmt.Errorf("loading track: %w", err)
		}
		t := &Track{Grid: grid, Spawn: cfg.Episode.Spawn, Source: cfg.Track.Image}
		t.log()
		return t, nil
	}

	gen, err := systems.GenerateTrack(TrackParams(cfg.Track.Generator))
	if err != nil {
		return nil, fmt.Errorf("loading track: %w", err)
	}
	// Generated images are black road on white, which the default rule reads correctly.
	grid, err := systems.BuildGrid(gen.Image, cfg.Track.GridSize, rule)
	if err != nil {
		return nil, fmt.Errorf("loading track: %w", err)
	}
	t := &Track{Grid: grid, Spawn: gen.Spawn, Source: "generated"}
	t.log()
	return t, nil
}

func (t *Track) log() {
	slog.Info("track loaded",
		"source", t.Source,
		"grid_size", t.Grid.Size(),
		"walls", t.Grid.WallCount(),
		"spawn_x", t.Spawn.X,
		"spawn_y", t.Spawn.Y,
		"spawn_heading", t.Spawn.Heading,
	)
}
