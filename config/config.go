// Package config provides configuration loading for the track and pong simulations.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/trackrunner/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Track     TrackConfig            `yaml:"track"`
	Vehicle   components.VehicleSpec `yaml:"vehicle"`
	Sensors   components.SensorSpec  `yaml:"sensors"`
	Episode   EpisodeConfig          `yaml:"episode"`
	Actions   ActionsConfig          `yaml:"actions"`
	Evolution EvolutionConfig        `yaml:"evolution"`
	Pong      PongConfig             `yaml:"pong"`
	Telemetry TelemetryConfig        `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// TrackConfig describes where the occupancy grid comes from.
type TrackConfig struct {
	GridSize  int             `yaml:"grid_size"` // cells per side
	Image     string          `yaml:"image"`     // track image path (empty = generate)
	WallRule  WallRuleConfig  `yaml:"wall_rule"`
	Generator GeneratorConfig `yaml:"generator"`
}

// WallRuleConfig decides which averaged cell colors count as walls.
// A cell is a wall when its RGB sum (0..765) is >= Threshold, or < Threshold when Invert is set.
type WallRuleConfig struct {
	Threshold int  `yaml:"threshold"`
	Invert    bool `yaml:"invert"`
}

// GeneratorConfig holds procedural track parameters.
type GeneratorConfig struct {
	Seed       int64   `yaml:"seed"`
	Resolution int     `yaml:"resolution"`  // generated image side in pixels
	Radius     float64 `yaml:"radius"`      // mean centreline radius
	RoadWidth  float64 `yaml:"road_width"`  // full road width
	Amplitude  float64 `yaml:"amplitude"`   // radius perturbation
	Frequency  float64 `yaml:"frequency"`   // noise frequency around the loop
}

// EpisodeConfig holds per-episode stepping parameters.
type EpisodeConfig struct {
	DT      float64         `yaml:"dt"`
	MaxTime float64         `yaml:"max_time"`
	Spawn   components.Pose `yaml:"spawn"`
}

// ActionsConfig holds the output-to-action mapping parameters.
type ActionsConfig struct {
	DeadZone float64 `yaml:"dead_zone"` // |acceleration| below this is zero
}

// EvolutionConfig holds the NEAT training loop parameters.
type EvolutionConfig struct {
	Generations    int     `yaml:"generations"`
	Population     int     `yaml:"population"`
	ConnectionProb float64 `yaml:"connection_prob"`
	NEATConfig     string  `yaml:"neat_config"` // optional neural YAML overriding NEAT options
	Workers        int     `yaml:"workers"`     // 0 = GOMAXPROCS
}

// PongConfig holds the pong environment parameters.
type PongConfig struct {
	Width       int  `yaml:"width"`
	Height      int  `yaml:"height"`
	Gravity     bool `yaml:"gravity"`
	MaxTicks    int  `yaml:"max_ticks"`
	MaxHits     int  `yaml:"max_hits"`
	Generations int  `yaml:"generations"`
	Population  int  `yaml:"population"`
}

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumInputs  int // Sensors.RayCount + 2 (speed, heading)
	NumOutputs int // acceleration, steer
	MaxSteps   int // ceil(Episode.MaxTime / Episode.DT)
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks the values the simulation cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Track.GridSize <= 0:
		return fmt.Errorf("%w: track.grid_size must be positive", ErrInvalidConfig)
	case c.Episode.DT <= 0:
		return fmt.Errorf("%w: episode.dt must be positive", ErrInvalidConfig)
	case c.Episode.MaxTime <= 0:
		return fmt.Errorf("%w: episode.max_time must be positive", ErrInvalidConfig)
	case c.Sensors.RayCount <= 0:
		return fmt.Errorf("%w: sensors.ray_count must be positive", ErrInvalidConfig)
	case c.Sensors.StepSize <= 0 || c.Sensors.MaxRange <= 0:
		return fmt.Errorf("%w: sensors.step_size and sensors.max_range must be positive", ErrInvalidConfig)
	case c.Vehicle.MaxSpeed <= 0:
		return fmt.Errorf("%w: vehicle.max_speed must be positive", ErrInvalidConfig)
	case c.Evolution.Population <= 0:
		return fmt.Errorf("%w: evolution.population must be positive", ErrInvalidConfig)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.NumInputs = c.Sensors.RayCount + 2
	c.Derived.NumOutputs = 2
	// Small epsilon so 100/0.01 does not round up to 10001
	c.Derived.MaxSteps = int(math.Ceil(c.Episode.MaxTime/c.Episode.DT - 1e-9))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
