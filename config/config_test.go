package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Track.GridSize != 250 {
		t.Errorf("grid_size = %d, want 250", cfg.Track.GridSize)
	}
	if cfg.Track.WallRule.Threshold != 255 || cfg.Track.WallRule.Invert {
		t.Errorf("wall_rule = %+v, want threshold 255 without invert", cfg.Track.WallRule)
	}
	if cfg.Sensors.RayCount != 10 {
		t.Errorf("ray_count = %d, want 10", cfg.Sensors.RayCount)
	}
	if cfg.Derived.NumInputs != cfg.Sensors.RayCount+2 {
		t.Errorf("NumInputs = %d, want %d", cfg.Derived.NumInputs, cfg.Sensors.RayCount+2)
	}
	if cfg.Derived.MaxSteps != 10000 {
		t.Errorf("MaxSteps = %d, want 10000", cfg.Derived.MaxSteps)
	}
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("sensors:\n  ray_count: 5\nepisode:\n  max_time: 2.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Sensors.RayCount != 5 {
		t.Errorf("ray_count = %d, want 5", cfg.Sensors.RayCount)
	}
	if cfg.Sensors.MaxRange != 0.2 {
		t.Errorf("max_range = %v, want default 0.2", cfg.Sensors.MaxRange)
	}
	if cfg.Derived.NumInputs != 7 {
		t.Errorf("NumInputs = %d, want 7", cfg.Derived.NumInputs)
	}
	if cfg.Derived.MaxSteps != 250 {
		t.Errorf("MaxSteps = %d, want 250", cfg.Derived.MaxSteps)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero grid", func(c *Config) { c.Track.GridSize = 0 }},
		{"zero dt", func(c *Config) { c.Episode.DT = 0 }},
		{"negative max time", func(c *Config) { c.Episode.MaxTime = -1 }},
		{"no rays", func(c *Config) { c.Sensors.RayCount = 0 }},
		{"zero step", func(c *Config) { c.Sensors.StepSize = 0 }},
		{"zero speed", func(c *Config) { c.Vehicle.MaxSpeed = 0 }},
		{"empty population", func(c *Config) { c.Evolution.Population = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestWriteYAML(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Sensors.RayCount = 3

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Sensors.RayCount != 3 {
		t.Errorf("ray_count = %d, want 3", reloaded.Sensors.RayCount)
	}
}
