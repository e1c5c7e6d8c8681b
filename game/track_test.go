package game

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/trackrunner/components"
	"github.com/pthm-cable/trackrunner/config"
	"github.com/pthm-cable/trackrunner/systems"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Track.GridSize = 100
	cfg.Track.Generator.Resolution = 200
	return cfg
}

func TestLoadTrackGenerated(t *testing.T) {
	cfg := smallConfig(t)

	track, err := LoadTrack(cfg)
	if err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if track.Source != "generated" {
		t.Errorf("source = %q, want generated", track.Source)
	}
	if track.Grid.Size() != 100 {
		t.Errorf("grid size = %d, want 100", track.Grid.Size())
	}
	if track.Grid.IsWallAt(track.Spawn.X, track.Spawn.Y) {
		t.Errorf("spawn %+v is on a wall", track.Spawn)
	}
	if track.Grid.WallCount() == 0 {
		t.Error("generated track has no walls")
	}

	// The spawned vehicle must not start in contact with a wall.
	settings := SettingsFromConfig(cfg, track.Spawn)
	state := settings.spawnState()
	if hit := systems.CheckCollision(state, settings.Vehicle, track.Grid); hit.Collided {
		t.Errorf("spawn collides with %v", hit.Cells)
	}
}

func TestLoadTrackFromImage(t *testing.T) {
	// Left half white (wall), right half black (road).
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{A: 255}
			if x < 20 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "track.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := smallConfig(t)
	cfg.Track.Image = path
	cfg.Track.GridSize = 10
	cfg.Episode.Spawn = components.Pose{X: 0.75, Y: 0.5}

	track, err := LoadTrack(cfg)
	if err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if track.Source != path {
		t.Errorf("source = %q, want %q", track.Source, path)
	}
	if track.Spawn != cfg.Episode.Spawn {
		t.Errorf("spawn = %+v, want configured %+v", track.Spawn, cfg.Episode.Spawn)
	}
	if !track.Grid.IsWall(0, 5) || track.Grid.IsWall(9, 5) {
		t.Error("expected walls on the left half only")
	}

	cfg.Track.WallRule.Invert = true
	inverted, err := LoadTrack(cfg)
	if err != nil {
		t.Fatalf("LoadTrack inverted: %v", err)
	}
	if inverted.Grid.IsWall(0, 5) || !inverted.Grid.IsWall(9, 5) {
		t.Error("inverted rule should wall the right half only")
	}
}

func TestLoadTrackInvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := smallConfig(t)
	cfg.Track.Image = path

	_, err := LoadTrack(cfg)
	var invalid *systems.InvalidImageError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidImageError", err)
	}
}
