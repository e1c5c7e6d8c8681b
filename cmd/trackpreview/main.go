// Track preview tool - renders a procedural track and its occupancy grid.
//
// Usage: go run ./cmd/trackpreview -seed 7 -out preview.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/pthm-cable/trackrunner/config"
	"github.com/pthm-cable/trackrunner/game"
	"github.com/pthm-cable/trackrunner/systems"
)

var spawnColor = color.RGBA{R: 255, G: 64, B: 64, A: 255}

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	seed := flag.Int64("seed", -1, "Generator seed (-1 = use config)")
	scale := flag.Int("scale", 3, "Pixels per grid cell in the grid panel")
	out := flag.String("out", "track_preview.png", "Output PNG path")
	trackOut := flag.String("track-out", "", "Optional path for the full-resolution track image")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	params := game.TrackParams(cfg.Track.Generator)
	if *seed >= 0 {
		params.Seed = *seed
	}

	gen, err := systems.GenerateTrack(params)
	if err != nil {
		log.Fatalf("failed to generate track: %v", err)
	}
	grid, err := systems.BuildGrid(gen.Image, cfg.Track.GridSize, game.WallRule(cfg.Track.WallRule))
	if err != nil {
		log.Fatalf("failed to build grid: %v", err)
	}

	if *trackOut != "" {
		if err := writePNG(*trackOut, gen.Image); err != nil {
			log.Fatalf("failed to write track image: %v", err)
		}
	}

	panel := systems.RenderGrid(grid, *scale)
	side := panel.Bounds().Dx()

	// Left: source image scaled to the panel size. Right: occupancy grid.
	canvas := image.NewRGBA(image.Rect(0, 0, 2*side, side))
	xdraw.ApproxBiLinear.Scale(canvas, image.Rect(0, 0, side, side), gen.Image, gen.Image.Bounds(), xdraw.Src, nil)
	xdraw.Draw(canvas, image.Rect(side, 0, 2*side, side), panel, image.Point{}, xdraw.Src)
	markSpawn(canvas, 0, side, gen.Spawn.X, gen.Spawn.Y)
	markSpawn(canvas, side, side, gen.Spawn.X, gen.Spawn.Y)

	if err := writePNG(*out, canvas); err != nil {
		log.Fatalf("failed to write preview: %v", err)
	}

	walls := grid.WallCount()
	total := grid.Size() * grid.Size()
	fmt.Printf("Seed %d: %d/%d wall cells (%.1f%%), spawn (%.3f, %.3f) heading %.3f\n",
		params.Seed, walls, total, 100*float64(walls)/float64(total),
		gen.Spawn.X, gen.Spawn.Y, gen.Spawn.Heading)
	fmt.Printf("Preview written to %s\n", *out)
}

// markSpawn draws a small square at a normalized position inside a panel.
func markSpawn(img *image.RGBA, offsetX, side int, x, y float64) {
	cx := offsetX + int(x*float64(side))
	cy := int(y * float64(side))
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			px, py := cx+dx, cy+dy
			if px >= offsetX && px < offsetX+side && py >= 0 && py < side {
				img.SetRGBA(px, py, spawnColor)
			}
		}
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
