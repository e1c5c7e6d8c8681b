package systems

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/trackrunner/components"
)

// TrackParams controls procedural track generation.
// Lengths are normalized to the [0,1] track square.
type TrackParams struct {
	Seed       int64
	Resolution int     // image side in pixels
	Radius     float64 // mean centreline radius
	RoadWidth  float64
	Amplitude  float64 // max centreline radius perturbation
	Frequency  float64 // noise frequency around the loop
}

// GeneratedTrack is a procedural closed-loop track.
type GeneratedTrack struct {
	Image *image.RGBA // black road on white walls
	Spawn components.Pose
}

// centreline samples noise on a circle so the loop closes smoothly.
type centreline struct {
	noise opensimplex.Noise
	p     TrackParams
}

func (c centreline) radius(theta float64) float64 {
	n := c.noise.Eval2(c.p.Frequency*math.Cos(theta), c.p.Frequency*math.Sin(theta))
	return c.p.Radius + c.p.Amplitude*(2*n-1)
}

// GenerateTrack renders a ring road whose radius wanders with OpenSimplex noise.
// The spawn pose sits on the centreline at angle 0, facing along the loop.
func GenerateTrack(p TrackParams) (*GeneratedTrack, error) {
	if p.Resolution <= 0 {
		return nil, fmt.Errorf("generate track: resolution must be positive, got %d", p.Resolution)
	}
	if p.RoadWidth <= 0 || p.Radius <= p.Amplitude+p.RoadWidth/2 {
		return nil, fmt.Errorf("generate track: road collapses at the centre (radius %.3f)", p.Radius)
	}
	if p.Radius+p.Amplitude+p.RoadWidth/2 >= 0.5 {
		return nil, fmt.Errorf("generate track: road leaves the unit square (radius %.3f)", p.Radius)
	}

	line := centreline{noise: opensimplex.NewNormalized(p.Seed), p: p}
	img := image.NewRGBA(image.Rect(0, 0, p.Resolution, p.Resolution))
	half := p.RoadWidth / 2
	res := float64(p.Resolution)

	for py := 0; py < p.Resolution; py++ {
		ny := (float64(py)+0.5)/res - 0.5
		for px := 0; px < p.Resolution; px++ {
			nx := (float64(px)+0.5)/res - 0.5
			theta := math.Atan2(ny, nx)
			d := math.Hypot(nx, ny)

			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if math.Abs(d-line.radius(theta)) <= half {
				c = color.RGBA{A: 255}
			}
			img.SetRGBA(px, py, c)
		}
	}

	r0 := line.radius(0)
	return &GeneratedTrack{
		Image: img,
		Spawn: components.Pose{X: 0.5 + r0, Y: 0.5, Heading: math.Pi / 2},
	}, nil
}

// RenderGrid draws a grid as a grayscale image, scale pixels per cell.
// Walls are white.
func RenderGrid(g *Grid, scale int) *image.Gray {
	if scale < 1 {
		scale = 1
	}
	side := g.size * scale
	img := image.NewGray(image.Rect(0, 0, side, side))
	for cy := 0; cy < g.size; cy++ {
		for cx := 0; cx < g.size; cx++ {
			if !g.IsWall(cx, cy) {
				continue
			}
			for py := cy * scale; py < (cy+1)*scale; py++ {
				for px := cx * scale; px < (cx+1)*scale; px++ {
					img.SetGray(px, py, color.Gray{Y: 255})
				}
			}
		}
	}
	return img
}
