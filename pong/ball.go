// Package pong is a headless Pong environment used to evolve paddle controllers.
// Units are pixels and ticks; y grows downwards.
package pong

import (
	"math"
	"math/rand"
)

// Ball constants.
const (
	BallMaxVel  = 5.0
	BallRadius  = 7.0
	BallGravity = 0.05 // vertical acceleration per tick in gravity mode
)

// Ball is the moving ball.
type Ball struct {
	X, Y    float64
	VX, VY  float64
	G       float64 // current gravity; gravity boxes flip its sign
	originX float64
	originY float64
}

func newBall(x, y float64, rng *rand.Rand) Ball {
	b := Ball{X: x, Y: y, G: BallGravity, originX: x, originY: y}
	angle := serveAngle(rng)
	dir := 1.0
	if rng.Float64() < 0.5 {
		dir = -1
	}
	b.VX = dir * math.Abs(math.Cos(angle)*BallMaxVel)
	b.VY = math.Sin(angle) * BallMaxVel
	return b
}

// serveAngle returns a whole-degree angle in [-5, 5), never 0.
func serveAngle(rng *rand.Rand) float64 {
	deg := 0
	for deg == 0 {
		deg = rng.Intn(10) - 5
	}
	return float64(deg) * math.Pi / 180
}

func (b *Ball) move(gravity bool) {
	if gravity {
		b.VY += b.G
	}
	b.X += b.VX
	b.Y += b.VY
}

// reset re-serves from the centre towards the player who just scored.
func (b *Ball) reset(rng *rand.Rand) {
	b.X, b.Y = b.originX, b.originY
	b.VY = math.Sin(serveAngle(rng)) * BallMaxVel
	b.VX = -b.VX
}
