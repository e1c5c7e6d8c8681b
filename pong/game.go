package pong

import (
	"fmt"
	"math/rand"
)

// paddleMargin is the gap between each paddle and its side wall.
const paddleMargin = 10.0

// Info is the running score of a game.
type Info struct {
	LeftHits   int
	RightHits  int
	LeftScore  int
	RightScore int
}

// GravityBox flips the ball's gravity when the ball enters it.
type GravityBox struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies strictly inside the box.
func (b GravityBox) Contains(x, y float64) bool {
	return x > b.X && x < b.X+b.W && y > b.Y && y < b.Y+b.H
}

func centredBox(cx, cy, w, h float64) GravityBox {
	return GravityBox{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}

// Game is one Pong table. It is not safe for concurrent use.
type Game struct {
	Width, Height float64
	Gravity       bool
	Boxes         []GravityBox

	Left, Right Paddle
	Ball        Ball
	Info        Info

	inBox int // index of the box the ball is inside, -1 if none
	rng   *rand.Rand
}

// NewGame sets up a table with centred paddles and a served ball.
// Gravity mode adds six boxes straddling the top and bottom walls.
func NewGame(width, height int, gravity bool, rng *rand.Rand) (*Game, error) {
	if float64(height) < PaddleHeight || width <= 2*(paddleMargin+PaddleWidth) {
		return nil, fmt.Errorf("pong: table %dx%d too small", width, height)
	}
	w, h := float64(width), float64(height)

	g := &Game{
		Width:   w,
		Height:  h,
		Gravity: gravity,
		Left:    newPaddle(paddleMargin, h/2-PaddleHeight/2),
		Right:   newPaddle(w-paddleMargin-PaddleWidth, h/2-PaddleHeight/2),
		Ball:    newBall(w/2, h/2, rng),
		inBox:   -1,
		rng:     rng,
	}
	if gravity {
		for _, fx := range []float64{1, 2.5, 4} {
			cx := fx * w / 5
			g.Boxes = append(g.Boxes, centredBox(cx, h, 50, 100), centredBox(cx, 0, 50, 100))
		}
	}
	return g, nil
}

// MovePaddle moves one paddle a step and reports whether the move was allowed.
// Moves that would leave the table are refused.
func (g *Game) MovePaddle(left, up bool) bool {
	p := &g.Right
	if left {
		p = &g.Left
	}
	if up && p.Y-PaddleVel < 0 {
		return false
	}
	if !up && p.Y+PaddleHeight > g.Height {
		return false
	}
	p.move(up)
	return true
}

// Loop advances the ball one tick, resolving bounces and scoring.
func (g *Game) Loop() Info {
	g.Ball.move(g.Gravity)
	g.handleCollision()
	if g.Gravity {
		g.handleGravityBoxes()
	}

	switch {
	case g.Ball.X < 0:
		g.Ball.reset(g.rng)
		g.Info.RightScore++
	case g.Ball.X > g.Width:
		g.Ball.reset(g.rng)
		g.Info.LeftScore++
	}
	return g.Info
}

// Reset restores paddles, ball and score.
func (g *Game) Reset() {
	g.Ball.reset(g.rng)
	g.Left.reset()
	g.Right.reset()
	g.Info = Info{}
	g.inBox = -1
}

func (g *Game) handleCollision() {
	b := &g.Ball

	if b.Y+BallRadius >= g.Height {
		b.Y = g.Height - BallRadius
		b.VY = -b.VY
	} else if b.Y-BallRadius <= 0 {
		b.Y = BallRadius
		b.VY = -b.VY
	}

	if b.VX < 0 {
		if g.onPaddle(g.Left) && b.X-BallRadius <= g.Left.X+PaddleWidth {
			g.bounce(g.Left)
			g.Info.LeftHits++
		}
	} else {
		if g.onPaddle(g.Right) && b.X+BallRadius >= g.Right.X {
			g.bounce(g.Right)
			g.Info.RightHits++
		}
	}
}

func (g *Game) onPaddle(p Paddle) bool {
	return g.Ball.Y >= p.Y && g.Ball.Y <= p.Y+PaddleHeight
}

// bounce reverses the ball and angles it by where it struck the paddle.
func (g *Game) bounce(p Paddle) {
	b := &g.Ball
	b.VX = -b.VX
	reduction := (PaddleHeight / 2) / BallMaxVel
	b.VY = (b.Y - p.Centre()) / reduction
}

func (g *Game) handleGravityBoxes() {
	b := &g.Ball
	if g.inBox < 0 {
		for i, box := range g.Boxes {
			if box.Contains(b.X, b.Y) {
				b.G = -b.G
				g.inBox = i
				return
			}
		}
		return
	}
	box := g.Boxes[g.inBox]
	if b.X < box.X || b.X > box.X+box.W || b.Y < box.Y || b.Y > box.Y+box.H {
		g.inBox = -1
	}
}
