package pong

import (
	"fmt"
	"math"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/trackrunner/neural"
)

// Decision is one paddle command per tick.
type Decision uint8

const (
	Stay Decision = iota
	Up
	Down
)

func (d Decision) String() string {
	switch d {
	case Stay:
		return "stay"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("decision(%d)", uint8(d))
	}
}

// NumInputs and NumOutputs fix the network shape of a paddle controller.
const (
	NumInputs  = 4 // own paddle y, ball y, |own paddle x - ball x|, other paddle y
	NumOutputs = 3 // stay, up, down
)

// Player picks a paddle move from the table state.
type Player interface {
	Decide(g *Game, left bool) (Decision, error)
}

// apply moves the chosen paddle; refused moves are ignored.
func apply(g *Game, left bool, d Decision) {
	switch d {
	case Up:
		g.MovePaddle(left, true)
	case Down:
		g.MovePaddle(left, false)
	}
}

// Observe fills dst with the controller inputs for one side, scaled to the table.
func Observe(g *Game, left bool, dst []float64) []float64 {
	own, other := g.Right, g.Left
	if left {
		own, other = g.Left, g.Right
	}
	if cap(dst) < NumInputs {
		dst = make([]float64, NumInputs)
	}
	dst = dst[:NumInputs]
	dst[0] = own.Y / g.Height
	dst[1] = g.Ball.Y / g.Height
	dst[2] = math.Abs(own.X-g.Ball.X) / g.Width
	dst[3] = other.Y / g.Height
	return dst
}

// NetworkPlayer moves a paddle with an evolved network; the largest output wins.
type NetworkPlayer struct {
	brain *neural.BrainController
	obs   []float64
}

// NewNetworkPlayer builds the network for genome.
func NewNetworkPlayer(genome *genetics.Genome) (*NetworkPlayer, error) {
	brain, err := neural.NewBrainController(genome)
	if err != nil {
		return nil, fmt.Errorf("pong player %d: %w", genome.Id, err)
	}
	if brain.Outputs() != NumOutputs {
		return nil, fmt.Errorf("pong player %d: %d outputs, want %d", genome.Id, brain.Outputs(), NumOutputs)
	}
	return &NetworkPlayer{brain: brain, obs: make([]float64, NumInputs)}, nil
}

// Decide implements Player.
func (p *NetworkPlayer) Decide(g *Game, left bool) (Decision, error) {
	p.obs = Observe(g, left, p.obs)
	out, err := p.brain.Think(p.obs)
	if err != nil {
		return Stay, err
	}
	return Decision(argmax(out)), nil
}

// argmax returns the first index of the largest value.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// OptimalPlayer extrapolates the ball's straight-line path, folding it at the
// walls, and centres the paddle on the predicted arrival point. While the ball
// moves away it drifts back to mid-table.
type OptimalPlayer struct {
	pastX, pastY float64
	primed       bool
}

// Decide implements Player.
func (p *OptimalPlayer) Decide(g *Game, left bool) (Decision, error) {
	ballX, paddle := g.Ball.X, g.Right
	if left {
		// Mirror so the paddle always defends the right edge.
		ballX, paddle = g.Width-g.Ball.X, g.Left
	}
	if !p.primed {
		p.pastX, p.pastY, p.primed = ballX, g.Ball.Y, true
	}
	d := PlayOptimal(g.Width, g.Height, p.pastX, p.pastY, ballX, g.Ball.Y, paddle.Y)
	p.pastX, p.pastY = ballX, g.Ball.Y
	return d, nil
}

// PlayOptimal is the analytic right-paddle policy given the ball's previous
// and current positions.
func PlayOptimal(width, height, pastX, pastY, ballX, ballY, paddleY float64) Decision {
	centre := paddleY + PaddleHeight/2
	target := height / 2

	if ballX > pastX {
		raw := (ballY-pastY)/(ballX-pastX)*(width-ballX) + ballY
		target = floorMod(raw, height)
		if floorMod(math.Floor(raw/height), 2) == 1 {
			target = height - target
		}
	}

	switch {
	case target < centre:
		return Up
	case target > centre:
		return Down
	default:
		return Stay
	}
}

// floorMod is the modulus with the sign of m.
func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
