package pong

// Paddle constants.
const (
	PaddleVel    = 4.0
	PaddleWidth  = 20.0
	PaddleHeight = 100.0
)

// Paddle is a vertical bat; X, Y is its top-left corner.
type Paddle struct {
	X, Y    float64
	originY float64
}

func newPaddle(x, y float64) Paddle {
	return Paddle{X: x, Y: y, originY: y}
}

// Centre returns the paddle's vertical midpoint.
func (p Paddle) Centre() float64 {
	return p.Y + PaddleHeight/2
}

func (p *Paddle) move(up bool) {
	if up {
		p.Y -= PaddleVel
	} else {
		p.Y += PaddleVel
	}
}

func (p *Paddle) reset() {
	p.Y = p.originY
}
