package neural

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/trackrunner/components"
)

// Pilot drives a vehicle with an evolved network.
type Pilot struct {
	brain  *BrainController
	mapper ActionMapper
}

// NewPilot builds the network for genome and pairs it with mapper.
func NewPilot(genome *genetics.Genome, mapper ActionMapper) (*Pilot, error) {
	brain, err := NewBrainController(genome)
	if err != nil {
		return nil, fmt.Errorf("pilot %d: %w", genome.Id, err)
	}
	return &Pilot{brain: brain, mapper: mapper}, nil
}

// Act runs the network on one observation.
func (p *Pilot) Act(obs []float64) (components.Action, error) {
	out, err := p.brain.Think(obs)
	if err != nil {
		return components.Action{}, err
	}
	return p.mapper.Map(out), nil
}

// Brain returns the underlying network controller.
func (p *Pilot) Brain() *BrainController {
	return p.brain
}
