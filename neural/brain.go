package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// fallbackDepth is used when the network depth cannot be measured (recurrent links).
const fallbackDepth = 5

// BrainController wraps a goNEAT network for runtime evaluation.
// A controller is not safe for concurrent use; each episode gets its own.
type BrainController struct {
	Genome  *genetics.Genome
	network *network.Network
	inputs  int
	outputs int
	depth   int
}

// NewBrainController creates a controller from a genome.
func NewBrainController(genome *genetics.Genome) (*BrainController, error) {
	if genome == nil {
		return nil, fmt.Errorf("nil genome")
	}
	b := &BrainController{Genome: genome}
	for _, node := range genome.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			b.inputs++
		case network.OutputNeuron:
			b.outputs++
		}
	}
	if err := b.RebuildNetwork(); err != nil {
		return nil, err
	}
	return b, nil
}

// Inputs returns the number of sensor nodes.
func (b *BrainController) Inputs() int {
	return b.inputs
}

// Outputs returns the number of output nodes.
func (b *BrainController) Outputs() int {
	return b.outputs
}

// Think loads the inputs, activates the network to its full depth and
// returns the outputs. The network is flushed afterwards so every call is
// independent of the previous one.
func (b *BrainController) Think(inputs []float64) ([]float64, error) {
	if len(inputs) != b.inputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", b.inputs, len(inputs))
	}

	if err := b.network.LoadSensors(inputs); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	for i := 0; i < b.depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()

	if _, err := b.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	return outputs, nil
}

// RebuildNetwork recreates the phenotype network from the genome.
// Call this after the genome has been mutated.
func (b *BrainController) RebuildNetwork() error {
	phenotype, err := b.Genome.Genesis(b.Genome.Id)
	if err != nil {
		return fmt.Errorf("failed to build network from genome: %w", err)
	}
	depth, err := phenotype.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = fallbackDepth
	}
	b.network = phenotype
	b.depth = depth
	return nil
}

// NodeCount returns the number of nodes in the network.
func (b *BrainController) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainController) LinkCount() int {
	return b.network.LinkCount()
}

// NewBrainGenome creates a genome with linear input nodes and steepened sigmoid
// outputs. Each input-output pair is connected with probability connectionProb;
// pair (i, j) always owns innovation number i*outputs+j+1 so initial genomes align.
func NewBrainGenome(id, inputs, outputs int, connectionProb float64, rng *rand.Rand) *genetics.Genome {
	nodes := make([]*network.NNode, 0, inputs+outputs)

	// Input nodes (IDs 1 to inputs)
	for i := 1; i <= inputs; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}

	// Output nodes (IDs inputs+1 to inputs+outputs)
	for i := 1; i <= outputs; i++ {
		node := network.NewNNode(inputs+i, network.OutputNeuron)
		node.ActivationType = neatmath.SigmoidSteepenedActivation
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, inputs*outputs)
	for i := 0; i < inputs; i++ {
		for j := 0; j < outputs; j++ {
			if rng.Float64() >= connectionProb {
				continue
			}
			genes = append(genes, genetics.NewGeneWithTrait(
				nil,
				rng.Float64()*4-2, // [-2, 2]
				nodes[i],
				nodes[inputs+j],
				false,
				initialInnovation(i, j, outputs),
				0,
			))
		}
	}

	// Every output needs at least one incoming link
	for j := 0; j < outputs; j++ {
		if hasIncoming(genes, nodes[inputs+j].Id) {
			continue
		}
		i := rng.Intn(inputs)
		genes = append(genes, genetics.NewGeneWithTrait(
			nil,
			rng.Float64()*2-1,
			nodes[i],
			nodes[inputs+j],
			false,
			initialInnovation(i, j, outputs),
			0,
		))
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// NewDenseBrainGenome creates a fully connected input-output genome.
func NewDenseBrainGenome(id, inputs, outputs int, rng *rand.Rand) *genetics.Genome {
	return NewBrainGenome(id, inputs, outputs, 1, rng)
}

func initialInnovation(i, j, outputs int) int64 {
	return int64(i*outputs + j + 1)
}

func hasIncoming(genes []*genetics.Gene, nodeID int) bool {
	for _, g := range genes {
		if g.Link.OutNode.Id == nodeID {
			return true
		}
	}
	return false
}
