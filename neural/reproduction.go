package neural

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Mutation constants
const (
	perturbProb         = 0.9 // Probability of perturbing vs replacing weights
	maxConnectionWeight = 8.0 // Maximum absolute connection weight
	maxLinkAttempts     = 20  // Maximum attempts to find a new connection
)

// GenomeIDGenerator hands out genome IDs and innovation numbers.
type GenomeIDGenerator struct {
	nextID       int
	nextInnovNum int64
}

// NewGenomeIDGenerator creates a generator whose first innovation number is
// firstInnovation. Innovations below it are reserved for the initial links.
func NewGenomeIDGenerator(firstInnovation int64) *GenomeIDGenerator {
	return &GenomeIDGenerator{
		nextID:       1,
		nextInnovNum: firstInnovation,
	}
}

// NextID returns the next unique genome ID.
func (g *GenomeIDGenerator) NextID() int {
	id := g.nextID
	g.nextID++
	return id
}

// NextInnovation returns the next innovation number.
func (g *GenomeIDGenerator) NextInnovation() int64 {
	num := g.nextInnovNum
	g.nextInnovNum++
	return num
}

// CrossoverGenomes performs NEAT-style crossover between two parent genomes.
// Genes are aligned by innovation number.
// The more fit parent contributes disjoint/excess genes.
func CrossoverGenomes(parent1, parent2 *genetics.Genome, fitness1, fitness2 float64, childID int, rng *rand.Rand) (*genetics.Genome, error) {
	if parent1 == nil || parent2 == nil {
		return nil, fmt.Errorf("cannot crossover nil genomes")
	}

	primary, secondary := parent1, parent2
	if fitness2 > fitness1 {
		primary, secondary = parent2, parent1
	}

	primaryGenes := genesByInnovation(primary)
	secondaryGenes := genesByInnovation(secondary)

	innovations := make([]int64, 0, len(primaryGenes)+len(secondaryGenes))
	for innov := range primaryGenes {
		innovations = append(innovations, innov)
	}
	for innov := range secondaryGenes {
		if _, ok := primaryGenes[innov]; !ok {
			innovations = append(innovations, innov)
		}
	}
	sort.Slice(innovations, func(i, j int) bool { return innovations[i] < innovations[j] })

	childNodeMap := make(map[int]*network.NNode)
	for _, node := range primary.Nodes {
		childNodeMap[node.Id] = copyNode(node)
	}
	for _, node := range secondary.Nodes {
		if _, exists := childNodeMap[node.Id]; !exists {
			childNodeMap[node.Id] = copyNode(node)
		}
	}

	childGenes := make([]*genetics.Gene, 0, len(innovations))
	for _, innov := range innovations {
		pGene := primaryGenes[innov]
		sGene := secondaryGenes[innov]

		var selected *genetics.Gene
		enabled := true
		switch {
		case pGene != nil && sGene != nil:
			selected = pGene
			if rng.Float64() < 0.5 {
				selected = sGene
			}
			// A link disabled in either parent stays disabled 75% of the time
			if (!pGene.IsEnabled || !sGene.IsEnabled) && rng.Float64() < 0.75 {
				enabled = false
			}
		case pGene != nil:
			selected = pGene
			enabled = pGene.IsEnabled
		case fitness1 == fitness2 && rng.Float64() < 0.5:
			selected = sGene
			enabled = sGene.IsEnabled
		}
		if selected == nil {
			continue
		}

		inNode := childNodeMap[selected.Link.InNode.Id]
		outNode := childNodeMap[selected.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		child := genetics.NewGeneWithTrait(
			nil,
			selected.Link.ConnectionWeight,
			inNode,
			outNode,
			selected.Link.IsRecurrent,
			selected.InnovationNum,
			selected.MutationNum,
		)
		// Parents may disagree on hidden node wiring; drop links that would close a loop
		child.IsEnabled = enabled && !reaches(childGenes, outNode.Id, inNode.Id)
		childGenes = append(childGenes, child)
	}

	childNodes := make([]*network.NNode, 0, len(childNodeMap))
	for _, node := range childNodeMap {
		childNodes = append(childNodes, node)
	}
	sort.Slice(childNodes, func(i, j int) bool { return childNodes[i].Id < childNodes[j].Id })

	return genetics.NewGenome(childID, nil, childNodes, childGenes), nil
}

func genesByInnovation(g *genetics.Genome) map[int64]*genetics.Gene {
	genes := make(map[int64]*genetics.Gene, len(g.Genes))
	for _, gene := range g.Genes {
		genes[gene.InnovationNum] = gene
	}
	return genes
}

func copyNode(node *network.NNode) *network.NNode {
	newNode := network.NewNNode(node.Id, node.NeuronType)
	newNode.ActivationType = node.ActivationType
	return newNode
}

func mutateWeights(genome *genetics.Genome, power float64, rng *rand.Rand) {
	for _, gene := range genome.Genes {
		if rng.Float64() < perturbProb {
			gene.Link.ConnectionWeight += (rng.Float64()*2 - 1) * power
		} else {
			gene.Link.ConnectionWeight = rng.Float64()*4 - 2
		}
		gene.Link.ConnectionWeight = clampWeight(gene.Link.ConnectionWeight)
	}
}

// clampWeight clamps a connection weight to the valid range.
func clampWeight(w float64) float64 {
	return math.Max(-maxConnectionWeight, math.Min(maxConnectionWeight, w))
}

func addNode(genome *genetics.Genome, idGen *GenomeIDGenerator, rng *rand.Rand) bool {
	enabledGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		if gene.IsEnabled {
			enabledGenes = append(enabledGenes, gene)
		}
	}
	if len(enabledGenes) == 0 {
		return false
	}

	split := enabledGenes[rng.Intn(len(enabledGenes))]
	split.IsEnabled = false

	maxNodeID := 0
	for _, node := range genome.Nodes {
		maxNodeID = max(maxNodeID, node.Id)
	}

	activators := hiddenActivators()
	newNode := network.NewNNode(maxNodeID+1, network.HiddenNeuron)
	newNode.ActivationType = activators[rng.Intn(len(activators))]

	// old_in -> new (weight 1), new -> old_out (old weight)
	in := genetics.NewGeneWithTrait(nil, 1.0, split.Link.InNode, newNode, false, idGen.NextInnovation(), 0)
	out := genetics.NewGeneWithTrait(nil, split.Link.ConnectionWeight, newNode, split.Link.OutNode, false, idGen.NextInnovation(), 0)

	genome.Nodes = append(genome.Nodes, newNode)
	genome.Genes = append(genome.Genes, in, out)
	return true
}

func addLink(genome *genetics.Genome, idGen *GenomeIDGenerator, rng *rand.Rand) bool {
	var sources, targets []*network.NNode
	for _, node := range genome.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			sources = append(sources, node)
		case network.OutputNeuron:
			targets = append(targets, node)
		case network.HiddenNeuron:
			sources = append(sources, node)
			targets = append(targets, node)
		}
	}
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}

	existing := make(map[int64]bool, len(genome.Genes))
	for _, gene := range genome.Genes {
		existing[connectionKey(gene.Link.InNode.Id, gene.Link.OutNode.Id)] = true
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		source := sources[rng.Intn(len(sources))]
		target := targets[rng.Intn(len(targets))]
		if source.Id == target.Id || existing[connectionKey(source.Id, target.Id)] {
			continue
		}
		// Feed-forward only
		if reaches(genome.Genes, target.Id, source.Id) {
			continue
		}

		genome.Genes = append(genome.Genes, genetics.NewGeneWithTrait(
			nil,
			rng.Float64()*4-2,
			source,
			target,
			false,
			idGen.NextInnovation(),
			0,
		))
		return true
	}

	return false
}

// reaches reports whether node to is reachable from node from over enabled links.
func reaches(genes []*genetics.Gene, from, to int) bool {
	if from == to {
		return true
	}
	next := make(map[int][]int)
	for _, g := range genes {
		if g.IsEnabled {
			next[g.Link.InNode.Id] = append(next[g.Link.InNode.Id], g.Link.OutNode.Id)
		}
	}
	seen := map[int]bool{from: true}
	stack := []int{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, m := range next[n] {
			if m == to {
				return true
			}
			if !seen[m] {
				seen[m] = true
				stack = append(stack, m)
			}
		}
	}
	return false
}

// connectionKey creates a unique key for a connection between two nodes.
func connectionKey(inID, outID int) int64 {
	return int64(inID)<<32 | int64(outID)
}

func toggleEnable(genome *genetics.Genome, rng *rand.Rand) {
	if len(genome.Genes) == 0 {
		return
	}

	gene := genome.Genes[rng.Intn(len(genome.Genes))]
	gene.IsEnabled = !gene.IsEnabled
	if gene.IsEnabled {
		if reaches(genome.Genes, gene.Link.OutNode.Id, gene.Link.InNode.Id) {
			gene.IsEnabled = false
		}
		return
	}

	// Keep every output reachable
	for _, g := range genome.Genes {
		if g.Link.OutNode.Id == gene.Link.OutNode.Id && g.IsEnabled {
			return
		}
	}
	gene.IsEnabled = true
}

// MutateGenome applies weight and structural mutations with the option probabilities.
func MutateGenome(genome *genetics.Genome, opts *neat.Options, idGen *GenomeIDGenerator, rng *rand.Rand) (bool, error) {
	if genome == nil {
		return false, fmt.Errorf("cannot mutate nil genome")
	}

	mutated := false

	if rng.Float64() < opts.MutateAddNodeProb && addNode(genome, idGen, rng) {
		mutated = true
	}
	if rng.Float64() < opts.MutateAddLinkProb && addLink(genome, idGen, rng) {
		mutated = true
	}
	if rng.Float64() < opts.MutateLinkWeightsProb {
		mutateWeights(genome, opts.WeightMutPower, rng)
		mutated = true
	}
	if rng.Float64() < opts.MutateToggleEnableProb {
		toggleEnable(genome, rng)
		mutated = true
	}

	return mutated, nil
}

func hiddenActivators() []neatmath.NodeActivationType {
	return []neatmath.NodeActivationType{
		neatmath.SigmoidSteepenedActivation,
		neatmath.TanhActivation,
		neatmath.LinearActivation,
	}
}

// repairOutputs makes every output reachable from the inputs again, enabling or
// adding the direct input link with its reserved innovation number. Node IDs
// follow NewBrainGenome.
func repairOutputs(genome *genetics.Genome, inputs, outputs int, rng *rand.Rand) {
	nodes := make(map[int]*network.NNode, len(genome.Nodes))
	for _, n := range genome.Nodes {
		nodes[n.Id] = n
	}

	for j := 0; j < outputs; j++ {
		outID := inputs + j + 1
		if fedByInput(genome.Genes, outID, inputs) {
			continue
		}
		i := rng.Intn(inputs)
		innov := initialInnovation(i, j, outputs)
		repaired := false
		for _, g := range genome.Genes {
			if g.InnovationNum == innov {
				g.IsEnabled = true
				repaired = true
				break
			}
		}
		if repaired || nodes[i+1] == nil || nodes[outID] == nil {
			continue
		}
		genome.Genes = append(genome.Genes, genetics.NewGeneWithTrait(
			nil, rng.Float64()*2-1, nodes[i+1], nodes[outID], false, innov, 0,
		))
	}
}

// fedByInput reports whether any input node (IDs 1..inputs) reaches node id.
func fedByInput(genes []*genetics.Gene, id, inputs int) bool {
	for in := 1; in <= inputs; in++ {
		if reaches(genes, in, id) {
			return true
		}
	}
	return false
}

// CloneGenome creates a deep copy of a genome with a new ID.
func CloneGenome(genome *genetics.Genome, newID int) (*genetics.Genome, error) {
	if genome == nil {
		return nil, fmt.Errorf("cannot clone nil genome")
	}

	nodeMap := make(map[int]*network.NNode, len(genome.Nodes))
	newNodes := make([]*network.NNode, 0, len(genome.Nodes))
	for _, node := range genome.Nodes {
		newNode := copyNode(node)
		nodeMap[node.Id] = newNode
		newNodes = append(newNodes, newNode)
	}

	newGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		inNode := nodeMap[gene.Link.InNode.Id]
		outNode := nodeMap[gene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		newGene := genetics.NewGeneWithTrait(
			nil,
			gene.Link.ConnectionWeight,
			inNode,
			outNode,
			gene.Link.IsRecurrent,
			gene.InnovationNum,
			gene.MutationNum,
		)
		newGene.IsEnabled = gene.IsEnabled
		newGenes = append(newGenes, newGene)
	}

	return genetics.NewGenome(newID, nil, newNodes, newGenes), nil
}

// GenomeCompatibility calculates the compatibility distance between two genomes.
func GenomeCompatibility(g1, g2 *genetics.Genome, opts *neat.Options) float64 {
	if g1 == nil || g2 == nil {
		return math.MaxFloat64
	}

	genes1 := genesByInnovation(g1)
	genes2 := genesByInnovation(g2)

	var maxInnov1, maxInnov2 int64
	for innov := range genes1 {
		maxInnov1 = max(maxInnov1, innov)
	}
	for innov := range genes2 {
		maxInnov2 = max(maxInnov2, innov)
	}

	var matching, disjoint, excess int
	weightDiff := 0.0

	for innov, gene1 := range genes1 {
		if gene2, exists := genes2[innov]; exists {
			matching++
			weightDiff += math.Abs(gene1.Link.ConnectionWeight - gene2.Link.ConnectionWeight)
		} else if innov > maxInnov2 {
			excess++
		} else {
			disjoint++
		}
	}
	for innov := range genes2 {
		if _, exists := genes1[innov]; exists {
			continue
		}
		if innov > maxInnov1 {
			excess++
		} else {
			disjoint++
		}
	}

	// Small genomes are not normalized
	n := float64(max(len(g1.Genes), len(g2.Genes)))
	if n < 20 {
		n = 1
	}

	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}

	return (opts.ExcessCoeff*float64(excess)+opts.DisjointCoeff*float64(disjoint))/n +
		opts.MutdiffCoeff*avgWeightDiff
}
