package neural

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// eliteMinSize is the smallest species whose champion is copied unchanged.
const eliteMinSize = 5

// Organism is one member of the evolving population.
type Organism struct {
	Genome    *genetics.Genome
	Fitness   float64
	SpeciesID int
}

// Evolver runs generational NEAT over goNEAT genomes: speciation by
// compatibility distance, fitness sharing within species, elitism and
// crossover/mutation of the surviving fraction.
type Evolver struct {
	cfg        *Config
	popSize    int
	rng        *rand.Rand
	idGen      *GenomeIDGenerator
	species    *SpeciesManager
	pop        []*Organism
	generation int
}

// NewEvolver creates a random initial population of popSize genomes.
func NewEvolver(cfg *Config, popSize int, rng *rand.Rand) (*Evolver, error) {
	if cfg == nil || cfg.NEAT == nil {
		return nil, fmt.Errorf("evolver: missing NEAT options")
	}
	if cfg.Brain.Inputs <= 0 || cfg.Brain.Outputs <= 0 {
		return nil, fmt.Errorf("evolver: network shape %dx%d", cfg.Brain.Inputs, cfg.Brain.Outputs)
	}
	if popSize <= 0 {
		return nil, fmt.Errorf("evolver: population must be positive, got %d", popSize)
	}

	e := &Evolver{
		cfg:     cfg,
		popSize: popSize,
		rng:     rng,
		idGen:   NewGenomeIDGenerator(int64(cfg.Brain.Inputs*cfg.Brain.Outputs) + 1),
		species: NewSpeciesManager(cfg.NEAT),
		pop:     make([]*Organism, popSize),
	}
	for i := range e.pop {
		g := NewBrainGenome(e.idGen.NextID(), cfg.Brain.Inputs, cfg.Brain.Outputs, cfg.Brain.InitialConnectionProb, rng)
		e.pop[i] = &Organism{Genome: g}
	}
	e.speciate()
	return e, nil
}

// Population returns the current generation. Callers set Fitness on each
// organism before calling Epoch.
func (e *Evolver) Population() []*Organism {
	return e.pop
}

// Generation returns the number of completed epochs.
func (e *Evolver) Generation() int {
	return e.generation
}

// SpeciesCount returns the number of living species.
func (e *Evolver) SpeciesCount() int {
	return len(e.species.Species)
}

// SpeciesStats returns species summary statistics.
func (e *Evolver) SpeciesStats() SpeciesStats {
	return e.species.GetStats()
}

// TopSpecies returns the n largest species.
func (e *Evolver) TopSpecies(n int) []SpeciesInfo {
	return e.species.GetTopSpecies(n)
}

// Champion returns the fittest organism of the current generation.
func (e *Evolver) Champion() *Organism {
	var best *Organism
	for _, org := range e.pop {
		if best == nil || org.Fitness > best.Fitness {
			best = org
		}
	}
	return best
}

// speciate assigns every organism of the current population to a species.
func (e *Evolver) speciate() {
	e.species.ClearMembers()
	for i, org := range e.pop {
		org.SpeciesID = e.species.AssignSpecies(org.Genome)
		e.species.AddMember(org.SpeciesID, i)
	}
}

// breedingGroup is one species' members sorted by fitness, best first.
type breedingGroup struct {
	speciesID int
	members   []*Organism
	mean      float64
}

// Epoch replaces the population with the next generation.
func (e *Evolver) Epoch() error {
	for _, org := range e.pop {
		e.species.AccumulateFitness(org.SpeciesID, math.Max(org.Fitness, 0))
	}
	e.species.EndGeneration()

	groups := e.breedingGroups()
	if len(groups) == 0 {
		return fmt.Errorf("evolver: no species left to breed")
	}
	quotas := e.quotas(groups)
	champion := e.Champion()
	keepChampion(groups, quotas, champion)

	next := make([]*Organism, 0, e.popSize)
	for gi, g := range groups {
		n := quotas[gi]
		if n == 0 {
			continue
		}

		best := g.members[0]
		if len(g.members) >= eliteMinSize || best == champion {
			clone, err := CloneGenome(best.Genome, e.idGen.NextID())
			if err != nil {
				return err
			}
			next = append(next, &Organism{Genome: clone})
			n--
		}

		survivors := int(math.Ceil(e.cfg.NEAT.SurvivalThresh * float64(len(g.members))))
		parents := g.members[:max(1, min(survivors, len(g.members)))]
		for ; n > 0; n-- {
			child, err := e.offspring(parents)
			if err != nil {
				return fmt.Errorf("evolver: species %d: %w", g.speciesID, err)
			}
			e.species.RecordOffspring(g.speciesID)
			next = append(next, &Organism{Genome: child})
		}
	}

	e.pop = next
	e.generation++
	e.speciate()
	return nil
}

// breedingGroups groups the population by surviving species and moves each
// species representative to its current best member.
func (e *Evolver) breedingGroups() []breedingGroup {
	byID := make(map[int][]*Organism)
	for _, org := range e.pop {
		byID[org.SpeciesID] = append(byID[org.SpeciesID], org)
	}

	groups := make([]breedingGroup, 0, len(e.species.Species))
	for _, sp := range e.species.Species {
		members := byID[sp.ID]
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool { return members[i].Fitness > members[j].Fitness })
		sum := 0.0
		for _, m := range members {
			sum += math.Max(m.Fitness, 0)
		}
		sp.Representative = members[0].Genome
		groups = append(groups, breedingGroup{
			speciesID: sp.ID,
			members:   members,
			mean:      sum / float64(len(members)),
		})
	}
	return groups
}

// quotas splits the population between groups in proportion to their shared
// (mean) fitness using largest remainders. With no fitness signal at all the
// split follows species size.
func (e *Evolver) quotas(groups []breedingGroup) []int {
	weights := make([]float64, len(groups))
	total := 0.0
	for i, g := range groups {
		weights[i] = g.mean
		total += g.mean
	}
	if total <= 0 {
		total = 0
		for i, g := range groups {
			weights[i] = float64(len(g.members))
			total += weights[i]
		}
	}

	quotas := make([]int, len(groups))
	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, len(groups))
	assigned := 0
	for i, w := range weights {
		exact := w / total * float64(e.popSize)
		quotas[i] = int(math.Floor(exact))
		assigned += quotas[i]
		rems[i] = remainder{idx: i, frac: exact - math.Floor(exact)}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; assigned < e.popSize; i = (i + 1) % len(rems) {
		quotas[rems[i].idx]++
		assigned++
	}
	return quotas
}

// keepChampion gives the champion's group at least one slot, taken from the
// largest quota.
func keepChampion(groups []breedingGroup, quotas []int, champion *Organism) {
	largest := 0
	for i, g := range groups {
		if quotas[i] > quotas[largest] {
			largest = i
		}
		if g.members[0] == champion && quotas[i] > 0 {
			return
		}
	}
	for i, g := range groups {
		if g.members[0] == champion && quotas[largest] > 1 {
			quotas[largest]--
			quotas[i]++
			return
		}
	}
}

// offspring breeds one child from the given parents.
func (e *Evolver) offspring(parents []*Organism) (*genetics.Genome, error) {
	opts := e.cfg.NEAT
	mom := parents[e.rng.Intn(len(parents))]

	var child *genetics.Genome
	var err error
	if len(parents) == 1 || e.rng.Float64() < opts.MutateOnlyProb {
		if child, err = CloneGenome(mom.Genome, e.idGen.NextID()); err != nil {
			return nil, err
		}
		if _, err = MutateGenome(child, opts, e.idGen, e.rng); err != nil {
			return nil, err
		}
	} else {
		dad := parents[e.rng.Intn(len(parents))]
		for dad == mom {
			dad = parents[e.rng.Intn(len(parents))]
		}
		child, err = CrossoverGenomes(mom.Genome, dad.Genome, mom.Fitness, dad.Fitness, e.idGen.NextID(), e.rng)
		if err != nil {
			return nil, err
		}
		if e.rng.Float64() >= opts.MateOnlyProb {
			if _, err = MutateGenome(child, opts, e.idGen, e.rng); err != nil {
				return nil, err
			}
		}
	}

	repairOutputs(child, e.cfg.Brain.Inputs, e.cfg.Brain.Outputs, e.rng)
	return child, nil
}
