package neural

import (
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// Species represents a group of genetically similar organisms.
type Species struct {
	ID             int
	Representative *genetics.Genome // Used for compatibility comparisons
	Members        []int            // Population indices of members
	BestFitness    float64
	AvgFitness     float64
	TotalFitness   float64
	Age            int // Generations since species was created
	Staleness      int // Generations without fitness improvement
	OffspringCount int // Total offspring produced by this species
}

// SpeciesManager manages speciation for the population.
type SpeciesManager struct {
	Species       []*Species
	opts          *neat.Options
	nextSpeciesID int
	generation    int
}

// NewSpeciesManager creates a new species manager.
func NewSpeciesManager(opts *neat.Options) *SpeciesManager {
	return &SpeciesManager{
		Species:       make([]*Species, 0),
		opts:          opts,
		nextSpeciesID: 1,
	}
}

// AssignSpecies finds or creates a species for the given genome.
// Returns the species ID.
func (sm *SpeciesManager) AssignSpecies(genome *genetics.Genome) int {
	if genome == nil {
		return 0
	}

	for _, sp := range sm.Species {
		if sp.Representative == nil {
			continue
		}
		if GenomeCompatibility(genome, sp.Representative, sm.opts) < sm.opts.CompatThreshold {
			return sp.ID
		}
	}

	newSpecies := &Species{
		ID:             sm.nextSpeciesID,
		Representative: genome,
		Members:        make([]int, 0),
	}
	sm.nextSpeciesID++
	sm.Species = append(sm.Species, newSpecies)

	return newSpecies.ID
}

// GetSpecies returns the species with the given ID, or nil.
func (sm *SpeciesManager) GetSpecies(speciesID int) *Species {
	for _, sp := range sm.Species {
		if sp.ID == speciesID {
			return sp
		}
	}
	return nil
}

// AddMember adds an organism to its species.
func (sm *SpeciesManager) AddMember(speciesID int, member int) {
	if sp := sm.GetSpecies(speciesID); sp != nil {
		sp.Members = append(sp.Members, member)
	}
}

// ClearMembers empties every species before a new generation is assigned.
// Representatives are kept.
func (sm *SpeciesManager) ClearMembers() {
	for _, sp := range sm.Species {
		sp.Members = sp.Members[:0]
	}
}

// RecordOffspring increments the offspring count for a species.
func (sm *SpeciesManager) RecordOffspring(speciesID int) {
	if sp := sm.GetSpecies(speciesID); sp != nil {
		sp.OffspringCount++
	}
}

// AccumulateFitness adds to the total fitness for a species member.
func (sm *SpeciesManager) AccumulateFitness(speciesID int, fitness float64) {
	sp := sm.GetSpecies(speciesID)
	if sp == nil {
		return
	}
	sp.TotalFitness += fitness
	if fitness > sp.BestFitness {
		sp.BestFitness = fitness
		sp.Staleness = 0
	}
}

// EndGeneration processes end-of-generation updates.
// Should be called once per generation after all fitness values are accumulated.
func (sm *SpeciesManager) EndGeneration() {
	sm.generation++

	for _, sp := range sm.Species {
		sp.Age++
		if len(sp.Members) > 0 {
			sp.AvgFitness = sp.TotalFitness / float64(len(sp.Members))
		}
		sp.Staleness++
		sp.TotalFitness = 0
	}

	sm.RemoveStaleSpecies()
}

// RemoveStaleSpecies removes species that have no members or are too stale.
// The species holding the best fitness is never removed.
func (sm *SpeciesManager) RemoveStaleSpecies() {
	var best *Species
	for _, sp := range sm.Species {
		if len(sp.Members) > 0 && (best == nil || sp.BestFitness > best.BestFitness) {
			best = sp
		}
	}

	active := make([]*Species, 0, len(sm.Species))
	for _, sp := range sm.Species {
		if len(sp.Members) > 0 && (sp == best || sp.Staleness < sm.opts.DropOffAge) {
			active = append(active, sp)
		}
	}
	sm.Species = active
}

// SpeciesStats contains summary statistics about all species.
type SpeciesStats struct {
	Count            int
	TotalMembers     int
	LargestSize      int
	SmallestSize     int
	AverageStaleness float64
	Generation       int
	TotalOffspring   int
	BestFitness      float64
}

// GetStats returns summary statistics about species distribution.
func (sm *SpeciesManager) GetStats() SpeciesStats {
	stats := SpeciesStats{Count: len(sm.Species), Generation: sm.generation}
	if stats.Count == 0 {
		return stats
	}

	totalStaleness := 0
	for i, sp := range sm.Species {
		size := len(sp.Members)
		stats.TotalMembers += size
		stats.TotalOffspring += sp.OffspringCount
		stats.BestFitness = max(stats.BestFitness, sp.BestFitness)
		stats.LargestSize = max(stats.LargestSize, size)
		if i == 0 || size < stats.SmallestSize {
			stats.SmallestSize = size
		}
		totalStaleness += sp.Staleness
	}
	stats.AverageStaleness = float64(totalStaleness) / float64(stats.Count)

	return stats
}

// SpeciesInfo contains display information about a single species.
type SpeciesInfo struct {
	ID        int
	Size      int
	BestFit   float64
	AvgFit    float64
	Age       int
	Staleness int
	Offspring int
}

// GetTopSpecies returns info about the top N species by size.
func (sm *SpeciesManager) GetTopSpecies(n int) []SpeciesInfo {
	if len(sm.Species) == 0 {
		return nil
	}

	sorted := make([]*Species, len(sm.Species))
	copy(sorted, sm.Species)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Members) > len(sorted[j].Members)
	})

	n = min(n, len(sorted))
	result := make([]SpeciesInfo, n)
	for i, sp := range sorted[:n] {
		result[i] = SpeciesInfo{
			ID:        sp.ID,
			Size:      len(sp.Members),
			BestFit:   sp.BestFitness,
			AvgFit:    sp.AvgFitness,
			Age:       sp.Age,
			Staleness: sp.Staleness,
			Offspring: sp.OffspringCount,
		}
	}

	return result
}
