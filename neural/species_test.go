package neural

import (
	"testing"
)

func TestNewSpeciesManager(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())

	if len(sm.Species) != 0 {
		t.Errorf("expected 0 species, got %d", len(sm.Species))
	}
	if sm.generation != 0 {
		t.Errorf("expected generation 0, got %d", sm.generation)
	}
}

func TestSpeciesManagerAssignSpecies(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	genome := NewBrainGenome(1, testInputs, testOutputs, 0.3, testRNG())

	speciesID := sm.AssignSpecies(genome)
	if speciesID == 0 {
		t.Error("expected non-zero species ID")
	}
	if len(sm.Species) != 1 {
		t.Errorf("expected 1 species, got %d", len(sm.Species))
	}

	// Same genome should get same species
	if again := sm.AssignSpecies(genome); again != speciesID {
		t.Errorf("same genome should get same species: %d != %d", again, speciesID)
	}

	if sm.AssignSpecies(nil) != 0 {
		t.Error("nil genome should not be assigned")
	}
}

func TestSpeciesManagerSeparatesDistantGenomes(t *testing.T) {
	opts := DefaultNEATOptions()
	opts.CompatThreshold = 0.5
	sm := NewSpeciesManager(opts)
	rng := testRNG()

	dense := NewDenseBrainGenome(1, testInputs, testOutputs, rng)
	sparse := NewBrainGenome(2, testInputs, testOutputs, 0, rng)
	if sm.AssignSpecies(dense) == sm.AssignSpecies(sparse) {
		t.Error("dense and minimal genomes should be different species at a low threshold")
	}
}

func TestSpeciesManagerMembership(t *testing.T) {
	sm := NewSpeciesManager(DefaultNEATOptions())
	speciesID := sm.AssignSpecies(NewBrainGenome(1, testInputs, testOutputs, 0.3, testRNG()))

	sm.AddMember(speciesID, 0)
	sm.AddMember(speciesID, 1)
	sm.AddMember(speciesID, 2)

	sp := sm.GetSpecies(speciesID)
	if sp == nil {
		t.Fatal("species not found")
	}
	if len(sp.Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(sp.Members))
	}

	sm.ClearMembers()
	if len(sp.Members) != 0 {
		t.Errorf("expected no members after clear, got %d", len(sp.Members))
	}
	if sp.Representative == nil {
		t.Error("representative should survive ClearMembers")
	}
}

func TestSpeciesManagerStaleness(t *testing.T) {
	opts := DefaultNEATOptions()
	opts.DropOffAge = 3
	opts.CompatThreshold = 0.5
	sm := NewSpeciesManager(opts)
	rng := testRNG()

	good := sm.AssignSpecies(NewDenseBrainGenome(1, testInputs, testOutputs, rng))
	stale := sm.AssignSpecies(NewBrainGenome(2, testInputs, testOutputs, 0, rng))
	sm.AddMember(good, 0)
	sm.AddMember(stale, 1)

	for gen := 1; gen <= 5; gen++ {
		sm.AccumulateFitness(good, float64(gen))
		sm.AccumulateFitness(stale, 0.5)
		sm.EndGeneration()
	}

	if sm.GetSpecies(good) == nil {
		t.Error("improving species was removed")
	}
	if sm.GetSpecies(stale) != nil {
		t.Error("stale species should have been dropped")
	}

	stats := sm.GetStats()
	if stats.Count != 1 || stats.Generation != 5 || stats.BestFitness != 5 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSpeciesManagerKeepsBestSpecies(t *testing.T) {
	opts := DefaultNEATOptions()
	opts.DropOffAge = 1
	sm := NewSpeciesManager(opts)
	id := sm.AssignSpecies(NewDenseBrainGenome(1, testInputs, testOutputs, testRNG()))
	sm.AddMember(id, 0)

	for i := 0; i < 4; i++ {
		sm.AccumulateFitness(id, 1)
		sm.EndGeneration()
	}
	if len(sm.Species) != 1 {
		t.Error("the only (best) species must never be dropped")
	}
}

func TestGetTopSpecies(t *testing.T) {
	opts := DefaultNEATOptions()
	opts.CompatThreshold = 0.5
	sm := NewSpeciesManager(opts)
	rng := testRNG()

	a := sm.AssignSpecies(NewDenseBrainGenome(1, testInputs, testOutputs, rng))
	b := sm.AssignSpecies(NewBrainGenome(2, testInputs, testOutputs, 0, rng))
	sm.AddMember(a, 0)
	sm.AddMember(b, 1)
	sm.AddMember(b, 2)

	top := sm.GetTopSpecies(5)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].ID != b || top[0].Size != 2 {
		t.Errorf("largest species first: got %+v", top[0])
	}
}
