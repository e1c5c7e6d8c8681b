package neural

import (
	"math"
	"math/rand"
	"testing"
)

const (
	testInputs  = 12
	testOutputs = 2
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestNewBrainGenome(t *testing.T) {
	genome := NewBrainGenome(1, testInputs, testOutputs, 0.3, testRNG())

	if genome.Id != 1 {
		t.Errorf("expected genome ID 1, got %d", genome.Id)
	}
	if len(genome.Nodes) != testInputs+testOutputs {
		t.Errorf("expected %d nodes, got %d", testInputs+testOutputs, len(genome.Nodes))
	}

	// Every output must have an incoming link
	for j := 0; j < testOutputs; j++ {
		if !hasIncoming(genome.Genes, testInputs+j+1) {
			t.Errorf("output %d has no incoming link", j)
		}
	}
}

func TestNewBrainGenomeZeroProbability(t *testing.T) {
	genome := NewBrainGenome(1, testInputs, testOutputs, 0, testRNG())
	if len(genome.Genes) != testOutputs {
		t.Errorf("expected one link per output, got %d genes", len(genome.Genes))
	}
}

func TestNewDenseBrainGenome(t *testing.T) {
	genome := NewDenseBrainGenome(1, testInputs, testOutputs, testRNG())

	if len(genome.Genes) != testInputs*testOutputs {
		t.Fatalf("expected %d genes, got %d", testInputs*testOutputs, len(genome.Genes))
	}

	// Innovation numbers are positional so independent genomes align
	other := NewDenseBrainGenome(2, testInputs, testOutputs, rand.New(rand.NewSource(7)))
	for i := range genome.Genes {
		if genome.Genes[i].InnovationNum != other.Genes[i].InnovationNum {
			t.Fatalf("gene %d innovation %d != %d", i, genome.Genes[i].InnovationNum, other.Genes[i].InnovationNum)
		}
	}
}

func TestNewBrainController(t *testing.T) {
	genome := NewDenseBrainGenome(1, testInputs, testOutputs, testRNG())

	controller, err := NewBrainController(genome)
	if err != nil {
		t.Fatalf("NewBrainController failed: %v", err)
	}
	if controller.Genome != genome {
		t.Error("controller genome mismatch")
	}
	if controller.Inputs() != testInputs || controller.Outputs() != testOutputs {
		t.Errorf("shape = %dx%d, want %dx%d", controller.Inputs(), controller.Outputs(), testInputs, testOutputs)
	}

	t.Logf("Created controller with %d nodes and %d links",
		controller.NodeCount(), controller.LinkCount())
}

func TestNewBrainControllerNilGenome(t *testing.T) {
	if _, err := NewBrainController(nil); err == nil {
		t.Error("expected error for nil genome")
	}
}

func TestBrainControllerThink(t *testing.T) {
	controller, err := NewBrainController(NewDenseBrainGenome(1, testInputs, testOutputs, testRNG()))
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}

	testCases := []struct {
		name   string
		inputs []float64
	}{
		{"all zeros", make([]float64, testInputs)},
		{
			"all ones",
			func() []float64 {
				in := make([]float64, testInputs)
				for i := range in {
					in[i] = 1.0
				}
				return in
			}(),
		},
		{
			"mixed",
			func() []float64 {
				in := make([]float64, testInputs)
				for i := range in {
					in[i] = float64(i) / float64(testInputs)
				}
				return in
			}(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			outputs, err := controller.Think(tc.inputs)
			if err != nil {
				t.Fatalf("Think failed: %v", err)
			}
			if len(outputs) != testOutputs {
				t.Fatalf("expected %d outputs, got %d", testOutputs, len(outputs))
			}
			// Sigmoid outputs stay in [0, 1]
			for i, out := range outputs {
				if math.IsNaN(out) || out < 0 || out > 1 {
					t.Errorf("output %d out of sigmoid range: %f", i, out)
				}
			}
		})
	}
}

func TestBrainControllerThinkIsStateless(t *testing.T) {
	controller, err := NewBrainController(NewDenseBrainGenome(1, testInputs, testOutputs, testRNG()))
	if err != nil {
		t.Fatal(err)
	}
	inputs := make([]float64, testInputs)
	inputs[3] = 0.7

	first, err := controller.Think(inputs)
	if err != nil {
		t.Fatal(err)
	}
	first = append([]float64(nil), first...)
	second, err := controller.Think(inputs)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if math.Abs(first[i]-second[i]) > 1e-12 {
			t.Errorf("output %d changed between calls: %f -> %f", i, first[i], second[i])
		}
	}
}

func TestBrainControllerThinkWrongInputCount(t *testing.T) {
	controller, err := NewBrainController(NewDenseBrainGenome(1, testInputs, testOutputs, testRNG()))
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}

	if _, err := controller.Think(make([]float64, testInputs-1)); err == nil {
		t.Error("expected error for wrong input count, got nil")
	}
}

func TestDefaultNEATOptions(t *testing.T) {
	opts := DefaultNEATOptions()

	if opts.MutateAddNodeProb <= 0 || opts.MutateAddLinkProb <= 0 || opts.MutateLinkWeightsProb <= 0 {
		t.Error("structural and weight mutation rates should be positive")
	}
	if opts.CompatThreshold <= 0 {
		t.Error("CompatThreshold should be positive")
	}
	if opts.SurvivalThresh <= 0 || opts.SurvivalThresh > 1 {
		t.Errorf("SurvivalThresh = %v, want (0, 1]", opts.SurvivalThresh)
	}
}

func BenchmarkBrainThink(b *testing.B) {
	controller, err := NewBrainController(NewDenseBrainGenome(1, testInputs, testOutputs, testRNG()))
	if err != nil {
		b.Fatalf("failed to create controller: %v", err)
	}

	inputs := make([]float64, testInputs)
	for i := range inputs {
		inputs[i] = float64(i) / float64(testInputs)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = controller.Think(inputs)
	}
}
