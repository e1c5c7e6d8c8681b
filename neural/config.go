package neural

import (
	"fmt"
	"os"

	"github.com/yaricom/goNEAT/v4/neat"
	"gopkg.in/yaml.v3"
)

// Config holds the evolution settings for one controller population.
type Config struct {
	NEAT  *neat.Options
	Brain BrainConfig
}

// BrainConfig holds brain network settings.
type BrainConfig struct {
	Inputs                int     `yaml:"inputs"`
	Outputs               int     `yaml:"outputs"`
	InitialConnectionProb float64 `yaml:"initial_connection_prob"`
}

// DefaultConfig returns a configuration for a network with the given shape.
func DefaultConfig(inputs, outputs int) *Config {
	return &Config{
		NEAT: DefaultNEATOptions(),
		Brain: BrainConfig{
			Inputs:                inputs,
			Outputs:               outputs,
			InitialConnectionProb: 0.3,
		},
	}
}

// DefaultNEATOptions returns NEAT options tuned for small controller networks.
func DefaultNEATOptions() *neat.Options {
	return &neat.Options{
		// Weight mutation
		WeightMutPower: 2.5,

		// Structural mutation rates
		MutateAddNodeProb:      0.03,
		MutateAddLinkProb:      0.3,
		MutateToggleEnableProb: 0.01,

		// Weight mutation probability
		MutateLinkWeightsProb: 0.8,
		MutateOnlyProb:        0.25,

		// Mating probabilities
		MateMultipointProb:    0.6,
		MateMultipointAvgProb: 0.4,
		MateSinglepointProb:   0.0,
		MateOnlyProb:          0.2,
		RecurOnlyProb:         0.0,

		// Speciation
		CompatThreshold: 3.0,
		DisjointCoeff:   1.0,
		ExcessCoeff:     1.0,
		MutdiffCoeff:    0.5,

		// Species management
		DropOffAge:      15,
		SurvivalThresh:  0.2,
		AgeSignificance: 1.0,

		PopSize: 150,
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
func LoadConfig(path string, inputs, outputs int) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading neat config: %w", err)
	}

	cfg := DefaultConfig(inputs, outputs)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing neat config: %w", err)
	}

	// The network shape is fixed by the environment, not the file.
	cfg.Brain.Inputs = inputs
	cfg.Brain.Outputs = outputs
	return cfg, nil
}
