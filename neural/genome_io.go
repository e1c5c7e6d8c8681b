package neural

import (
	"fmt"
	"io"
	"os"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// WriteGenome writes genome in goNEAT's plain text encoding.
func WriteGenome(w io.Writer, genome *genetics.Genome) error {
	gw, err := genetics.NewGenomeWriter(w, genetics.PlainGenomeEncoding)
	if err != nil {
		return err
	}
	if err := gw.WriteGenome(genome); err != nil {
		return fmt.Errorf("writing genome %d: %w", genome.Id, err)
	}
	return nil
}

// SaveGenome writes genome to path in goNEAT's plain text encoding.
func SaveGenome(path string, genome *genetics.Genome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving genome: %w", err)
	}
	if err := WriteGenome(f, genome); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
