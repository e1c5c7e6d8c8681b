package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/trackrunner/config"
)

// csvSink is one CSV file that writes its header with the first record.
// The file is created on first use so runs only produce the files they fill.
type csvSink struct {
	path          string
	file          *os.File
	headerWritten bool
}

func (s *csvSink) write(records any) error {
	if s.file == nil {
		f, err := os.Create(s.path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Base(s.path), err)
		}
		s.file = f
	}

	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(s.path), err)
		}
		s.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.file); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(s.path), err)
	}
	return nil
}

func (s *csvSink) close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// OutputManager handles structured run output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir         string
	generations csvSink
	champions   csvSink
	perf        csvSink
	pong        csvSink
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &OutputManager{
		dir:         dir,
		generations: csvSink{path: filepath.Join(dir, "generations.csv")},
		champions:   csvSink{path: filepath.Join(dir, "champions.csv")},
		perf:        csvSink{path: filepath.Join(dir, "perf.csv")},
		pong:        csvSink{path: filepath.Join(dir, "pong.csv")},
	}, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration appends a row to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}
	return om.generations.write([]GenerationStats{stats})
}

// WriteChampion appends a row to champions.csv.
func (om *OutputManager) WriteChampion(rec ChampionRecord) error {
	if om == nil {
		return nil
	}
	return om.champions.write([]ChampionRecord{rec})
}

// WritePerf appends a row to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, generation int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(generation)})
}

// WritePong appends a row to pong.csv.
func (om *OutputManager) WritePong(stats PongStats) error {
	if om == nil {
		return nil
	}
	return om.pong.write([]PongStats{stats})
}

// Path returns the path of a file inside the output directory.
func (om *OutputManager) Path(name string) string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, name)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{&om.generations, &om.champions, &om.perf, &om.pong} {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteHallOfFame saves the hall as hall_of_fame.json, replacing any previous copy.
func (om *OutputManager) WriteHallOfFame(hof *HallOfFame) error {
	if om == nil || hof == nil {
		return nil
	}
	data, err := hof.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding hall of fame: %w", err)
	}
	if err := os.WriteFile(om.Path("hall_of_fame.json"), data, 0644); err != nil {
		return fmt.Errorf("writing hall of fame: %w", err)
	}
	return nil
}
