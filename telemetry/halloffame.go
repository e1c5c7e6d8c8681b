package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// HallEntry is one champion kept across generations.
type HallEntry struct {
	Fitness float64        `json:"fitness"`
	Record  ChampionRecord `json:"champion"`
}

// HallOfFame keeps the best per-generation champions of a run,
// sorted by descending fitness.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall holding at most maxSize entries.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider offers a champion to the hall.
// Returns true if it was added.
func (hof *HallOfFame) Consider(fitness float64, rec ChampionRecord) bool {
	if n := len(hof.entries); n >= hof.maxSize && fitness <= hof.entries[n-1].Fitness {
		return false
	}
	hof.entries = hof.insertEntry(hof.entries, HallEntry{Fitness: fitness, Record: rec})
	return true
}

// insertEntry adds an entry, maintaining sorted order by fitness.
// Equal fitness keeps the earlier entry first. If the hall is full,
// the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// TopFitness returns the highest fitness in the hall, or 0 if it is empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// Entries returns a copy of the entries, best first.
func (hof *HallOfFame) Entries() []HallEntry {
	out := make([]HallEntry, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// MarshalJSON serializes the entries, best first.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file.
func LoadHallOfFameFromFile(path string) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(len(entries))
	for _, e := range entries {
		hof.entries = hof.insertEntry(hof.entries, e)
	}
	return hof, nil
}
