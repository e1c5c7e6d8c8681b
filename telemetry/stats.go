package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FitnessSummary describes the fitness distribution of one population.
type FitnessSummary struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	P10  float64
	P50  float64
	P90  float64
}

// GenerationStats is one row of generations.csv.
type GenerationStats struct {
	Generation int     `csv:"generation"`
	Population int     `csv:"population"`
	Species    int     `csv:"species"`
	Best       float64 `csv:"best"`
	Mean       float64 `csv:"mean"`
	Std        float64 `csv:"std"`
	P10        float64 `csv:"p10"`
	P50        float64 `csv:"p50"`
	P90        float64 `csv:"p90"`
	Collided   int     `csv:"collided"`
	TimedOut   int     `csv:"timed_out"`
	Ticks      int     `csv:"ticks"`
	WallTimeMS int64   `csv:"wall_time_ms"`
}

// ChampionRecord is one row of champions.csv.
type ChampionRecord struct {
	Generation int     `csv:"generation"`
	GenomeID   int     `csv:"genome_id"`
	Distance   float64 `csv:"distance"`
	Elapsed    float64 `csv:"elapsed"`
	Steps      int     `csv:"steps"`
	Phase      string  `csv:"phase"`
	X          float64 `csv:"x"`
	Y          float64 `csv:"y"`
	Heading    float64 `csv:"heading"`
	Nodes      int     `csv:"nodes"`
	Links      int     `csv:"links"`
}

// PongStats is one row of pong.csv.
type PongStats struct {
	Generation int     `csv:"generation"`
	Population int     `csv:"population"`
	Species    int     `csv:"species"`
	Best       float64 `csv:"best"`
	Mean       float64 `csv:"mean"`
	Std        float64 `csv:"std"`
	Games      int     `csv:"games"`
	TotalHits  int     `csv:"total_hits"`
	WallTimeMS int64   `csv:"wall_time_ms"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeFitnessStats summarizes fitness values. Std is the population
// standard deviation. Returns the zero summary for no values.
func ComputeFitnessStats(values []float64) FitnessSummary {
	if len(values) == 0 {
		return FitnessSummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return FitnessSummary{
		Mean: stat.Mean(values, nil),
		Std:  stat.PopStdDev(values, nil),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("species", s.Species),
		slog.Float64("best", s.Best),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p50", s.P50),
		slog.Int("collided", s.Collided),
		slog.Int("timed_out", s.TimedOut),
		slog.Int("ticks", s.Ticks),
		slog.Int64("wall_time_ms", s.WallTimeMS),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PongStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("species", s.Species),
		slog.Float64("best", s.Best),
		slog.Float64("mean", s.Mean),
		slog.Int("games", s.Games),
		slog.Int("total_hits", s.TotalHits),
		slog.Int64("wall_time_ms", s.WallTimeMS),
	)
}
