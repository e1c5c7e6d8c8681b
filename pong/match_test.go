package pong

import (
	"errors"
	"testing"
)

// stayPlayer never moves.
type stayPlayer struct{}

func (stayPlayer) Decide(*Game, bool) (Decision, error) { return Stay, nil }

type failingPlayer struct{ err error }

func (p failingPlayer) Decide(*Game, bool) (Decision, error) { return Stay, p.err }

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		info      Info
		wantLeft  float64
		wantRight float64
	}{
		{"short rally", Info{LeftHits: 3, RightHits: 2, RightScore: 1}, 3, 2},
		{"long rally left wins", Info{LeftHits: 6, RightHits: 6, LeftScore: 1}, 16, 6},
		{"long rally right wins", Info{LeftHits: 6, RightHits: 5, RightScore: 1}, 6, 15},
		{"long rally no score", Info{LeftHits: 51, RightHits: 51}, 51, 61},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := score(tt.info)
			if l != tt.wantLeft || r != tt.wantRight {
				t.Errorf("score = (%v, %v), want (%v, %v)", l, r, tt.wantLeft, tt.wantRight)
			}
		})
	}
}

func TestPlayMatchTerminates(t *testing.T) {
	g := testGame(t, false)
	res, err := PlayMatch(g, stayPlayer{}, stayPlayer{}, MatchLimits{MaxHits: 50, MaxTicks: 100000})
	if err != nil {
		t.Fatalf("PlayMatch: %v", err)
	}
	if res.Ticks == 0 || res.Ticks > 100000 {
		t.Fatalf("ticks = %d", res.Ticks)
	}
	ended := res.Info.LeftScore >= 1 || res.Info.RightScore >= 1 || res.Info.LeftHits > 50 || res.Ticks == 100000
	if !ended {
		t.Errorf("match stopped without an end condition: %+v after %d ticks", res.Info, res.Ticks)
	}
	l, r := score(res.Info)
	if res.LeftFitness != l || res.RightFitness != r {
		t.Errorf("fitness = (%v, %v), want (%v, %v)", res.LeftFitness, res.RightFitness, l, r)
	}
}

func TestPlayMatchTickLimit(t *testing.T) {
	g := testGame(t, false)
	res, err := PlayMatch(g, stayPlayer{}, stayPlayer{}, MatchLimits{MaxHits: 50, MaxTicks: 10})
	if err != nil {
		t.Fatalf("PlayMatch: %v", err)
	}
	// The ball needs far more than 10 ticks to reach either side.
	if res.Ticks != 10 {
		t.Errorf("ticks = %d, want 10", res.Ticks)
	}
}

func TestPlayMatchPlayerError(t *testing.T) {
	boom := errors.New("boom")
	g := testGame(t, false)
	if _, err := PlayMatch(g, stayPlayer{}, failingPlayer{boom}, MatchLimits{MaxHits: 50}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestOptimalBeatsIdlePaddle(t *testing.T) {
	g := testGame(t, false)
	// Park the idle paddle at the top so anything aimed low gets past it.
	g.Left.Y = 0
	res, err := PlayMatch(g, stayPlayer{}, &OptimalPlayer{}, MatchLimits{MaxHits: 50, MaxTicks: 100000})
	if err != nil {
		t.Fatalf("PlayMatch: %v", err)
	}
	if res.Info.LeftScore != 0 {
		t.Errorf("idle paddle scored against the optimal player: %+v", res.Info)
	}
}
