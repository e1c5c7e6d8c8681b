package pong

import "fmt"

// Fitness rules for one match.
const (
	rallyBonus   = 10.0
	bonusMinHits = 5
)

// MatchLimits bounds one match.
type MatchLimits struct {
	MaxHits  int // match ends once the left paddle exceeds this many hits
	MaxTicks int // hard tick bound; 0 disables it
}

// MatchResult is the final score and the fitness each side earned.
type MatchResult struct {
	Info         Info
	Ticks        int
	LeftFitness  float64
	RightFitness float64
}

// PlayMatch runs a game until the first point, until the left paddle passes
// MaxHits hits, or until MaxTicks ticks.
func PlayMatch(g *Game, left, right Player, limits MatchLimits) (MatchResult, error) {
	var res MatchResult
	for {
		dl, err := left.Decide(g, true)
		if err != nil {
			return res, fmt.Errorf("left player: %w", err)
		}
		dr, err := right.Decide(g, false)
		if err != nil {
			return res, fmt.Errorf("right player: %w", err)
		}
		apply(g, true, dl)
		apply(g, false, dr)

		res.Info = g.Loop()
		res.Ticks++

		if res.Info.LeftScore >= 1 || res.Info.RightScore >= 1 || res.Info.LeftHits > limits.MaxHits {
			break
		}
		if limits.MaxTicks > 0 && res.Ticks >= limits.MaxTicks {
			break
		}
	}
	res.LeftFitness, res.RightFitness = score(res.Info)
	return res, nil
}

// score credits each side with its hits; in a long rally the side that
// scored (or the right side, if nobody did) gets a bonus.
func score(info Info) (left, right float64) {
	left, right = float64(info.LeftHits), float64(info.RightHits)
	if info.LeftHits > bonusMinHits {
		if info.LeftScore > info.RightScore {
			left += rallyBonus
		} else {
			right += rallyBonus
		}
	}
	return left, right
}
