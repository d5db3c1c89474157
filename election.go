package main

import (
	mathrand "math/rand"
	"time"
)

// RandomSource yields uniform values in [0,1). *math/rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type ElectionResult string

const (
	ElectionWin  ElectionResult = "win"
	ElectionLose ElectionResult = "lose"
)

// Each unit's win chance swings up to this much either side of approval/100.
const electionVariance = 0.2

type UnitCall struct {
	Unit       ElectoralUnit `json:"unit"`
	WinChance  float64       `json:"winChance"`
	PlayerWins bool          `json:"playerWins"`
}

type ElectionOutcome struct {
	Calls         []UnitCall `json:"calls"`
	PlayerVotes   int        `json:"playerVotes"`
	OpponentVotes int        `json:"opponentVotes"`
	TotalVotes    int        `json:"totalVotes"`
	VotesToWin    int        `json:"votesToWin"`
	Won           bool       `json:"won"`
}

func (o ElectionOutcome) Result() ElectionResult {
	if o.Won {
		return ElectionWin
	}
	return ElectionLose
}

func newRandomSource(seed int64) *mathrand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return mathrand.New(mathrand.NewSource(seed))
}

func totalVotes(units []ElectoralUnit) int {
	total := 0
	for _, u := range units {
		total += u.Votes
	}
	return total
}

func votesToWin(units []ElectoralUnit) int {
	return totalVotes(units)/2 + 1
}

// simulateElection calls every unit in order. Two draws per unit: one for
// the variance around approval, one to decide the unit.
func simulateElection(units []ElectoralUnit, approval int, rng RandomSource) ElectionOutcome {
	out := ElectionOutcome{
		Calls:      make([]UnitCall, 0, len(units)),
		TotalVotes: totalVotes(units),
		VotesToWin: votesToWin(units),
	}
	base := float64(approval) / 100
	for _, u := range units {
		chance := base + (rng.Float64()*2*electionVariance - electionVariance)
		wins := rng.Float64() < chance
		out.Calls = append(out.Calls, UnitCall{Unit: u, WinChance: chance, PlayerWins: wins})
		if wins {
			out.PlayerVotes += u.Votes
		} else {
			out.OpponentVotes += u.Votes
		}
	}
	out.Won = out.PlayerVotes >= out.VotesToWin
	return out
}
