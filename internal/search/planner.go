package search

import (
	"strings"
	"time"

	"github.com/HVS13/foul-play-bot/internal/battle"
)

// Plan is the per-decision resource budget: how many independent samples to
// search and how long each sample may run.
type Plan struct {
	Samples       int
	BudgetPerTask time.Duration
}

const minBudgetMs = 25

// PlanDecision computes the search plan for the current state. Base
// parallelism and base time come from configuration; everything else is
// state-dependent scaling.
func PlanDecision(b *battle.Battle, baseParallelism, baseTimeMs int) Plan {
	if strings.Contains(b.Format, "random") || strings.Contains(b.Format, "battlefactory") {
		return planRandomFormat(b, baseParallelism, baseTimeMs)
	}
	return planStandardFormat(b, baseParallelism, baseTimeMs)
}

// planRandomFormat prefers a shallow, wide search early: when the opposing
// active has revealed no moves and few roster members are known, many cheap
// samples beat a few deep ones.
func planRandomFormat(b *battle.Battle, baseParallelism, baseTimeMs int) Plan {
	revealed := len(b.Opponent.Reserve)
	if b.Opponent.Active != nil {
		revealed++
	}
	activeUnrevealed := b.Opponent.Active != nil &&
		b.Opponent.Active.Alive() && len(b.Opponent.Active.Moves) == 0
	pressure := b.UnderTimePressure()

	if revealed <= 3 && activeUnrevealed {
		mult := 4
		if pressure {
			mult = 2
		}
		samples := adjustSamplesForBranching(b, baseParallelism*mult)
		return Plan{
			Samples:       samples,
			BudgetPerTask: dynamicBudget(b, baseTimeMs/2),
		}
	}

	mult := 2
	if pressure {
		mult = 1
	}
	samples := adjustSamplesForBranching(b, baseParallelism*mult)
	return Plan{
		Samples:       samples,
		BudgetPerTask: dynamicBudget(b, baseTimeMs),
	}
}

func planStandardFormat(b *battle.Battle, baseParallelism, baseTimeMs int) Plan {
	activeUnrevealed := b.Opponent.Active != nil && b.Opponent.Active.Alive() &&
		len(b.Opponent.Active.Moves) == 0
	fewRevealedMoves := b.Opponent.Active != nil && len(b.Opponent.Active.Moves) < 3
	pressure := b.UnderTimePressure()

	if b.TeamPreview || activeUnrevealed || fewRevealedMoves {
		mult := 2
		if pressure {
			mult = 1
		}
		samples := adjustSamplesForBranching(b, baseParallelism*mult)
		return Plan{
			Samples:       samples,
			BudgetPerTask: dynamicBudget(b, baseTimeMs),
		}
	}

	samples := adjustSamplesForBranching(b, baseParallelism)
	return Plan{
		Samples:       samples,
		BudgetPerTask: dynamicBudget(b, baseTimeMs),
	}
}

// BranchingFactor estimates how many distinct actions are available this
// turn: usable moves plus switchable reserves, floored at 1. A forced
// switch counts reserves only; team preview counts the roster.
func BranchingFactor(b *battle.Battle) int {
	if b.TeamPreview {
		n := len(b.User.Reserve)
		if b.User.Active != nil {
			n++
		}
		return maxInt(1, n)
	}

	if b.User.Active == nil {
		return 1
	}

	numMoves := 0
	if !b.ForceSwitch {
		for _, m := range b.User.Active.Moves {
			if !m.Disabled && m.PP > 0 {
				numMoves++
			}
		}
		if numMoves == 0 {
			numMoves = 1
		}
	}

	numSwitches := 0
	if b.ForceSwitch || !b.Trapped {
		for _, p := range b.User.Reserve {
			if p.Alive() {
				numSwitches++
			}
		}
	}

	return maxInt(1, numMoves+numSwitches)
}

func adjustSamplesForBranching(b *battle.Battle, samples int) int {
	if b.TeamPreview {
		return maxInt(1, samples)
	}
	bf := BranchingFactor(b)
	switch {
	case bf <= 2:
		samples = int(float64(samples) * 0.7)
	case bf <= 3:
		samples = int(float64(samples) * 0.85)
	case bf >= 8:
		samples = int(float64(samples) * 1.2)
	case bf >= 6:
		samples = int(float64(samples) * 1.1)
	}
	return maxInt(1, samples)
}

// dynamicBudget applies the state-dependent multiplier to the base per-task
// time. Team preview skips all scaling and uses the base directly.
func dynamicBudget(b *battle.Battle, baseMs int) time.Duration {
	if b.TeamPreview {
		return time.Duration(maxInt(minBudgetMs, baseMs)) * time.Millisecond
	}

	mult := 1.0
	if b.Turn >= 20 {
		mult += 0.25
	}
	if b.Turn >= 30 {
		mult += 0.25
	}

	if a := b.User.Active; a != nil {
		if frac := a.HPFraction(); frac >= 0 && frac <= 0.25 {
			mult += 0.25
		}
	}
	if a := b.Opponent.Active; a != nil {
		if frac := a.HPFraction(); frac >= 0 && frac <= 0.25 {
			mult += 0.25
		}
	}

	if b.User.CountAlive() <= 2 || b.Opponent.CountAlive() <= 2 {
		mult += 0.25
	}

	if b.TimeRemaining >= 0 {
		if b.TimeRemaining <= 30 {
			mult *= 0.5
		} else if b.TimeRemaining <= 60 {
			mult *= 0.75
		}
	}

	bf := BranchingFactor(b)
	switch {
	case bf <= 2:
		mult *= 0.7
	case bf <= 3:
		mult *= 0.85
	case bf >= 8:
		mult *= 1.25
	case bf >= 6:
		mult *= 1.15
	}

	if mult < 0.5 {
		mult = 0.5
	}
	if mult > 2.0 {
		mult = 2.0
	}
	ms := maxInt(minBudgetMs, int(float64(baseMs)*mult))
	return time.Duration(ms) * time.Millisecond
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
