package search

import (
	"math/rand"

	"github.com/HVS13/foul-play-bot/internal/battle"
	"github.com/HVS13/foul-play-bot/internal/dex"
)

// Sample is one read-only state snapshot with the probability that it
// represents the true hidden state.
type Sample struct {
	State  string
	Weight float64
}

// PrepareSamples builds n independent snapshots of the battle, filling the
// opponent's unrevealed movesets from the dex's candidate sets. The sample
// weight is the product of the chosen set probabilities; species without
// dataset entries contribute nothing beyond what has been revealed and
// leave the weight untouched.
func PrepareSamples(b *battle.Battle, n int, rng *rand.Rand) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		clone := b.Clone()
		weight := 1.0
		weight *= fillSide(&clone.Opponent, rng)
		samples = append(samples, Sample{State: clone.Snapshot(), Weight: weight})
	}
	return samples
}

func fillSide(s *battle.Side, rng *rand.Rand) float64 {
	weight := 1.0
	if s.Active != nil {
		weight *= fillMoves(s.Active, rng)
	}
	for _, p := range s.Reserve {
		weight *= fillMoves(p, rng)
	}
	return weight
}

// fillMoves samples a candidate set for a Pokémon with an incomplete known
// moveset and merges the unrevealed moves in. Returns the probability of
// the chosen set, or 1 when nothing was sampled.
func fillMoves(p *battle.Pokemon, rng *rand.Rand) float64 {
	if len(p.Moves) >= 4 {
		return 1
	}
	sets := dex.SetsFor(p.Species)
	if len(sets) == 0 {
		return 1
	}

	set, chance := pickSet(sets, rng)
	for _, id := range set.Moves {
		if len(p.Moves) >= 4 {
			break
		}
		id = dex.Normalize(id)
		if hasMove(p, id) {
			continue
		}
		p.Moves = append(p.Moves, battle.Move{ID: id, PP: 1, MaxPP: 1})
	}
	return chance
}

func pickSet(sets []dex.MoveSet, rng *rand.Rand) (dex.MoveSet, float64) {
	total := 0.0
	for _, s := range sets {
		total += s.Chance
	}
	if total <= 0 {
		// Degenerate dataset: fall back to a uniform pick.
		i := rng.Intn(len(sets))
		return sets[i], 1.0 / float64(len(sets))
	}
	roll := rng.Float64() * total
	for _, s := range sets {
		roll -= s.Chance
		if roll <= 0 {
			return s, s.Chance / total
		}
	}
	last := sets[len(sets)-1]
	return last, last.Chance / total
}

func hasMove(p *battle.Pokemon, id string) bool {
	for _, m := range p.Moves {
		if m.ID == id {
			return true
		}
	}
	return false
}
