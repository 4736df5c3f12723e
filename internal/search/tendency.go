package search

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/HVS13/foul-play-bot/internal/battle"
)

// Tendency bias thresholds. Counters below minTendencyActions carry too
// little signal to act on.
const (
	minTendencyActions = 5

	switchRateGate  = 0.35
	protectRateGate = 0.25

	highSwitchRate  = 0.45
	highProtectRate = 0.3

	switchBias  = 0.08
	protectBias = 0.05
)

// ApplyTendencyBias re-weights a policy against the opponent's observed
// behavior: a switch-happy opponent makes pivot/setup/status lines better,
// a protect-happy one favors setup/status/switch lines. The biased policy
// is re-sorted.
func ApplyTendencyBias(p Policy, t battle.TendencyCounters) Policy {
	if t.Actions < minTendencyActions {
		return p
	}

	switchRate := float64(t.Switches) / float64(maxInt(t.Actions, 1))
	protectRate := float64(t.Protects) / float64(maxInt(t.Moves, 1))
	if switchRate < switchRateGate && protectRate < protectRateGate {
		return p
	}

	adjusted := make(Policy, 0, len(p))
	for _, sm := range p {
		tags := Tags(sm.Move)
		mult := 1.0
		if switchRate >= highSwitchRate {
			if hasTag(tags, "pivot") || hasTag(tags, "setup") || hasTag(tags, "status") {
				mult += switchBias
			}
		}
		if protectRate >= highProtectRate {
			if hasTag(tags, "setup") || hasTag(tags, "status") || hasTag(tags, "switch") {
				mult += protectBias
			}
		}
		adjusted = append(adjusted, ScoredMove{Move: sm.Move, Weight: sm.Weight * mult})
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].Weight > adjusted[j].Weight
	})
	log.Info().
		Float64("switchRate", switchRate).
		Float64("protectRate", protectRate).
		Msg("Applied opponent tendency bias")
	return adjusted
}
