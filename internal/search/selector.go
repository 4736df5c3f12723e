package search

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/HVS13/foul-play-bot/internal/battle"
	"github.com/HVS13/foul-play-bot/internal/config"
)

// ResolveRiskMode turns a configured risk mode into an effective one. A
// non-auto mode is used as given. Auto infers the posture from the game
// state; at team preview (or with no state) it is balanced.
func ResolveRiskMode(configured config.RiskMode, b *battle.Battle) config.RiskMode {
	if configured != config.RiskAuto {
		return configured
	}
	if b == nil || b.TeamPreview {
		return config.RiskBalanced
	}

	userAlive := b.User.CountAlive()
	oppAlive := b.Opponent.CountAlive()
	if userAlive <= 2 && userAlive < oppAlive {
		return config.RiskAggressive
	}
	if oppAlive <= 2 && userAlive > oppAlive {
		return config.RiskSafe
	}

	if b.User.Active == nil || b.Opponent.Active == nil {
		return config.RiskBalanced
	}
	userHP := b.User.Active.HPFraction()
	oppHP := b.Opponent.Active.HPFraction()
	if userHP >= 0 && oppHP >= 0 {
		if userHP+0.2 < oppHP {
			return config.RiskAggressive
		}
		if userHP > oppHP+0.2 {
			return config.RiskSafe
		}
	}

	return config.RiskBalanced
}

func riskThreshold(mode config.RiskMode) float64 {
	switch mode {
	case config.RiskSafe:
		return 0.9
	case config.RiskAggressive:
		return 0.6
	}
	return 0.75
}

func riskWeightPower(mode config.RiskMode) float64 {
	if mode == config.RiskAggressive {
		return 0.7
	}
	return 1.0
}

// SelectMove picks one action from the policy under the given risk posture.
// Candidates within threshold × top weight are considered; safe is
// deterministic, the others sample proportionally to weight^power. An empty
// policy is an error, never a silent default.
func SelectMove(p Policy, mode config.RiskMode, rng *rand.Rand) (string, error) {
	if len(p) == 0 {
		return "", ErrEmptyPolicy
	}

	top := p[0].Weight
	threshold := riskThreshold(mode)
	var candidates Policy
	for _, sm := range p {
		if sm.Weight >= top*threshold {
			candidates = append(candidates, sm)
		}
	}
	if len(candidates) == 0 {
		candidates = p[:1]
	}

	log.Info().Str("riskMode", string(mode)).Int("candidates", len(candidates)).Msg("Considered choices")
	for _, sm := range candidates {
		log.Info().Str("move", sm.Move).Float64("weightPct", sm.Weight*100).Msg("Candidate")
	}

	if mode == config.RiskSafe {
		best := candidates[0]
		for _, sm := range candidates[1:] {
			if sm.Weight > best.Weight {
				best = sm
			}
		}
		return best.Move, nil
	}

	power := riskWeightPower(mode)
	total := 0.0
	weights := make([]float64, len(candidates))
	for i, sm := range candidates {
		weights[i] = math.Pow(sm.Weight, power)
		total += weights[i]
	}
	if total <= 0 {
		return candidates[0].Move, nil
	}

	roll := rng.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll <= 0 {
			return candidates[i].Move, nil
		}
	}
	return candidates[len(candidates)-1].Move, nil
}
