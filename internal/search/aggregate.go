package search

import (
	"errors"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
)

// ErrEmptyPolicy is returned when aggregation yields no candidates. It is
// fatal for the decision point: the orchestrator surfaces it instead of
// guessing a default action.
var ErrEmptyPolicy = errors.New("search: aggregation produced an empty policy")

// ScoredMove is one entry of a move-preference distribution.
type ScoredMove struct {
	Move   string
	Weight float64
}

// Policy is a move-preference distribution sorted non-increasing by weight.
// Weights are non-negative and need not sum to 1.
type Policy []ScoredMove

// Top returns the highest-weighted entries, at most n.
func (p Policy) Top(n int) Policy {
	if len(p) < n {
		n = len(p)
	}
	return p[:n]
}

// Aggregate merges the task results of one decision point into a single
// policy. Each task contributes sampleWeight × (visits / totalVisits) per
// action; failed tasks are excluded. The per-task best action is logged for
// observability.
func Aggregate(results []TaskResult) (Policy, error) {
	combined := map[string]float64{}
	order := []string{}

	for _, r := range results {
		if r.Err != nil || r.Result == nil || r.Result.TotalVisits == 0 || len(r.Result.Options) == 0 {
			continue
		}

		best := r.Result.Options[0]
		for _, opt := range r.Result.Options[1:] {
			if opt.Visits > best.Visits {
				best = opt
			}
		}
		avgScore := 0.0
		if best.Visits > 0 {
			avgScore = best.TotalScore / float64(best.Visits)
		}
		log.Info().
			Int("task", r.Task.Index).
			Str("move", best.Move).
			Float64("visitPct", 100*float64(best.Visits)/float64(r.Result.TotalVisits)).
			Float64("avgScore", avgScore).
			Float64("sampleWeight", r.Task.Weight).
			Msg("Task policy")

		for _, opt := range r.Result.Options {
			if _, seen := combined[opt.Move]; !seen {
				order = append(order, opt.Move)
			}
			combined[opt.Move] += r.Task.Weight *
				(float64(opt.Visits) / float64(r.Result.TotalVisits))
		}
	}

	if len(combined) == 0 {
		return nil, ErrEmptyPolicy
	}

	policy := make(Policy, 0, len(combined))
	for _, move := range order {
		policy = append(policy, ScoredMove{Move: move, Weight: combined[move]})
	}
	sort.SliceStable(policy, func(i, j int) bool {
		return policy[i].Weight > policy[j].Weight
	})
	return policy, nil
}

// ConfidenceRatio is top weight over second weight. With fewer than two
// entries, or a zero second weight, confidence is infinite.
func ConfidenceRatio(p Policy) float64 {
	if len(p) < 2 {
		return math.Inf(1)
	}
	if p[1].Weight <= 0 {
		return math.Inf(1)
	}
	return p[0].Weight / p[1].Weight
}

// confidenceThreshold is the ratio below which a decision point is rerun at
// a larger budget, at most once.
const confidenceThreshold = 1.12
