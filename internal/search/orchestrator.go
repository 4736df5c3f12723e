package search

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HVS13/foul-play-bot/internal/battle"
	"github.com/HVS13/foul-play-bot/internal/config"
)

// Orchestrator runs the full decision pipeline for one decision point:
// plan, sample, fan out, aggregate, bias, optionally re-search, select.
type Orchestrator struct {
	pool            *Pool
	baseParallelism int
	baseTimeMs      int
	riskMode        config.RiskMode
	rng             *rand.Rand
}

// NewOrchestrator wires the decision pipeline. A nil rng gets a
// time-seeded source.
func NewOrchestrator(pool *Pool, baseParallelism, baseTimeMs int, riskMode config.RiskMode, rng *rand.Rand) *Orchestrator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Orchestrator{
		pool:            pool,
		baseParallelism: baseParallelism,
		baseTimeMs:      baseTimeMs,
		riskMode:        riskMode,
		rng:             rng,
	}
}

// FindBestMove evaluates one decision point against the battle state and
// returns the chosen action plus the final policy. The live battle is never
// mutated; all search runs against sampled snapshots.
func (o *Orchestrator) FindBestMove(ctx context.Context, b *battle.Battle) (string, Policy, error) {
	work := b.Clone()
	if work.TeamPreview {
		promoteLeads(work)
	}

	plan := PlanDecision(work, o.baseParallelism, o.baseTimeMs)
	samples := PrepareSamples(work, plan.Samples, o.rng)

	log.Info().
		Int("samples", len(samples)).
		Dur("budgetPerTask", plan.BudgetPerTask).
		Int("branching", BranchingFactor(work)).
		Msg("Searching for a move")

	policy, err := o.runRound(ctx, work, samples, plan.BudgetPerTask)
	if err != nil {
		return "", nil, err
	}

	// Confidence re-search: one extra full round at a larger budget when the
	// top two entries are too close to call and the clock allows it.
	ratio := ConfidenceRatio(policy)
	if !work.UnderTimePressure() && ratio < confidenceThreshold {
		maxBudget := time.Duration(2*o.baseTimeMs) * time.Millisecond
		rerunBudget := plan.BudgetPerTask + plan.BudgetPerTask/2
		if rerunBudget > maxBudget {
			rerunBudget = maxBudget
		}
		if rerunBudget > plan.BudgetPerTask {
			log.Info().
				Float64("confidence", ratio).
				Dur("rerunBudget", rerunBudget).
				Msg("Low policy confidence, re-searching")
			policy, err = o.runRound(ctx, work, samples, rerunBudget)
			if err != nil {
				return "", nil, err
			}
		}
	}

	mode := ResolveRiskMode(o.riskMode, work)
	if o.riskMode == config.RiskAuto {
		log.Info().Str("resolved", string(mode)).Msg("Risk mode: auto")
	}
	choice, err := SelectMove(policy, mode, o.rng)
	if err != nil {
		return "", nil, err
	}
	log.Info().Str("choice", choice).Msg("Choice")
	return choice, policy, nil
}

// runRound fans the samples out across the pool and aggregates one policy,
// with the opponent-tendency bias applied.
func (o *Orchestrator) runRound(ctx context.Context, b *battle.Battle, samples []Sample, budget time.Duration) (Policy, error) {
	tasks := make([]Task, len(samples))
	for i, s := range samples {
		tasks[i] = Task{State: s.State, Weight: s.Weight, Budget: budget, Index: i}
	}

	results, err := o.pool.RunBatch(ctx, tasks)
	if err != nil {
		return nil, err
	}
	policy, err := Aggregate(results)
	if err != nil {
		return nil, err
	}
	return ApplyTendencyBias(policy, b.Tendencies), nil
}

// promoteLeads gives both sides a provisional active for team-preview
// evaluation, mirroring how the sides will look after leads are sent out.
func promoteLeads(b *battle.Battle) {
	if b.User.Active == nil && len(b.User.Reserve) > 0 {
		b.User.Active = b.User.Reserve[0]
		b.User.Reserve = b.User.Reserve[1:]
	}
	if b.Opponent.Active == nil && len(b.Opponent.Reserve) > 0 {
		b.Opponent.Active = b.Opponent.Reserve[0]
		b.Opponent.Reserve = b.Opponent.Reserve[1:]
	}
}
