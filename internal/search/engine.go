// Package search implements the move decision orchestrator: adaptive budget
// planning, hidden-state sampling, parallel engine fan-out, policy
// aggregation, opponent-tendency bias, and risk-weighted selection.
package search

import (
	"context"
	"time"
)

// MoveOption is one scored action in an engine result.
type MoveOption struct {
	Move       string
	Visits     int
	TotalScore float64
}

// Result is the outcome of one engine search over one state snapshot.
type Result struct {
	Options     []MoveOption
	TotalVisits int
}

// Engine scores a serialized state within a wall-clock budget. The budget is
// enforced by the engine itself, with a small overrun tolerance. Results are
// deterministic for identical state and engine version.
type Engine interface {
	Search(ctx context.Context, state string, budget time.Duration) (*Result, error)
	Close() error
}

// Task is one sampled rollout request. Tasks are immutable once dispatched
// and each result is consumed exactly once by the aggregator.
type Task struct {
	State  string
	Weight float64 // probability this snapshot is representative
	Budget time.Duration
	Index  int
}

// TaskResult pairs a task with its engine result or failure.
type TaskResult struct {
	Task   Task
	Result *Result
	Err    error
}
