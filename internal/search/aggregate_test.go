package search

import (
	"errors"
	"math"
	"testing"
)

func result(totalVisits int, options ...MoveOption) *Result {
	return &Result{Options: options, TotalVisits: totalVisits}
}

func TestAggregateWeightedMerge(t *testing.T) {
	// Two tasks disagree; their weighted visit shares must cancel out.
	results := []TaskResult{
		{Task: Task{Index: 0, Weight: 0.6}, Result: result(10,
			MoveOption{Move: "a", Visits: 7}, MoveOption{Move: "b", Visits: 3})},
		{Task: Task{Index: 1, Weight: 0.4}, Result: result(10,
			MoveOption{Move: "a", Visits: 2}, MoveOption{Move: "b", Visits: 8})},
	}
	policy, err := Aggregate(results)
	if err != nil {
		t.Fatal(err)
	}
	if len(policy) != 2 {
		t.Fatalf("policy = %+v", policy)
	}
	for _, sm := range policy {
		if math.Abs(sm.Weight-0.5) > 1e-9 {
			t.Errorf("%s weight = %f, want 0.5", sm.Move, sm.Weight)
		}
	}
}

func TestAggregateSortedNonNegative(t *testing.T) {
	results := []TaskResult{
		{Task: Task{Index: 0, Weight: 1}, Result: result(100,
			MoveOption{Move: "a", Visits: 10},
			MoveOption{Move: "b", Visits: 60},
			MoveOption{Move: "c", Visits: 30})},
	}
	policy, err := Aggregate(results)
	if err != nil {
		t.Fatal(err)
	}
	if policy[0].Move != "b" || policy[1].Move != "c" || policy[2].Move != "a" {
		t.Errorf("order = %+v", policy)
	}
	for i := 1; i < len(policy); i++ {
		if policy[i].Weight > policy[i-1].Weight {
			t.Errorf("policy not sorted at %d: %+v", i, policy)
		}
	}
	for _, sm := range policy {
		if sm.Weight < 0 {
			t.Errorf("negative weight: %+v", sm)
		}
	}
}

func TestAggregateSkipsFailedTasks(t *testing.T) {
	results := []TaskResult{
		{Task: Task{Index: 0, Weight: 1}, Err: errors.New("engine died")},
		{Task: Task{Index: 1, Weight: 1}, Result: result(10, MoveOption{Move: "a", Visits: 10})},
	}
	policy, err := Aggregate(results)
	if err != nil {
		t.Fatal(err)
	}
	if len(policy) != 1 || policy[0].Move != "a" {
		t.Errorf("policy = %+v", policy)
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate([]TaskResult{{Task: Task{Index: 0}, Err: errors.New("boom")}})
	if !errors.Is(err, ErrEmptyPolicy) {
		t.Fatalf("err = %v, want ErrEmptyPolicy", err)
	}
}

func TestConfidenceRatio(t *testing.T) {
	decisive := Policy{{Move: "a", Weight: 0.6}, {Move: "b", Weight: 0.5}}
	if got := ConfidenceRatio(decisive); math.Abs(got-1.2) > 1e-9 {
		t.Errorf("ratio = %f, want 1.2", got)
	}
	ambiguous := Policy{{Move: "a", Weight: 0.55}, {Move: "b", Weight: 0.5}}
	if got := ConfidenceRatio(ambiguous); got >= confidenceThreshold {
		t.Errorf("ambiguous ratio %f not below threshold", got)
	}
	if got := ConfidenceRatio(Policy{{Move: "a", Weight: 1}}); !math.IsInf(got, 1) {
		t.Errorf("single-entry ratio = %f, want +Inf", got)
	}
	zeroSecond := Policy{{Move: "a", Weight: 1}, {Move: "b", Weight: 0}}
	if got := ConfidenceRatio(zeroSecond); !math.IsInf(got, 1) {
		t.Errorf("zero-second ratio = %f, want +Inf", got)
	}
}

func TestPolicyTop(t *testing.T) {
	p := Policy{{Move: "a"}, {Move: "b"}, {Move: "c"}}
	if got := len(p.Top(2)); got != 2 {
		t.Errorf("Top(2) = %d entries", got)
	}
	if got := len(p.Top(10)); got != 3 {
		t.Errorf("Top(10) = %d entries", got)
	}
}
