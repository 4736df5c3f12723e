package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeEngine returns scripted results keyed by nothing in particular; each
// Search call consults the supplied function.
type fakeEngine struct {
	search func(state string, budget time.Duration) (*Result, error)
	closed atomic.Bool
}

func (e *fakeEngine) Search(_ context.Context, state string, budget time.Duration) (*Result, error) {
	return e.search(state, budget)
}

func (e *fakeEngine) Close() error {
	e.closed.Store(true)
	return nil
}

func fixedFactory(res *Result) Factory {
	return func() (Engine, error) {
		return &fakeEngine{search: func(string, time.Duration) (*Result, error) {
			return res, nil
		}}, nil
	}
}

func someTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{State: "s", Weight: 1, Budget: 10 * time.Millisecond, Index: i}
	}
	return tasks
}

func TestPoolRunBatch(t *testing.T) {
	res := result(10, MoveOption{Move: "a", Visits: 10})
	p, err := NewPool(3, fixedFactory(res))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	results, err := p.RunBatch(context.Background(), someTasks(7))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 7 {
		t.Fatalf("results = %d", len(results))
	}
	for i, r := range results {
		if r.Task.Index != i {
			t.Errorf("result %d carries task %d", i, r.Task.Index)
		}
		if r.Err != nil || r.Result == nil {
			t.Errorf("task %d failed: %v", i, r.Err)
		}
	}
}

func TestPoolRunBatchPartialFailure(t *testing.T) {
	var calls atomic.Int32
	factory := func() (Engine, error) {
		return &fakeEngine{search: func(string, time.Duration) (*Result, error) {
			if calls.Add(1)%2 == 0 {
				return nil, errors.New("engine crashed")
			}
			return result(10, MoveOption{Move: "a", Visits: 10}), nil
		}}, nil
	}
	p, err := NewPool(2, factory)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	results, err := p.RunBatch(context.Background(), someTasks(4))
	if err != nil {
		t.Fatalf("partial failure escalated: %v", err)
	}
	ok, failed := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	if ok == 0 || failed == 0 {
		t.Errorf("ok = %d, failed = %d, want a mix", ok, failed)
	}
}

func TestPoolRunBatchAllFailed(t *testing.T) {
	factory := func() (Engine, error) {
		return &fakeEngine{search: func(string, time.Duration) (*Result, error) {
			return nil, errors.New("engine crashed")
		}}, nil
	}
	p, err := NewPool(2, factory)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.RunBatch(context.Background(), someTasks(3)); !errors.Is(err, ErrAllTasksFailed) {
		t.Fatalf("err = %v, want ErrAllTasksFailed", err)
	}
	if _, err := p.RunBatch(context.Background(), nil); !errors.Is(err, ErrAllTasksFailed) {
		t.Fatalf("empty batch err = %v, want ErrAllTasksFailed", err)
	}
}

func TestPoolResize(t *testing.T) {
	var spawned atomic.Int32
	var engines []*fakeEngine
	factory := func() (Engine, error) {
		spawned.Add(1)
		e := &fakeEngine{search: func(string, time.Duration) (*Result, error) {
			return result(1, MoveOption{Move: "a", Visits: 1}), nil
		}}
		engines = append(engines, e)
		return e, nil
	}

	p, err := NewPool(2, factory)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if p.Size() != 2 || spawned.Load() != 2 {
		t.Fatalf("initial size = %d, spawned = %d", p.Size(), spawned.Load())
	}

	if err := p.Resize(4); err != nil {
		t.Fatal(err)
	}
	if p.Size() != 4 {
		t.Errorf("size after resize = %d", p.Size())
	}
	// The original workers must have been drained and closed.
	for i := 0; i < 2; i++ {
		if !engines[i].closed.Load() {
			t.Errorf("worker %d not closed on resize", i)
		}
	}

	if _, err := p.RunBatch(context.Background(), someTasks(4)); err != nil {
		t.Fatalf("batch after resize: %v", err)
	}
}

func TestPoolSpawnFailure(t *testing.T) {
	factory := func() (Engine, error) {
		return nil, errors.New("binary missing")
	}
	if _, err := NewPool(2, factory); err == nil {
		t.Fatal("pool creation succeeded without workers")
	}
}
