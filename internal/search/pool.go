package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrAllTasksFailed is returned when every task of a decision point failed.
// The decision point fails with it; there is no silent default action.
var ErrAllTasksFailed = errors.New("search: all search tasks failed")

// Factory builds one isolated worker engine.
type Factory func() (Engine, error)

// Pool is a bounded pool of isolated engine workers. The pool is the only
// shared mutable resource of the decision pipeline: batches and resizes are
// serialized under one mutex, so a resize never races outstanding tasks.
type Pool struct {
	mu      sync.Mutex
	size    int
	workers []Engine
	factory Factory
}

// NewPool creates the pool and eagerly spawns its workers.
func NewPool(size int, factory Factory) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	p := &Pool{size: size, factory: factory}
	if err := p.spawnLocked(); err != nil {
		p.closeWorkersLocked()
		return nil, err
	}
	return p, nil
}

// Size returns the configured parallelism.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Resize drains the current workers and recreates the pool at the new
// parallelism. It blocks until no batch is in flight.
func (p *Pool) Resize(size int) error {
	if size < 1 {
		size = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if size == p.size && len(p.workers) == p.size {
		return nil
	}
	log.Info().Int("from", p.size).Int("to", size).Msg("Resizing worker pool")
	p.closeWorkersLocked()
	p.size = size
	return p.spawnLocked()
}

// Close drains and closes all workers.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeWorkersLocked()
}

func (p *Pool) spawnLocked() error {
	p.workers = make([]Engine, 0, p.size)
	for i := 0; i < p.size; i++ {
		w, err := p.factory()
		if err != nil {
			return fmt.Errorf("search: spawn worker %d: %w", i, err)
		}
		p.workers = append(p.workers, w)
	}
	return nil
}

func (p *Pool) closeWorkersLocked() {
	for _, w := range p.workers {
		if err := w.Close(); err != nil {
			log.Warn().Err(err).Msg("Worker close failed")
		}
	}
	p.workers = nil
}

// RunBatch executes all tasks across the pool's workers and joins before
// returning. Dispatched tasks always run to their allotted budget; there is
// no mid-flight cancellation. Per-task failures are recorded in the result
// slice; ErrAllTasksFailed is returned only when no task succeeded.
func (p *Pool) RunBatch(ctx context.Context, tasks []Task) ([]TaskResult, error) {
	if len(tasks) == 0 {
		return nil, ErrAllTasksFailed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]TaskResult, len(tasks))
	queue := make(chan Task, len(tasks))
	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	var g errgroup.Group
	for _, w := range p.workers {
		worker := w
		g.Go(func() error {
			for task := range queue {
				res, err := worker.Search(ctx, task.State, task.Budget)
				results[task.Index] = TaskResult{Task: task, Result: res, Err: err}
				if err != nil {
					log.Warn().Err(err).Int("task", task.Index).Msg("Search task failed")
				}
			}
			return nil
		})
	}
	g.Wait()

	anyOK := false
	for _, r := range results {
		if r.Err == nil && r.Result != nil {
			anyOK = true
			break
		}
	}
	if !anyOK {
		return nil, ErrAllTasksFailed
	}
	return results, nil
}
