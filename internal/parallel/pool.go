// Package parallel runs batches of independent tasks on a bounded number of
// goroutines.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Task is one unit of work. It should return promptly once ctx is done.
type Task func(ctx context.Context) error

// Pool runs task batches on a fixed number of workers.
//
// Each batch is split round-robin into per-worker queues. A worker drains
// its own queue first and then steals from the others, so a few slow tasks
// do not leave the remaining workers idle.
//
// Thread safety: Pool is safe for concurrent use; batches do not share
// goroutines.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes tasks and waits for all of them. Tasks that have not
// started when ctx is done are skipped. The result joins every task error,
// plus ctx.Err() when tasks were skipped.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	workers := min(p.workers, len(tasks))

	queues := make([]chan Task, workers)
	for i := range queues {
		queues[i] = make(chan Task, (len(tasks)+workers-1)/workers)
	}
	for i, t := range tasks {
		queues[i%workers] <- t
	}
	for _, q := range queues {
		close(q)
	}

	var (
		mu      sync.Mutex
		errs    []error
		skipped bool
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for id := range workers {
		go func() {
			defer wg.Done()
			for {
				t, ok := next(queues, id)
				if !ok {
					return
				}
				if ctx.Err() != nil {
					mu.Lock()
					skipped = true
					mu.Unlock()
					continue
				}
				record(t(ctx))
			}
		}()
	}
	wg.Wait()

	if skipped {
		errs = append(errs, ctx.Err())
	}
	return errors.Join(errs...)
}

// next takes a task from the worker's own queue, or steals one.
// Queues are filled and closed before workers start, so receives never
// block.
func next(queues []chan Task, id int) (Task, bool) {
	for i := range queues {
		if t, ok := <-queues[(id+i)%len(queues)]; ok {
			return t, true
		}
	}
	return nil, false
}
