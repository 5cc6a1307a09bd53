// Package parallel runs independent face meshing tasks on a fixed set of
// goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a work-stealing pool for face tasks.
//
// Each worker owns a queue. An idle worker steals from the other queues, so a
// single expensive face does not hold back the cheap ones queued behind it.
//
// Thread safety: Pool is safe for concurrent use. Close must not race Run.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	size := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), size)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case fn := <-own:
			fn()
		default:
			if fn := p.steal(id); fn != nil {
				fn()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case fn := <-own:
				fn()
			}
		}
	}
}

func (p *Pool) drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := 1; i < p.workers; i++ {
		select {
		case fn := <-p.queues[(id+i)%p.workers]:
			return fn
		default:
		}
	}
	return nil
}

// Run calls task(i) for every i in [0, n) and waits for all of them.
//
// ctx is checked before each task starts; tasks not yet started when ctx is
// done are skipped and counted in the returned value. A running task is never
// interrupted by Run. On a closed pool the tasks run on the caller's
// goroutine.
func (p *Pool) Run(ctx context.Context, n int, task func(i int)) (skipped int) {
	if n <= 0 {
		return 0
	}

	var missed atomic.Int64
	call := func(i int) {
		if ctx.Err() != nil {
			missed.Add(1)
			return
		}
		task(i)
	}

	if !p.running.Load() {
		for i := range n {
			call(i)
		}
		return int(missed.Load())
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		fn := func() {
			defer wg.Done()
			call(i)
		}
		select {
		case p.queues[i%p.workers] <- fn:
		case <-p.done:
			fn()
		}
	}
	wg.Wait()
	return int(missed.Load())
}

// Close stops the workers after the queued tasks have run.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still has live workers.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Queued returns an approximate number of tasks waiting in the queues.
func (p *Pool) Queued() int {
	total := 0
	for _, q := range p.queues {
		total += len(q)
	}
	return total
}
