// Package parallel provides the worker pool that runs per-pixel passes
// as parallel loops over grid rows.
//
// Rows are distributed in contiguous chunks so each worker touches a
// compact byte range of the pass buffers. The pool is long-lived: a
// device creates one pool at construction and reuses it for every pass.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of worker goroutines executing row ranges.
//
// Thread safety: Pool is safe for concurrent use, but the software
// device serializes passes, so Rows is in practice called from a
// single goroutine at a time.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	// tasks carries row-range closures to the workers.
	tasks chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to exit on Close.
	wg sync.WaitGroup

	// running indicates whether the pool accepts work.
	running atomic.Bool
}

// NewPool creates a worker pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used. Workers start
// immediately and wait for work.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		tasks:   make(chan func(), workers*4),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.done:
			// Drain queued work so an in-flight Rows never hangs.
			for {
				select {
				case task := <-p.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *Pool) IsRunning() bool { return p.running.Load() }

// Rows calls fn for every y in [0, height), distributing contiguous
// row chunks across the workers and blocking until all rows complete.
// A closed pool runs the rows on the calling goroutine so passes keep
// their semantics even during teardown races.
func (p *Pool) Rows(height int, fn func(y int)) {
	if height <= 0 {
		return
	}
	if !p.running.Load() || p.workers == 1 {
		for y := 0; y < height; y++ {
			fn(y)
		}
		return
	}

	// Chunks of a few rows each keep the task count moderate while
	// still balancing uneven per-row work.
	chunk := height / (p.workers * 4)
	if chunk < 1 {
		chunk = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < height; start += chunk {
		end := start + chunk
		if end > height {
			end = height
		}
		s, e := start, end
		wg.Add(1)
		p.tasks <- func() {
			defer wg.Done()
			for y := s; y < e; y++ {
				fn(y)
			}
		}
	}
	wg.Wait()
}

// Close stops all workers and waits for them to exit. Work submitted
// after Close runs on the calling goroutine.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
