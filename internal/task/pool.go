package task

import (
	"runtime"
	"sync"
)

// DefaultWorkers returns the worker count for the shared pool:
// max(NumCPU-1, 1), capped at 2. Task bodies are I/O and crypto bound;
// more workers than that only increases peak memory.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	if n > 2 {
		n = 2
	}
	return n
}

// Pool runs task bodies on a fixed set of workers. The queue is unbounded
// so that submitters (the single control goroutine) never block.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Task
	closing bool
	wg      sync.WaitGroup
	notify  func(func())
}

// NewPool starts a pool with the given number of workers (DefaultWorkers
// when n <= 0). notify delivers completion callbacks; the owner points it
// at its serialized event loop so completions never run concurrently.
func NewPool(n int, notify func(func())) *Pool {
	if n <= 0 {
		n = DefaultWorkers()
	}
	if notify == nil {
		notify = func(fn func()) { fn() }
	}
	p := &Pool{notify: notify}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) enqueue(t *Task) {
	p.mu.Lock()
	p.queue = append(p.queue, t)
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closing {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		t.run()
	}
}

// quitting reports whether Close has been called. Queued tasks still run
// during shutdown, but they observe cancellation and short-circuit.
func (p *Pool) quitting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closing
}

// Close drains the queue and stops the workers. Tasks already queued are
// still executed (their bodies see Canceled() and may short-circuit, but
// reply contracts such as the image request's are honored). Blocks until
// all workers have exited.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}
