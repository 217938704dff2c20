// Package task provides cancelable units of asynchronous work and the
// bounded worker pool that runs them.
//
// A Task is submitted exactly once, runs once on a pool worker, and posts
// its completion callback through the pool's notify function, which the
// owner points at its own serialized event loop. Cancellation is
// cooperative: the running body polls Canceled() at its own safe points.
// Releasing a task detaches the owner's interest; a released task that was
// already submitted still runs (it may have irreversible side effects) but
// its completion callback is suppressed.
//
// Double-submit, submit-after-release, and double-release are programming
// errors and panic.
package task

import "sync"

// State is the lifecycle position of a task.
type State int

const (
	Created State = iota
	Submitted
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Submitted:
		return "submitted"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Task is one cancelable unit of work. The body receives the task itself
// so it can poll Canceled() at safe points.
type Task struct {
	mu       sync.Mutex
	state    State
	canceled bool
	released bool
	pool     *Pool
	body     func(*Task)
	onDone   func()
}

// New creates a task around a body. The task owns no shared state; the
// body must operate only on inputs captured at construction time.
func New(body func(*Task)) *Task {
	return &Task{body: body}
}

// Submit enqueues the task exactly once. onDone is delivered through the
// pool's notify function after the body returns, unless the task has been
// released by then.
func (t *Task) Submit(p *Pool, onDone func()) {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		panic("task: submit after release")
	}
	if t.state != Created {
		t.mu.Unlock()
		panic("task: double submit")
	}
	t.state = Submitted
	t.pool = p
	t.onDone = onDone
	t.mu.Unlock()
	p.enqueue(t)
}

// Cancel requests cooperative cancellation. Idempotent; observable by the
// running body via Canceled().
func (t *Task) Cancel() {
	t.mu.Lock()
	t.canceled = true
	t.mu.Unlock()
}

// Canceled reports whether the body should short-circuit further work.
// True once the task is canceled, released, or the pool is shutting down.
func (t *Task) Canceled() bool {
	t.mu.Lock()
	c := t.canceled || t.released
	p := t.pool
	t.mu.Unlock()
	if c {
		return true
	}
	return p != nil && p.quitting()
}

// Release detaches the owner's interest. A task that was never submitted,
// or submitted but not yet run, is also canceled; a task already running
// finishes its in-flight work but its completion callback never fires; a
// completed task is released with no further effect.
func (t *Task) Release() {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		panic("task: double release")
	}
	t.released = true
	if t.state == Created || t.state == Submitted {
		t.canceled = true
	}
	t.mu.Unlock()
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Released reports whether the owner has released the task.
func (t *Task) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// run executes the body on a pool worker. Completion is posted exactly
// once, and only for tasks still owned at completion time.
func (t *Task) run() {
	t.mu.Lock()
	t.state = Running
	t.mu.Unlock()

	t.body(t)

	t.mu.Lock()
	t.state = Done
	released := t.released
	onDone := t.onDone
	pool := t.pool
	t.mu.Unlock()

	if !released && onDone != nil {
		pool.notify(onDone)
	}
}
