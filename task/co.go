package task

import (
	"iter"
	"sync/atomic"
)

// State is the execution state of a coroutine.
//
//	StateSuspended → StateRunning   [Resume]
//	StateRunning → StateSuspended   [Suspend]
//	StateRunning → StateDone        [body returned]
//
// A coroutine starts in StateSuspended.
type State int32

const (
	// StateSuspended indicates the coroutine is parked, waiting for Resume.
	StateSuspended State = iota
	// StateRunning indicates the coroutine body is executing.
	StateRunning
	// StateDone indicates the body has returned.
	StateDone
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateSuspended:
		return "Suspended"
	case StateRunning:
		return "Running"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Co is the coroutine a task body runs on, and the continuation used to
// resume it.
type Co struct {
	// Prevent copying
	_ [0]func()

	next   func() (func(), bool)
	stop   func()
	yield  func(func()) bool
	onExit func()
	state  atomic.Int32
}

func newCo(body func(co *Co), onExit func()) *Co {
	co := &Co{onExit: onExit}
	co.next, co.stop = iter.Pull(func(yield func(func()) bool) {
		co.yield = yield
		body(co)
	})
	return co
}

// State returns the current state of the coroutine.
func (co *Co) State() State {
	return State(co.state.Load())
}

// Resume continues the coroutine from its last suspension point, returning
// once it suspends again or finishes. It returns ErrNotSuspended if the
// coroutine is running or done.
//
// If the body suspended with an onSuspend function, it runs before Resume
// returns. If the body finished, whoever awaits its task is resumed before
// Resume returns.
func (co *Co) Resume() error {
	if !co.state.CompareAndSwap(int32(StateSuspended), int32(StateRunning)) {
		return ErrNotSuspended
	}

	onSuspend, ok := co.next()
	if !ok {
		co.state.Store(int32(StateDone))
		co.stop()
		if co.onExit != nil {
			co.onExit()
		}
		return nil
	}

	co.state.Store(int32(StateSuspended))
	if onSuspend != nil {
		onSuspend()
	}
	return nil
}

// Suspend parks the calling coroutine until it is resumed. It must be called
// from the coroutine's own body.
//
// onSuspend, if non-nil, runs once the coroutine is parked, on the goroutine
// that resumed it. It is the place to publish the coroutine to whatever will
// resume it: publishing it before Suspend is called would allow a resume
// while the body is still running.
func (co *Co) Suspend(onSuspend func()) error {
	if co == nil {
		return ErrNoCoroutine
	}
	if co.State() != StateRunning {
		return ErrNotRunning
	}
	if !co.yield(onSuspend) {
		return ErrNotRunning
	}
	return nil
}
