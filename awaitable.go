package aioloop

import (
	"sync/atomic"

	"github.com/joeycumines/go-aioloop/task"
)

// Awaitable is the result of a submitted read or write, see [Reactor.Read].
type Awaitable struct {
	// Prevent copying
	_ [0]func()

	r       *Reactor
	op      *operation // nil if completed inline
	n       int
	awaited atomic.Bool
}

// Ready reports whether Await would return without suspending.
func (a *Awaitable) Ready() bool {
	if a.op == nil {
		return true
	}
	a.r.lock()
	defer a.r.unlock()
	return a.op.done
}

// Await returns the number of bytes transferred, suspending co until the
// operation completes if it did not complete on submission. It may only be
// called once.
func (a *Awaitable) Await(co *task.Co) (int, error) {
	if !a.awaited.CompareAndSwap(false, true) {
		return 0, ErrAlreadyAwaited
	}
	if a.op == nil {
		return a.n, nil
	}

	r, op := a.r, a.op
	if !a.Ready() {
		err := co.Suspend(func() {
			r.lock()
			if !op.done {
				op.co = co
				r.unlock()
				return
			}
			// dequeued by Run before co had parked
			r.unlock()
			_ = co.Resume()
		})
		if err != nil {
			a.awaited.Store(false)
			return 0, err
		}
	}

	r.lock()
	defer r.unlock()
	return op.n, op.err
}
