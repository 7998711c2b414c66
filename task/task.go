package task

import (
	"sync"
)

// Void is the result type of tasks that produce no value.
type Void = struct{}

type cellState uint8

const (
	cellPending cellState = iota
	cellValue
	cellError
)

// Task is the result cell of a synchronous task.
//
// The outcome is written exactly once, when the body returns or panics, and
// can be read any number of times with Get. At most one coroutine may wait
// on the task, see [Await].
type Task[T any] struct {
	// Prevent copying
	_ [0]func()

	co     *Co
	err    error
	waiter *Co
	value  T
	mu     sync.Mutex
	state  cellState
	waited bool
}

// Go starts a task. The body runs on the calling goroutine's behalf before Go
// returns, until it first suspends or finishes.
//
// An error returned by the body, or a value it panics with (wrapped in a
// [PanicError]), is stored and reported by Get.
func Go[T any](body func(co *Co) (T, error)) *Task[T] {
	t := new(Task[T])
	t.co = newCo(func(co *Co) {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				t.settle(zero, &PanicError{Value: r})
			}
		}()
		v, err := body(co)
		t.settle(v, err)
	}, t.release)

	// a new coroutine is always suspended
	_ = t.co.Resume()

	return t
}

// GoVoid starts a task that produces no value. See [Go].
func GoVoid(body func(co *Co) error) *Task[Void] {
	return Go(func(co *Co) (Void, error) {
		return Void{}, body(co)
	})
}

// Get returns the stored value, or the stored error. It may be called any
// number of times, yielding the same outcome each time. Before the task
// completes it returns ErrPending.
func (t *Task[T]) Get() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case cellValue:
		return t.value, nil
	case cellError:
		var zero T
		return zero, t.err
	default:
		var zero T
		return zero, ErrPending
	}
}

// Err returns the stored error, ErrPending before completion, or nil.
func (t *Task[T]) Err() error {
	_, err := t.Get()
	return err
}

// Done reports whether the task has completed.
func (t *Task[T]) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != cellPending
}

// State returns the state of the task's coroutine.
func (t *Task[T]) State() State {
	return t.co.State()
}

// Await returns the outcome of t, suspending co until t completes if
// necessary. When t completes, co is resumed before control returns to
// whoever resumed t.
//
// A task accepts a single waiter: a second concurrent Await returns
// ErrWaiterRegistered. Awaiting the task co belongs to returns ErrSelfAwait,
// and a nil co returns ErrNoCoroutine unless t has already completed.
func Await[T any](co *Co, t *Task[T]) (T, error) {
	var zero T

	t.mu.Lock()
	switch {
	case t.state != cellPending:
		t.mu.Unlock()
		return t.Get()
	case co == nil:
		t.mu.Unlock()
		return zero, ErrNoCoroutine
	case co == t.co:
		t.mu.Unlock()
		return zero, ErrSelfAwait
	case t.waited:
		t.mu.Unlock()
		return zero, ErrWaiterRegistered
	}
	t.waited = true
	t.mu.Unlock()

	if err := co.Suspend(func() { t.attach(co) }); err != nil {
		t.mu.Lock()
		t.waited = false
		t.mu.Unlock()
		return zero, err
	}

	return t.Get()
}

func (t *Task[T]) settle(v T, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != cellPending {
		return
	}
	if err != nil {
		t.err = err
		t.state = cellError
		return
	}
	t.value = v
	t.state = cellValue
}

// attach registers co, which has just parked, as the waiter. If t completed
// in the meantime co is resumed immediately.
func (t *Task[T]) attach(co *Co) {
	t.mu.Lock()
	if t.state == cellPending {
		t.waiter = co
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	_ = co.Resume()
}

// release resumes the waiter, once the coroutine has finished.
func (t *Task[T]) release() {
	t.mu.Lock()
	w := t.waiter
	t.waiter = nil
	t.mu.Unlock()
	if w != nil {
		_ = w.Resume()
	}
}
