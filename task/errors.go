package task

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrPending is returned by Get before the task has completed.
	ErrPending = errors.New("task: not completed")

	// ErrNotSuspended is returned by Resume when the coroutine is running or
	// has finished.
	ErrNotSuspended = errors.New("task: coroutine is not suspended")

	// ErrNotRunning is returned by Suspend when called outside the body of a
	// running coroutine.
	ErrNotRunning = errors.New("task: coroutine is not running")

	// ErrWaiterRegistered is returned by Await when another coroutine is
	// already waiting on the task.
	ErrWaiterRegistered = errors.New("task: task already has a waiter")

	// ErrSelfAwait is returned by Await when a task awaits itself.
	ErrSelfAwait = errors.New("task: task cannot await itself")

	// ErrNoCoroutine is returned when suspension is required but no
	// coroutine was provided.
	ErrNoCoroutine = errors.New("task: no coroutine to suspend")
)

// PanicError wraps a value recovered from a panicking task body.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task: panic: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
