package aioloop

import (
	"errors"
	"strconv"
	"strings"
)

// Standard errors.
var (
	// ErrInvalidConfig is returned by New for inconsistent options.
	ErrInvalidConfig = errors.New("aioloop: invalid configuration")

	// ErrCapacityExceeded is returned by Read and Write when MaxInFlight
	// operations are already pending.
	ErrCapacityExceeded = errors.New("aioloop: too many operations in flight")

	// ErrOperationsPending is returned by Close while operations are pending.
	ErrOperationsPending = errors.New("aioloop: operations pending")

	// ErrAlreadyAwaited is returned by Awaitable.Await on the second call.
	ErrAlreadyAwaited = errors.New("aioloop: awaitable already awaited")

	// ErrNotAwaited is returned by Run when a completed operation has no
	// suspended task to resume, i.e. its awaitable was never awaited.
	ErrNotAwaited = errors.New("aioloop: completed operation was not awaited")

	// ErrAlreadyRunning is returned when Run is called while running.
	ErrAlreadyRunning = errors.New("aioloop: reactor is already running")

	// ErrClosed is returned when operations are attempted on a closed reactor.
	ErrClosed = errors.New("aioloop: reactor is closed")
)

// OpError describes a failed submission or wait.
type OpError struct {
	Err    error
	Op     string // "open", "read", "write", "event" or "wait"
	Path   string
	Slot   int
	Offset int64
}

// Error implements the error interface.
func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString("aioloop: ")
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Op == "read" || e.Op == "write" {
		b.WriteString(" at offset ")
		b.WriteString(strconv.FormatInt(e.Offset, 10))
	}
	if e.Op == "wait" || e.Op == "event" {
		b.WriteString(" slot ")
		b.WriteString(strconv.Itoa(e.Slot))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *OpError) Unwrap() error {
	return e.Err
}
