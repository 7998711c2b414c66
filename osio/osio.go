package osio

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// MaxWaitObjects is the largest event set a single [System.WaitAny] call
// accepts.
const MaxWaitObjects = 64

// Infinite makes [System.WaitAny] block until an event is signaled.
const Infinite time.Duration = -1

// Standard errors.
var (
	// ErrIOPending is returned by Read and Write when the operation has been
	// initiated but not yet completed.
	ErrIOPending = errors.New("osio: i/o pending")

	// ErrIncomplete is returned by [Overlapped.Result] before the operation
	// has completed.
	ErrIncomplete = errors.New("osio: operation incomplete")

	// ErrUnsupported is returned on platforms without an implementation.
	ErrUnsupported = errors.New("osio: unsupported platform")

	// ErrBadEvent is returned when a wait set contains an invalid event.
	ErrBadEvent = errors.New("osio: bad event")

	// ErrTooManyObjects is returned by WaitAny for sets larger than
	// MaxWaitObjects.
	ErrTooManyObjects = errors.New("osio: too many wait objects")

	// ErrTimeout is returned by WaitAny when no event was signaled in time.
	ErrTimeout = errors.New("osio: wait timed out")
)

// Handle is an open file, as an OS descriptor.
type Handle int

// InvalidHandle is never returned by a successful Open.
const InvalidHandle Handle = -1

// Event is a manual-reset event: once set it stays signaled until reset.
type Event int

// InvalidEvent is never returned by a successful CreateEvent.
const InvalidEvent Event = -1

// Access selects the operations permitted on an opened file.
type Access uint8

const (
	// AccessRead opens an existing file for reading.
	AccessRead Access = 1 << iota
	// AccessWrite opens a file for writing, creating it if missing.
	AccessWrite
	// AccessReadWrite opens a file for both, creating it if missing.
	AccessReadWrite = AccessRead | AccessWrite
)

// String returns a human-readable representation of the access mode.
func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read_write"
	default:
		return fmt.Sprintf("Access(%d)", uint8(a))
	}
}

// Overlapped is the completion block of a single read or write. The Event is
// signaled after the result has been published.
type Overlapped struct {
	Offset int64
	Event  Event
	res    atomic.Pointer[completion]
}

type completion struct {
	err error
	n   int
}

// Complete publishes the result of the operation. Only the first call has an
// effect.
func (o *Overlapped) Complete(n int, err error) {
	o.res.CompareAndSwap(nil, &completion{n: n, err: err})
}

// Done reports whether a result has been published.
func (o *Overlapped) Done() bool {
	return o.res.Load() != nil
}

// Result returns the transferred byte count and any completion error, or
// ErrIncomplete if the operation has not completed.
func (o *Overlapped) Result() (int, error) {
	c := o.res.Load()
	if c == nil {
		return 0, ErrIncomplete
	}
	return c.n, c.err
}

// Option configures a [System].
type Option interface {
	applySystem(*systemOptions) error
}

type systemOptions struct {
	noWait bool
}

type systemOptionImpl struct {
	applySystemFunc func(*systemOptions) error
}

func (o *systemOptionImpl) applySystem(opts *systemOptions) error {
	return o.applySystemFunc(opts)
}

// WithNoWait enables the inline fast path: reads and writes are first
// attempted without blocking (RWF_NOWAIT), completing inline when the data is
// already in the page cache, and only issued as pending operations when that
// attempt would block or is not supported.
func WithNoWait(enabled bool) Option {
	return &systemOptionImpl{func(opts *systemOptions) error {
		opts.noWait = enabled
		return nil
	}}
}

func resolveSystemOptions(opts []Option) (*systemOptions, error) {
	cfg := &systemOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applySystem(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
