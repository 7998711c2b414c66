package aioloop

import (
	"time"

	"github.com/joeycumines/go-aioloop/osio"
)

// Backend is the set of operating system primitives a [Reactor] is built on.
// [osio.System] is the default implementation.
//
// Read and Write either complete inline, returning the transferred byte
// count, or return [osio.ErrIOPending], after which the result is published
// to the [osio.Overlapped] block and its event is signaled. Any other error
// means nothing was initiated.
type Backend interface {
	Open(path string, access osio.Access) (osio.Handle, error)
	Close(h osio.Handle) error
	Size(h osio.Handle) (int64, error)
	Read(h osio.Handle, buf []byte, ov *osio.Overlapped) (int, error)
	Write(h osio.Handle, buf []byte, ov *osio.Overlapped) (int, error)

	// CreateEvent returns a new manual-reset event, initially unsignaled.
	CreateEvent() (osio.Event, error)
	SetEvent(e osio.Event) error
	ResetEvent(e osio.Event) error
	CloseEvent(e osio.Event) error

	// WaitAny blocks until one of events is signaled, returning the lowest
	// signaled index. A negative timeout waits forever.
	WaitAny(events []osio.Event, timeout time.Duration) (int, error)

	// MaxWaitObjects is the largest event set WaitAny accepts.
	MaxWaitObjects() int
}

var _ Backend = (*osio.System)(nil)
