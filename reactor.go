package aioloop

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-aioloop/osio"
	"github.com/joeycumines/go-aioloop/task"
	"github.com/joeycumines/logiface"
)

type opKind uint8

const (
	opRead opKind = iota
	opWrite
)

func (k opKind) String() string {
	if k == opWrite {
		return "write"
	}
	return "read"
}

// operation is the in-flight descriptor of a pending read or write. It is
// referenced by its Awaitable and, while pending, by the reactor's slot
// table.
type operation struct {
	ov        osio.Overlapped
	submitted time.Time
	co        *task.Co
	err       error
	loc       Location
	n         int
	kind      opKind
	done      bool
}

// Reactor multiplexes pending reads and writes over a single blocking wait,
// resuming the task suspended on each operation as it completes.
//
// events and ops are index-aligned: for every i below count, events[i] is
// the event of the operation ops[i]. With async submissions, slot 0 holds
// the wake event and has no operation.
type Reactor struct {
	// Prevent copying
	_ [0]func()

	backend Backend
	logger  *logiface.Logger[logiface.Event]
	metrics *metrics

	events []osio.Event
	ops    []*operation

	mu      sync.Mutex
	count   int
	base    int
	closed  bool
	running atomic.Bool

	atomicSubmissions bool
	asyncSubmissions  bool
}

// New creates a reactor. See [Option] for the available configuration.
func New(opts ...Option) (*Reactor, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	r := &Reactor{
		backend:           cfg.backend,
		logger:            cfg.logger,
		atomicSubmissions: cfg.atomicSubmissions,
		asyncSubmissions:  cfg.asyncSubmissions,
	}
	if cfg.metricsEnabled {
		r.metrics = &metrics{}
	}
	if r.asyncSubmissions {
		r.base = 1
	}

	size := cfg.maxInFlight + r.base
	r.events = make([]osio.Event, size)
	r.ops = make([]*operation, size)
	for i := range r.events {
		r.events[i] = osio.InvalidEvent
	}

	if r.asyncSubmissions {
		wake, err := r.backend.CreateEvent()
		if err != nil {
			return nil, &OpError{Op: "event", Slot: 0, Err: err}
		}
		r.events[0] = wake
		r.count = 1
	}

	r.logger.Debug().
		Int("capacity", cfg.maxInFlight).
		Bool("atomic", r.atomicSubmissions).
		Bool("async", r.asyncSubmissions).
		Log("reactor created")

	return r, nil
}

func (r *Reactor) lock() {
	if r.atomicSubmissions {
		r.mu.Lock()
	}
}

func (r *Reactor) unlock() {
	if r.atomicSubmissions {
		r.mu.Unlock()
	}
}

// Open opens path, see [Access] for the modes.
func (r *Reactor) Open(path string, access Access) (*File, error) {
	r.lock()
	closed := r.closed
	r.unlock()
	if closed {
		return nil, ErrClosed
	}

	h, err := r.backend.Open(path, access)
	if err != nil {
		return nil, &OpError{Op: "open", Path: path, Err: err}
	}

	r.logger.Debug().
		Str("path", path).
		Str("access", access.String()).
		Log("file opened")

	return &File{backend: r.backend, path: path, handle: h}, nil
}

// Read reads up to len(buf) bytes at loc. The returned Awaitable must be
// awaited, by the task that called Read, before the task suspends for any
// other reason. buf must not be touched until then.
//
// Errors from issuing the read are returned here. Errors from the read
// itself are returned by [Awaitable.Await].
func (r *Reactor) Read(loc Location, buf []byte) (*Awaitable, error) {
	return r.submit(opRead, loc, buf)
}

// Write writes buf at loc. See [Reactor.Read].
func (r *Reactor) Write(loc Location, buf []byte) (*Awaitable, error) {
	return r.submit(opWrite, loc, buf)
}

// ReadAt reads into buf at loc, suspending co until the read completes.
func (r *Reactor) ReadAt(co *task.Co, loc Location, buf []byte) (int, error) {
	a, err := r.Read(loc, buf)
	if err != nil {
		return 0, err
	}
	return a.Await(co)
}

// WriteAt writes buf at loc, suspending co until the write completes.
func (r *Reactor) WriteAt(co *task.Co, loc Location, buf []byte) (int, error) {
	a, err := r.Write(loc, buf)
	if err != nil {
		return 0, err
	}
	return a.Await(co)
}

func (r *Reactor) submit(kind opKind, loc Location, buf []byte) (*Awaitable, error) {
	op := &operation{kind: kind, loc: loc}
	op.ov.Offset = loc.Offset

	r.lock()
	if r.closed {
		r.unlock()
		return nil, ErrClosed
	}
	slot := r.count
	if slot == len(r.events) {
		r.unlock()
		return nil, fmt.Errorf("%w: %d pending", ErrCapacityExceeded, slot-r.base)
	}
	ev, err := r.slotEvent(slot)
	if err != nil {
		r.unlock()
		return nil, &OpError{Op: "event", Slot: slot, Err: err}
	}
	op.ov.Event = ev

	var n int
	if kind == opWrite {
		n, err = r.backend.Write(loc.Handle, buf, &op.ov)
	} else {
		n, err = r.backend.Read(loc.Handle, buf, &op.ov)
	}

	switch {
	case err == nil:
		r.unlock()
		r.metrics.recordInline()
		r.logger.Debug().
			Str("op", kind.String()).
			Int64("offset", loc.Offset).
			Int("n", n).
			Log("operation completed inline")
		return &Awaitable{n: n}, nil

	case errors.Is(err, osio.ErrIOPending):

	default:
		r.unlock()
		return nil, &OpError{Op: kind.String(), Path: loc.path, Offset: loc.Offset, Err: err}
	}

	op.submitted = time.Now()
	r.ops[slot] = op
	r.count++
	pending := r.count - r.base
	r.unlock()

	r.metrics.recordPending(pending)
	r.logger.Debug().
		Str("op", kind.String()).
		Int64("offset", loc.Offset).
		Int("slot", slot).
		Int("pending", pending).
		Log("operation pending")

	if r.asyncSubmissions {
		if err := r.backend.SetEvent(r.events[0]); err != nil {
			// the operation is registered regardless, Run sees it on its
			// next wakeup
			r.logger.Err().
				Err(err).
				Log("failed to signal wake event")
		}
	}

	return &Awaitable{r: r, op: op}, nil
}

// slotEvent returns the event for slot, creating it on first use. Must be
// called with the lock held.
func (r *Reactor) slotEvent(slot int) (osio.Event, error) {
	ev := r.events[slot]
	if ev == osio.InvalidEvent {
		ev, err := r.backend.CreateEvent()
		if err != nil {
			return osio.InvalidEvent, err
		}
		r.events[slot] = ev
		return ev, nil
	}
	// reused, and possibly left signaled
	if err := r.backend.ResetEvent(ev); err != nil {
		return osio.InvalidEvent, err
	}
	return ev, nil
}

// Run waits for pending operations to complete, resuming the task awaiting
// each one, until none remain. Tasks resumed by Run may submit further
// operations, which Run then also waits for.
//
// With async submissions, operations submitted by other goroutines while
// Run waits are picked up as well. Without, Run only observes submissions
// made before it started waiting.
//
// An error from the backend's wait is returned as an [*OpError], after which
// the reactor should not be reused.
func (r *Reactor) Run() error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	r.lock()
	closed := r.closed
	r.unlock()
	if closed {
		return ErrClosed
	}

	for sz := r.live(); sz != r.base; sz = r.live() {
		idx, err := r.backend.WaitAny(r.events[:sz], osio.Infinite)
		r.metrics.recordWakeup()
		if err == nil && (idx < 0 || idx >= sz) {
			err = fmt.Errorf("signaled index %d out of range [0, %d)", idx, sz)
		}
		if err != nil {
			r.logger.Err().
				Err(err).
				Int("slot", idx).
				Int("events", sz).
				Log("wait failed")
			return &OpError{Op: "wait", Slot: idx, Err: err}
		}

		if r.asyncSubmissions && idx == 0 {
			if err := r.backend.ResetEvent(r.events[0]); err != nil {
				return &OpError{Op: "event", Slot: 0, Err: err}
			}
			r.logger.Debug().Log("woken by submission")
			continue
		}

		co, err := r.dequeue(idx)
		if err != nil {
			return err
		}
		if co != nil {
			if err := co.Resume(); err != nil {
				return fmt.Errorf("aioloop: resume slot %d: %w", idx, err)
			}
		}
	}

	return nil
}

// live returns the number of occupied slots, including the wake slot.
func (r *Reactor) live() int {
	r.lock()
	defer r.unlock()
	return r.count
}

// dequeue removes the completed operation at idx, moving the last entry into
// its place, and returns the continuation to resume. The continuation is nil
// if the operation has not been awaited yet.
func (r *Reactor) dequeue(idx int) (*task.Co, error) {
	r.lock()
	op := r.ops[idx]
	if op == nil || !op.ov.Done() {
		r.unlock()
		return nil, &OpError{Op: "wait", Slot: idx, Err: osio.ErrIncomplete}
	}

	last := r.count - 1
	r.events[idx], r.events[last] = r.events[last], r.events[idx]
	r.ops[idx] = r.ops[last]
	r.ops[last] = nil
	r.count = last

	n, err := op.ov.Result()
	if err != nil {
		err = &OpError{Op: op.kind.String(), Path: op.loc.path, Offset: op.loc.Offset, Err: err}
	}
	op.n, op.err = n, err
	op.done = true
	co := op.co
	op.co = nil
	pending := r.count - r.base
	r.unlock()

	r.metrics.recordCompleted(pending, time.Since(op.submitted))
	b := r.logger.Debug().
		Str("op", op.kind.String()).
		Int("slot", idx).
		Int("n", n).
		Int("pending", pending)
	if err != nil {
		b = b.Err(err)
	}
	b.Log("operation completed")

	if co == nil && !r.atomicSubmissions {
		return nil, fmt.Errorf("%w: %s at offset %d", ErrNotAwaited, op.kind, op.loc.Offset)
	}
	return co, nil
}

// Pending returns the number of operations awaiting completion.
func (r *Reactor) Pending() int {
	r.lock()
	defer r.unlock()
	return r.count - r.base
}

// Capacity returns the maximum number of pending operations.
func (r *Reactor) Capacity() int {
	return len(r.events) - r.base
}

// Metrics returns a snapshot of the reactor's metrics. It is the zero value
// unless the reactor was created with WithMetrics(true).
func (r *Reactor) Metrics() Metrics {
	return r.metrics.load()
}

// Close releases the reactor's events. It fails with ErrOperationsPending,
// releasing nothing, while operations are pending. Calling Close again has
// no effect.
func (r *Reactor) Close() error {
	r.lock()
	defer r.unlock()

	if r.closed {
		return nil
	}
	if pending := r.count - r.base; pending != 0 {
		r.logger.Err().
			Int("pending", pending).
			Log("close refused")
		return fmt.Errorf("%w: %d", ErrOperationsPending, pending)
	}

	r.closed = true
	var errs []error
	for i, ev := range r.events {
		if ev == osio.InvalidEvent {
			continue
		}
		if err := r.backend.CloseEvent(ev); err != nil {
			errs = append(errs, &OpError{Op: "event", Slot: i, Err: err})
		}
		r.events[i] = osio.InvalidEvent
	}
	r.logger.Info().Log("reactor closed")

	return errors.Join(errs...)
}
