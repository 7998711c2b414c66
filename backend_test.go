package aioloop

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/joeycumines/go-aioloop/osio"
)

var errFakeDeadlock = errors.New("fake: wait with nothing pending")

type fakeOp struct {
	ov    *osio.Overlapped
	path  string
	buf   []byte
	write bool
}

// fakeBackend is an in-memory Backend. Pending operations complete when
// WaitAny finds nothing signaled (picking one with pick), or, in manual
// mode, when completeNext is called.
type fakeBackend struct {
	mu       sync.Mutex
	cond     *sync.Cond
	files    map[string][]byte
	handles  map[osio.Handle]string
	live     map[osio.Event]bool
	signaled map[osio.Event]bool
	queue    []*fakeOp
	pick     func(n int) int

	submitErr   error
	completeErr error
	waitErr     error

	nextHandle osio.Handle
	nextEvent  osio.Event
	maxWait    int
	waits      int
	created    int
	inline     bool
	manual     bool
}

func newFakeBackend() *fakeBackend {
	f := &fakeBackend{
		files:      make(map[string][]byte),
		handles:    make(map[osio.Handle]string),
		live:       make(map[osio.Event]bool),
		signaled:   make(map[osio.Event]bool),
		nextHandle: 3,
		nextEvent:  100,
		maxWait:    osio.MaxWaitObjects,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *fakeBackend) Open(path string, access osio.Access) (osio.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; !ok {
		if access == osio.AccessRead {
			return osio.InvalidHandle, &os.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
		}
		f.files[path] = nil
	}
	h := f.nextHandle
	f.nextHandle++
	f.handles[h] = path
	return h, nil
}

func (f *fakeBackend) Close(h osio.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handles[h]; !ok {
		return fs.ErrClosed
	}
	delete(f.handles, h)
	return nil
}

func (f *fakeBackend) Size(h osio.Handle) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path, ok := f.handles[h]
	if !ok {
		return 0, fs.ErrClosed
	}
	return int64(len(f.files[path])), nil
}

func (f *fakeBackend) Read(h osio.Handle, buf []byte, ov *osio.Overlapped) (int, error) {
	return f.issue(h, buf, ov, false)
}

func (f *fakeBackend) Write(h osio.Handle, buf []byte, ov *osio.Overlapped) (int, error) {
	return f.issue(h, buf, ov, true)
}

func (f *fakeBackend) issue(h osio.Handle, buf []byte, ov *osio.Overlapped, write bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return 0, f.submitErr
	}
	path, ok := f.handles[h]
	if !ok {
		return 0, fs.ErrClosed
	}
	op := &fakeOp{ov: ov, path: path, buf: buf, write: write}
	if f.inline {
		n, err := f.transfer(op)
		return n, err
	}
	f.queue = append(f.queue, op)
	return 0, osio.ErrIOPending
}

func (f *fakeBackend) transfer(op *fakeOp) (int, error) {
	if f.completeErr != nil {
		return 0, f.completeErr
	}
	data := f.files[op.path]
	off := int(op.ov.Offset)
	if op.write {
		if end := off + len(op.buf); end > len(data) {
			data = append(data, make([]byte, end-len(data))...)
		}
		n := copy(data[off:], op.buf)
		f.files[op.path] = data
		return n, nil
	}
	if off >= len(data) {
		return 0, nil
	}
	return copy(op.buf, data[off:]), nil
}

// completeLocked completes the queued operation at i, then signals its
// event.
func (f *fakeBackend) completeLocked(i int) {
	op := f.queue[i]
	f.queue = append(f.queue[:i], f.queue[i+1:]...)
	op.ov.Complete(f.transfer(op))
	f.signaled[op.ov.Event] = true
	f.cond.Broadcast()
}

// completeNext completes the oldest queued operation. It reports false if
// there is none.
func (f *fakeBackend) completeNext() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return false
	}
	f.completeLocked(0)
	return true
}

func (f *fakeBackend) queued() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

func (f *fakeBackend) waitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits
}

func (f *fakeBackend) liveEvents() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func (f *fakeBackend) CreateEvent() (osio.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.nextEvent
	f.nextEvent++
	f.created++
	f.live[e] = true
	return e, nil
}

func (f *fakeBackend) SetEvent(e osio.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.live[e] {
		return osio.ErrBadEvent
	}
	f.signaled[e] = true
	f.cond.Broadcast()
	return nil
}

func (f *fakeBackend) ResetEvent(e osio.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.live[e] {
		return osio.ErrBadEvent
	}
	delete(f.signaled, e)
	return nil
}

func (f *fakeBackend) CloseEvent(e osio.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.live[e] {
		return osio.ErrBadEvent
	}
	delete(f.live, e)
	delete(f.signaled, e)
	return nil
}

func (f *fakeBackend) WaitAny(events []osio.Event, timeout time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits++
	if f.waitErr != nil {
		return -1, f.waitErr
	}
	if len(events) > f.maxWait {
		return -1, osio.ErrTooManyObjects
	}
	for {
		for i, e := range events {
			if !f.live[e] {
				return -1, osio.ErrBadEvent
			}
			if f.signaled[e] {
				return i, nil
			}
		}
		if f.manual {
			f.cond.Wait()
			continue
		}
		if len(f.queue) == 0 {
			return -1, errFakeDeadlock
		}
		i := len(f.queue) - 1
		if f.pick != nil {
			i = f.pick(len(f.queue))
		}
		f.completeLocked(i)
	}
}

func (f *fakeBackend) MaxWaitObjects() int {
	return f.maxWait
}

var _ Backend = (*fakeBackend)(nil)
