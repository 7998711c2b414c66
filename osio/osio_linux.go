//go:build linux

package osio

import (
	"encoding/binary"
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// System implements overlapped file I/O and manual-reset events on Linux.
//
// Pending operations are completed on a goroutine per operation, which stands
// in for the kernel: the result is published to the [Overlapped] block
// before its event is signaled. A System is safe for concurrent use.
type System struct {
	opts *systemOptions
}

// New creates a System.
func New(opts ...Option) (*System, error) {
	cfg, err := resolveSystemOptions(opts)
	if err != nil {
		return nil, err
	}
	return &System{opts: cfg}, nil
}

// MaxWaitObjects returns the largest event set accepted by WaitAny.
func (s *System) MaxWaitObjects() int {
	return MaxWaitObjects
}

// Open opens path for overlapped access. AccessRead requires the file to
// exist; write access creates it if missing, without truncating it.
func (s *System) Open(path string, access Access) (Handle, error) {
	var flags int
	switch access {
	case AccessRead:
		flags = unix.O_RDONLY
	case AccessWrite:
		flags = unix.O_WRONLY | unix.O_CREAT
	case AccessReadWrite:
		flags = unix.O_RDWR | unix.O_CREAT
	default:
		return InvalidHandle, &os.PathError{Op: "open", Path: path, Err: unix.EINVAL}
	}
	for {
		fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0o644)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return InvalidHandle, &os.PathError{Op: "open", Path: path, Err: err}
		}
		return Handle(fd), nil
	}
}

// Close releases the handle.
func (s *System) Close(h Handle) error {
	if err := unix.Close(int(h)); err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}

// Size returns the current size of the file, in bytes.
func (s *System) Size(h Handle) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(h), &st); err != nil {
		return 0, os.NewSyscallError("fstat", err)
	}
	return st.Size, nil
}

// Read issues a read of up to len(buf) bytes at ov.Offset.
//
// It returns the byte count if the read completed inline, or ErrIOPending if
// it will complete asynchronously. Any other error means nothing was issued.
func (s *System) Read(h Handle, buf []byte, ov *Overlapped) (int, error) {
	return s.issue(opRead, h, buf, ov)
}

// Write issues a write of buf at ov.Offset. See [System.Read].
func (s *System) Write(h Handle, buf []byte, ov *Overlapped) (int, error) {
	return s.issue(opWrite, h, buf, ov)
}

type ioOp uint8

const (
	opRead ioOp = iota
	opWrite
)

func (op ioOp) String() string {
	if op == opWrite {
		return "pwrite"
	}
	return "pread"
}

func (s *System) issue(op ioOp, h Handle, buf []byte, ov *Overlapped) (int, error) {
	if ov == nil || ov.Offset < 0 {
		return 0, os.NewSyscallError(op.String(), unix.EINVAL)
	}
	if err := checkAccess(op, h); err != nil {
		return 0, os.NewSyscallError(op.String(), err)
	}

	if s.opts.noWait {
		n, err := op.noWait(int(h), buf, ov.Offset)
		switch {
		case err == nil:
			ov.Complete(n, nil)
			return n, nil
		case wouldBlock(err):
		default:
			return 0, os.NewSyscallError(op.String()+"v2", err)
		}
	}

	if ov.Event < 0 {
		return 0, ErrBadEvent
	}
	go s.complete(op, h, buf, ov)
	return 0, ErrIOPending
}

func (s *System) complete(op ioOp, h Handle, buf []byte, ov *Overlapped) {
	n, err := op.do(int(h), buf, ov.Offset)
	if err != nil {
		err = os.NewSyscallError(op.String(), err)
	}
	ov.Complete(n, err)
	_ = s.SetEvent(ov.Event)
}

// checkAccess reports EBADF synchronously for closed handles and for handles
// lacking the access the operation needs.
func checkAccess(op ioOp, h Handle) error {
	flags, err := unix.FcntlInt(uintptr(h), unix.F_GETFL, 0)
	if err != nil {
		return err
	}
	mode := flags & unix.O_ACCMODE
	if (op == opRead && mode == unix.O_WRONLY) || (op == opWrite && mode == unix.O_RDONLY) {
		return unix.EBADF
	}
	return nil
}

func (op ioOp) noWait(fd int, buf []byte, off int64) (int, error) {
	for {
		var n int
		var err error
		if op == opWrite {
			n, err = unix.Pwritev2(fd, [][]byte{buf}, off, unix.RWF_NOWAIT)
		} else {
			n, err = unix.Preadv2(fd, [][]byte{buf}, off, unix.RWF_NOWAIT)
		}
		if err == unix.EINTR {
			continue
		}
		if err == nil && op == opWrite && n < len(buf) {
			// a partial write cannot be resumed inline without blocking
			return n, unix.EAGAIN
		}
		return n, err
	}
}

func (op ioOp) do(fd int, buf []byte, off int64) (int, error) {
	if op == opRead {
		for {
			n, err := unix.Pread(fd, buf, off)
			if err == unix.EINTR {
				continue
			}
			if n < 0 {
				n = 0
			}
			return n, err
		}
	}
	var total int
	for total < len(buf) {
		n, err := unix.Pwrite(fd, buf[total:], off+int64(total))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, unix.EIO
		}
		total += n
	}
	return total, nil
}

func wouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EOPNOTSUPP || err == unix.ENOSYS
}

// CreateEvent creates an unsignaled manual-reset event.
func (s *System) CreateEvent() (Event, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return InvalidEvent, os.NewSyscallError("eventfd", err)
	}
	return Event(fd), nil
}

// SetEvent signals the event. Setting a signaled event has no effect.
func (s *System) SetEvent(e Event) error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(int(e), buf[:])
		switch err {
		case nil, unix.EAGAIN:
			return nil
		case unix.EINTR:
			continue
		default:
			return os.NewSyscallError("write", err)
		}
	}
}

// ResetEvent returns the event to the unsignaled state.
func (s *System) ResetEvent(e Event) error {
	var buf [8]byte
	for {
		_, err := unix.Read(int(e), buf[:])
		switch err {
		case nil, unix.EAGAIN:
			return nil
		case unix.EINTR:
			continue
		default:
			return os.NewSyscallError("read", err)
		}
	}
}

// CloseEvent releases the event.
func (s *System) CloseEvent(e Event) error {
	if err := unix.Close(int(e)); err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}

// WaitAny blocks until at least one of events is signaled, returning the
// lowest signaled index. A negative timeout (see [Infinite]) waits forever;
// otherwise ErrTimeout is returned once it elapses. The events are not reset.
func (s *System) WaitAny(events []Event, timeout time.Duration) (int, error) {
	if len(events) == 0 {
		return -1, os.NewSyscallError("poll", unix.EINVAL)
	}
	if len(events) > MaxWaitObjects {
		return -1, ErrTooManyObjects
	}

	var buf [MaxWaitObjects]unix.PollFd
	fds := buf[:len(events)]
	for i, e := range events {
		if e < 0 {
			return -1, ErrBadEvent
		}
		fds[i] = unix.PollFd{Fd: int32(e), Events: unix.POLLIN}
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		ms := -1
		if timeout >= 0 {
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}
			ms = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}

		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, os.NewSyscallError("poll", err)
		}
		if n == 0 {
			return -1, ErrTimeout
		}

		for i := range fds {
			revents := fds[i].Revents
			if revents&unix.POLLNVAL != 0 {
				return i, errors.Join(ErrBadEvent, os.NewSyscallError("poll", unix.EBADF))
			}
			if revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0 {
				return i, nil
			}
		}
	}
}
