//go:build !linux

package osio

import (
	"time"
)

// System is unavailable on this platform; every method returns
// ErrUnsupported.
type System struct{}

// New returns ErrUnsupported.
func New(opts ...Option) (*System, error) {
	if _, err := resolveSystemOptions(opts); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}

func (s *System) MaxWaitObjects() int { return MaxWaitObjects }

func (s *System) Open(string, Access) (Handle, error) { return InvalidHandle, ErrUnsupported }

func (s *System) Close(Handle) error { return ErrUnsupported }

func (s *System) Size(Handle) (int64, error) { return 0, ErrUnsupported }

func (s *System) Read(Handle, []byte, *Overlapped) (int, error) { return 0, ErrUnsupported }

func (s *System) Write(Handle, []byte, *Overlapped) (int, error) { return 0, ErrUnsupported }

func (s *System) CreateEvent() (Event, error) { return InvalidEvent, ErrUnsupported }

func (s *System) SetEvent(Event) error { return ErrUnsupported }

func (s *System) ResetEvent(Event) error { return ErrUnsupported }

func (s *System) CloseEvent(Event) error { return ErrUnsupported }

func (s *System) WaitAny([]Event, time.Duration) (int, error) { return -1, ErrUnsupported }
