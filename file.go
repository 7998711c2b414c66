package aioloop

import (
	"os"
	"sync/atomic"

	"github.com/joeycumines/go-aioloop/osio"
)

// Access selects how [Reactor.Open] opens a file.
type Access = osio.Access

const (
	// AccessRead opens an existing file for reading.
	AccessRead = osio.AccessRead
	// AccessWrite opens a file for writing, creating it if it does not
	// exist. Existing content is not truncated.
	AccessWrite = osio.AccessWrite
	// AccessReadWrite combines AccessRead and AccessWrite.
	AccessReadWrite = osio.AccessReadWrite
)

// Location addresses a byte offset within an open file. It does not own the
// handle.
type Location struct {
	Handle osio.Handle
	Offset int64

	path string
}

// File is an open file handle, owned until Close.
type File struct {
	// Prevent copying
	_ [0]func()

	backend Backend
	path    string
	handle  osio.Handle
	closed  atomic.Bool
}

// At returns the location of offset within f.
func (f *File) At(offset int64) Location {
	return Location{Handle: f.handle, Offset: offset, path: f.path}
}

// Handle returns the underlying handle.
func (f *File) Handle() osio.Handle { return f.handle }

// Path returns the path f was opened with.
func (f *File) Path() string { return f.path }

// Size returns the current size of the file in bytes.
func (f *File) Size() (int64, error) {
	if f.closed.Load() {
		return 0, &os.PathError{Op: "size", Path: f.path, Err: os.ErrClosed}
	}
	n, err := f.backend.Size(f.handle)
	if err != nil {
		return 0, &os.PathError{Op: "size", Path: f.path, Err: err}
	}
	return n, nil
}

// Close releases the handle. Only the first call has any effect, later calls
// return an error wrapping [os.ErrClosed].
//
// Operations still pending on the file must have completed first.
func (f *File) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return &os.PathError{Op: "close", Path: f.path, Err: os.ErrClosed}
	}
	return f.backend.Close(f.handle)
}
