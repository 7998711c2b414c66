// Package osio implements the operating system primitives consumed by the
// aioloop reactor: files opened for overlapped access, manual-reset events,
// and a bounded wait on a set of events.
//
// # Overlapped I/O
//
// A read or write is issued against a [Handle] and an [Overlapped] block. It
// either completes inline, returning the byte count, or returns
// [ErrIOPending], in which case the block's result is published later and its
// [Event] is signaled. The block must not be reused until then.
//
// # Platform Support
//
// Linux only: events are eventfd(2) descriptors, [System.WaitAny] is poll(2),
// and pending operations are completed off the calling goroutine. Other
// platforms return [ErrUnsupported] from [New].
package osio
