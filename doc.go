// Package aioloop provides a minimal single-threaded asynchronous I/O
// runtime: a [Reactor] that multiplexes a bounded set of pending reads and
// writes over one blocking wait, resuming the [task.Task] suspended on each
// operation as it completes.
//
// # Architecture
//
// The reactor keeps two index-aligned tables: the events passed to the
// backend's wait, and the operations they belong to. Submitting an operation
// that does not complete inline appends to both; [Reactor.Run] waits on the
// events, swap-removes the signaled entry, and resumes the task awaiting it.
// The tables have a fixed capacity, configured by [WithMaxInFlight] and
// bounded by [Backend.MaxWaitObjects].
//
// Operating system primitives are consumed through [Backend]. The default,
// [osio.System], is implemented for Linux.
//
// # Thread Safety
//
// By default a reactor and the tasks it runs must be driven from a single
// goroutine at a time. [WithAtomicSubmissions] allows [Reactor.Read] and
// [Reactor.Write] to be called from other goroutines, and
// [WithAsyncSubmissions] additionally allows them while [Reactor.Run] is
// blocked waiting.
//
// # Usage
//
//	r, err := aioloop.New()
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	f, err := r.Open("data.bin", aioloop.AccessRead)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	t := task.Go(func(co *task.Co) (int, error) {
//	    buf := make([]byte, 4096)
//	    return r.ReadAt(co, f.At(0), buf)
//	})
//	if err := r.Run(); err != nil {
//	    return err
//	}
//	n, err := t.Get()
package aioloop
