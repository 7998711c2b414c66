// Package task implements synchronous tasks: computations that run eagerly on
// creation, may suspend part way through (typically while an I/O operation
// completes), and store their outcome for later retrieval.
//
// A task body receives its [Co], the coroutine it runs on. [Co.Suspend] parks
// the body and hands control back to whoever started or last resumed it;
// [Co.Resume] continues it. Exactly one party runs at a time, so a task and
// its result cell are never accessed concurrently, although a coroutine may
// be resumed from a different goroutine than the one that suspended it.
//
// # Usage
//
//	foo := task.Go(func(co *task.Co) (int, error) {
//	    return 42, nil
//	})
//	bar := task.Go(func(co *task.Co) (int, error) {
//	    v, err := task.Await(co, foo)
//	    return v * 2, err
//	})
//	v, err := bar.Get() // 84, nil
package task
