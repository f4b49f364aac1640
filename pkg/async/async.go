package async

import (
	"context"
	"time"
)

// Future represents the pending result of a function started with Go.
type Future[T any] struct {
	result T
	err    error
	done   chan struct{}
}

// Go starts fn in its own goroutine and returns a Future for its result.
//
// The caller decides how to consume the future: awaiting it, racing it
// against a timeout, or dropping it entirely for fire-and-forget work.
// In the latter case fn keeps running to completion and its side effects
// still apply.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		f.result, f.err = fn(ctx)
	}()

	return f
}

// Await blocks until the function completes and returns its result.
func (f *Future[T]) Await() (T, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout waits for completion up to the given duration.
//
// On expiry it returns ErrTimeout and abandons only the wait: the
// underlying function is not cancelled and may still complete and apply
// its side effects later.
func (f *Future[T]) AwaitWithTimeout(d time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(d):
		var zero T
		return zero, ErrTimeout
	}
}

// Done reports whether the function has completed, without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
