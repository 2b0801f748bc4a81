package upload

import (
	"context"
	"sync"
)

// Future is the single settlement of an asynchronous operation. The cancel
// function is kept so a timeout or abort can be attached later; today it is
// only called to free the context once the operation settles.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	val    T
	err    error
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

// Go runs fn in its own goroutine and settles the returned future with its
// result. fn's context outlives parent's cancellation.
func Go[T any](parent context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	f := newFuture[T](cancel)
	go func() {
		v, err := fn(ctx)
		f.settle(v, err)
	}()
	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		if f.cancel != nil {
			f.cancel()
		}
		close(f.done)
	})
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until settlement or until ctx ends. Giving up on the wait
// does not stop the operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Settled reports whether the future has a result.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
