package deferred

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

/**
* Promise-like result of a single computation.
*
* A deferred settles once: the first Resolve or Reject wins and later calls
* are ignored. Handlers run on the goroutine that settles the deferred, or on
* the registering goroutine when it is already settled.
*
* See also:
* - https://promisesaplus.com/
**/

func Noop[T, R any](_ T) (R, error) {
	var zero R
	return zero, nil
}

type nextDeferred interface {
	resolveAny(any)
	rejectAny(error)
	OccurredErr() error
}

type handler[T any] struct {
	onSuccess func(T) (any, error)
	onError   func(error) (any, error)
	next      nextDeferred
}

// DeferredImp is safe for concurrent use. The zero value is a pending
// deferred.
type DeferredImp[T any] struct {
	mu          sync.Mutex
	done        chan struct{}
	value       T
	err         error
	occurredErr error
	isResolved  bool
	isRejected  bool
	handlers    []handler[T]
}

// Go runs fn on a new goroutine and settles the returned deferred with its
// outcome. A panic in fn rejects the deferred.
func Go[T any](fn func() (T, error)) *DeferredImp[T] {
	d := &DeferredImp[T]{}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.Reject(errors.Errorf("deferred: panic: %v", r))
			}
		}()
		value, err := fn()
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(value)
	}()
	return d
}

// Resolved returns a deferred already resolved with value.
func Resolved[T any](value T) *DeferredImp[T] {
	d := &DeferredImp[T]{}
	d.Resolve(value)
	return d
}

func (d *DeferredImp[T]) resolveAny(v any) {
	var t T
	if v != nil {
		t = v.(T)
	}
	d.Resolve(t)
}

func (d *DeferredImp[T]) rejectAny(err error) {
	d.Reject(err)
}

// doneLocked must be called with d.mu held.
func (d *DeferredImp[T]) doneLocked() chan struct{} {
	if d.done == nil {
		d.done = make(chan struct{})
	}
	return d.done
}

func (d *DeferredImp[T]) settle(value T, err error, rejected bool) ([]handler[T], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isResolved || d.isRejected {
		return nil, false
	}
	d.value, d.err = value, err
	d.isResolved, d.isRejected = !rejected, rejected
	close(d.doneLocked())
	return append([]handler[T](nil), d.handlers...), true
}

func (d *DeferredImp[T]) Resolve(value T) {
	handlers, ok := d.settle(value, nil, false)
	if !ok {
		return
	}
	for _, h := range handlers {
		d.resolveHandler(h)
	}
}

func (d *DeferredImp[T]) Reject(err error) {
	var zero T
	handlers, ok := d.settle(zero, err, true)
	if !ok {
		return
	}
	for _, h := range handlers {
		d.rejectHandler(h)
	}
}

func (d *DeferredImp[T]) addHandler(h handler[T]) {
	d.mu.Lock()
	d.handlers = append(d.handlers, h)
	resolved, rejected := d.isResolved, d.isRejected
	d.mu.Unlock()

	if resolved {
		d.resolveHandler(h)
	} else if rejected {
		d.rejectHandler(h)
	}
}

func (d *DeferredImp[T]) Then(onSuccess func(T) (any, error), onError func(error) (any, error)) Deferred[any] {
	next := &DeferredImp[any]{}
	d.addHandler(handler[T]{
		onSuccess: onSuccess,
		onError:   onError,
		next:      next,
	})
	return next
}

// Then registers typed callbacks for success and error cases.
//
// Per Promises/A+ 2.2.7:
//   - If onSuccess returns a value, next deferred is resolved with it.
//   - If onSuccess returns an error, next deferred is rejected with it.
//   - If onError returns a value, next deferred is resolved with it (recovery).
//   - If onError returns an error, next deferred is rejected with it.
//
// A free function because Go methods cannot declare type parameters.
func Then[T, R any](d *DeferredImp[T], onSuccess func(T) (R, error), onError func(error) (R, error)) *DeferredImp[R] {
	next := &DeferredImp[R]{}
	d.addHandler(handler[T]{
		onSuccess: func(v T) (any, error) { return onSuccess(v) },
		onError:   func(err error) (any, error) { return onError(err) },
		next:      next,
	})
	return next
}

// Await blocks until d settles or ctx is done.
func (d *DeferredImp[T]) Await(ctx context.Context) (T, error) {
	d.mu.Lock()
	done := d.doneLocked()
	d.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.err
}

func (d *DeferredImp[T]) resolveHandler(h handler[T]) {
	d.mu.Lock()
	value := d.value
	d.mu.Unlock()

	result, err := h.onSuccess(value)
	d.forward(h, result, err)
}

func (d *DeferredImp[T]) rejectHandler(h handler[T]) {
	d.mu.Lock()
	reason := d.err
	d.mu.Unlock()

	result, err := h.onError(reason)
	d.forward(h, result, err)
}

func (d *DeferredImp[T]) forward(h handler[T], result any, err error) {
	if err == nil {
		h.next.resolveAny(result)
		return
	}
	d.mu.Lock()
	d.occurredErr = multierror.Append(d.occurredErr, err)
	d.mu.Unlock()
	h.next.rejectAny(err)
}

// OccurredErr collects the errors returned by handlers of d and of every
// deferred chained from it.
func (d *DeferredImp[T]) OccurredErr() error {
	d.mu.Lock()
	err := d.occurredErr
	handlers := append([]handler[T](nil), d.handlers...)
	d.mu.Unlock()

	for _, h := range handlers {
		nestedErr := h.next.OccurredErr()
		if nestedErr != nil {
			err = multierror.Append(err, nestedErr)
		}
	}
	return err
}

// All resolves with every value in input order once all deferreds resolve,
// or rejects with the first rejection.
func All[T any](deferreds []Deferred[T]) *DeferredImp[[]T] {
	result := &DeferredImp[[]T]{}

	if len(deferreds) == 0 {
		result.Resolve([]T{})
		return result
	}

	var mu sync.Mutex
	count := len(deferreds)
	values := make([]T, count)
	resolvedCount := 0

	for i, d := range deferreds {
		idx := i
		d.Then(func(value T) (any, error) {
			mu.Lock()
			values[idx] = value
			resolvedCount++
			complete := resolvedCount == count
			mu.Unlock()
			if complete {
				result.Resolve(values)
			}
			return nil, nil
		}, func(err error) (any, error) {
			result.Reject(err)
			return nil, nil
		})
	}

	return result
}
