package cartstore

import (
	"context"
)

type Status int

const (
	StatusPending Status = iota
	StatusFulfilled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusFulfilled:
		return "fulfilled"
	case StatusRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Result is the outcome of one store operation.
type Result[T any] struct {
	Status Status
	Value  T
	Err    *Failure
}

func fulfilled[T any](v T) Result[T] {
	return Result[T]{Status: StatusFulfilled, Value: v}
}

func rejected[T any](f *Failure) Result[T] {
	return Result[T]{Status: StatusRejected, Err: f}
}

func (r Result[T]) OK() bool {
	return r.Status == StatusFulfilled
}

// Task is an operation running in its own goroutine. The caller awaits it
// with Wait; nothing is delivered through callbacks.
type Task[T any] struct {
	done chan struct{}
	res  Result[T]
}

// Dispatch starts fn on a new goroutine tracked by the store, so Close can
// wait for it.
func Dispatch[T any](s *Store, ctx context.Context, fn func(ctx context.Context) Result[T]) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer close(t.done)
		t.res = fn(ctx)
	}()

	return t
}

func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Status is StatusPending until the task completes.
func (t *Task[T]) Status() Status {
	select {
	case <-t.done:
		return t.res.Status
	default:
		return StatusPending
	}
}

// Wait blocks until the task completes or ctx is done. In the latter case
// the returned result is pending and the task keeps running.
func (t *Task[T]) Wait(ctx context.Context) Result[T] {
	select {
	case <-t.done:
		return t.res
	case <-ctx.Done():
		return Result[T]{Status: StatusPending}
	}
}
