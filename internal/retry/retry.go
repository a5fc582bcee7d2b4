// Package retry provides bounded, cancellable polling.
//
// The layer bridges asynchronous host rendering (an editor mounting, a
// native find panel appearing, a reopened tab settling) with repeated
// re-checks rather than true concurrency. Every poll in the module
// goes through this package so nothing waits indefinitely.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrBudgetExhausted is returned when the attempt budget runs out
// before the condition holds.
var ErrBudgetExhausted = errors.New("retry: attempt budget exhausted")

// Poll invokes fn up to attempts times, sleeping interval between
// tries. It returns nil as soon as fn reports done, ctx.Err() on
// cancellation, and ErrBudgetExhausted otherwise.
func Poll(ctx context.Context, attempts int, interval time.Duration, fn func() bool) error {
	if attempts <= 0 {
		return ErrBudgetExhausted
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fn() {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return ErrBudgetExhausted
}

// Task is a one-shot background poll with an explicit give-up result.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Go starts fn polling in the background and returns immediately.
func Go(attempts int, interval time.Duration, fn func() bool) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = Poll(ctx, attempts, interval, fn)
	}()
	return t
}

// Cancel stops the task. Safe to call more than once.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes and returns its result.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Done returns a channel closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
