// Package poll runs cancelable repeating checks.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrDeadline is the task result when the deadline passed before the check
// reported success.
var ErrDeadline = errors.New("poll deadline exceeded")

// Options configures a Task.
type Options struct {
	Interval time.Duration
	// Deadline bounds the task measured from start. Zero means unbounded.
	Deadline time.Duration
}

// Func is one check. Returning true ends the task successfully; a non-nil
// error ends it with that error.
type Func func(ctx context.Context, elapsed time.Duration) (bool, error)

// Task is a running poll. The check runs on the task's goroutine, one call at
// a time, first after one interval.
type Task struct {
	opts    Options
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// Start launches fn every opts.Interval until it succeeds, fails, the
// deadline passes or ctx is canceled.
func Start(ctx context.Context, opts Options, fn Func) *Task {
	if opts.Interval <= 0 {
		opts.Interval = 50 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		opts:    opts,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go t.loop(ctx, fn)
	return t
}

func (t *Task) loop(ctx context.Context, fn Func) {
	defer close(t.done)
	defer t.cancel()

	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.err = ctx.Err()
			return
		case <-ticker.C:
		}

		ok, err := fn(ctx, time.Since(t.started))
		if err != nil {
			t.err = err
			return
		}
		if ok {
			return
		}
		if t.opts.Deadline > 0 && time.Since(t.started) > t.opts.Deadline {
			t.err = ErrDeadline
			return
		}
	}
}

// Started returns the task's start time.
func (t *Task) Started() time.Time { return t.started }

// Cancel stops the task. Safe to call more than once and after completion.
func (t *Task) Cancel() { t.cancel() }

// Done is closed once the task's goroutine has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task result once Done is closed, and nil before.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task ends or ctx is done. It does not cancel the task
// when ctx ends first.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
