// Package submit triggers the page's send action once text is in place.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/autosend/internal/dom"
	"github.com/v0xg/autosend/internal/poll"
)

// ErrInProgress is returned when Dispatch is called while a previous call is
// still polling.
var ErrInProgress = errors.New("submission already in progress")

// Outcome reports which action a Dispatch call took.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeClicked Outcome = "clicked"
	OutcomeEnter   Outcome = "enter"
)

// KeyMode selects how the Enter fallback is delivered.
type KeyMode string

const (
	// KeySynthetic dispatches DOM KeyboardEvents on the target.
	KeySynthetic KeyMode = "synthetic"
	// KeyNative sends the key through the browser input pipeline when the
	// element supports it.
	KeyNative KeyMode = "native"
)

// Options configures a Dispatcher.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	KeyMode  KeyMode
}

// DefaultOptions polls every 50ms for up to one second.
func DefaultOptions() Options {
	return Options{Interval: 50 * time.Millisecond, Timeout: time.Second, KeyMode: KeySynthetic}
}

// Dispatcher looks for a ready send button and falls back to Enter.
type Dispatcher struct {
	doc    dom.Document
	opts   Options
	logger *zap.Logger

	mu     sync.Mutex
	active *poll.Task
}

// New returns a dispatcher for doc. Zero option fields take defaults.
func New(doc dom.Document, opts Options, logger *zap.Logger) *Dispatcher {
	def := DefaultOptions()
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.KeyMode == "" {
		opts.KeyMode = def.KeyMode
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{doc: doc, opts: opts, logger: logger}
}

// Dispatch clicks the first ready button or, after the timeout, presses Enter
// on target. Exactly one of the two happens unless ctx ends first.
func (d *Dispatcher) Dispatch(ctx context.Context, target dom.Element, buttonSelector string) (Outcome, error) {
	var button dom.Element
	task, err := d.begin(ctx, func(ctx context.Context, _ time.Duration) (bool, error) {
		button = d.readyButton(ctx, buttonSelector)
		return button != nil, nil
	})
	if err != nil {
		return OutcomeNone, err
	}
	defer d.end(task)

	err = task.Wait(ctx)
	task.Cancel()
	switch {
	case err == nil:
		if _, err := button.Run(ctx, dom.Click()); err != nil {
			return OutcomeClicked, fmt.Errorf("click send button: %w", err)
		}
		d.logger.Info("Clicked send button", zap.Duration("after", time.Since(task.Started())))
		return OutcomeClicked, nil
	case errors.Is(err, poll.ErrDeadline):
		d.logger.Info("No ready send button, pressing Enter",
			zap.Duration("timeout", d.opts.Timeout), zap.String("key_mode", string(d.opts.KeyMode)))
		if err := d.pressEnter(ctx, target); err != nil {
			return OutcomeEnter, fmt.Errorf("press enter: %w", err)
		}
		return OutcomeEnter, nil
	default:
		<-task.Done()
		return OutcomeNone, err
	}
}

func (d *Dispatcher) begin(ctx context.Context, fn poll.Func) (*poll.Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return nil, ErrInProgress
	}
	d.active = poll.Start(ctx, poll.Options{Interval: d.opts.Interval, Deadline: d.opts.Timeout}, fn)
	return d.active, nil
}

func (d *Dispatcher) end(task *poll.Task) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == task {
		d.active = nil
	}
}

// readyButton returns the first candidate that is enabled and rendered. The
// configured selector is tried first; the generic one only when it matches
// nothing.
func (d *Dispatcher) readyButton(ctx context.Context, selector string) dom.Element {
	var candidates []dom.Element
	if selector != "" {
		els, err := d.doc.QueryAll(ctx, selector)
		if err == nil && len(els) > 0 {
			candidates = els[:1]
		}
	}
	if candidates == nil {
		els, err := d.doc.QueryAll(ctx, dom.FallbackButtonSelector)
		if err != nil || len(els) == 0 {
			return nil
		}
		candidates = els[:1]
	}
	info, err := candidates[0].Describe(ctx)
	if err != nil || !info.Ready() {
		return nil
	}
	return candidates[0]
}

func (d *Dispatcher) pressEnter(ctx context.Context, target dom.Element) error {
	if d.opts.KeyMode == KeyNative {
		if kp, ok := target.(dom.KeyPresser); ok {
			return kp.PressEnter(ctx)
		}
	}
	events := dom.EnterKeyEvents()
	ops := make([]dom.Op, 0, len(events))
	for _, ev := range events {
		ops = append(ops, dom.Dispatch(ev))
	}
	_, err := target.Run(ctx, ops...)
	return err
}
