// Package orchestrator drives one fill-and-send attempt: wait for an input,
// inject, submit, stop.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/autosend/internal/dom"
	"github.com/v0xg/autosend/internal/poll"
	"github.com/v0xg/autosend/internal/resolver"
	"github.com/v0xg/autosend/internal/submit"
)

// ErrInProgress is returned by Start while an earlier attempt is running.
var ErrInProgress = errors.New("attempt already in progress")

// ErrFinished is returned by Start after an attempt has completed.
var ErrFinished = errors.New("attempt already finished")

// Resolver finds the target element.
type Resolver interface {
	Resolve(ctx context.Context, cfg dom.SelectorConfig) (resolver.Target, error)
}

// Injector writes the payload into the target.
type Injector interface {
	Inject(ctx context.Context, el dom.Element, info dom.Info, text string) (string, error)
}

// Dispatcher submits the injected text.
type Dispatcher interface {
	Dispatch(ctx context.Context, target dom.Element, buttonSelector string) (submit.Outcome, error)
}

// Result describes a completed attempt.
type Result struct {
	Target    resolver.Target
	Text      string
	Outcome   submit.Outcome
	Attempts  int
	Elapsed   time.Duration
	InjectErr error
	SubmitErr error
}

// Config is the input supplied by the caller.
type Config struct {
	Selectors dom.SelectorConfig
	Payload   string
	// Interval between resolution attempts. Defaults to 500ms.
	Interval time.Duration
}

// Orchestrator owns the resolution poll. It runs at most one attempt over
// its lifetime.
type Orchestrator struct {
	cfg        Config
	resolver   Resolver
	injector   Injector
	dispatcher Dispatcher
	logger     *zap.Logger

	mu       sync.Mutex
	task     *poll.Task
	result   *Result
	attempts int
	// committed is set once an input was resolved. From then on the
	// attempt is never started again, even if submission was interrupted.
	committed bool
}

// New wires an orchestrator.
func New(cfg Config, r Resolver, inj Injector, d Dispatcher, logger *zap.Logger) *Orchestrator {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, resolver: r, injector: inj, dispatcher: d, logger: logger}
}

// Start begins polling for an input element. The returned task ends when the
// payload has been injected and submitted, or when ctx is canceled; it has
// no deadline of its own.
func (o *Orchestrator) Start(ctx context.Context) (*poll.Task, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.committed {
		return nil, ErrFinished
	}
	if o.task != nil {
		select {
		case <-o.task.Done():
			// A canceled attempt may be restarted.
		default:
			return nil, ErrInProgress
		}
	}
	o.task = poll.Start(ctx, poll.Options{Interval: o.cfg.Interval}, o.tick)
	o.logger.Info("Waiting for an input element", zap.Duration("interval", o.cfg.Interval))
	return o.task, nil
}

// Run starts an attempt and blocks until it completes or ctx ends.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	task, err := o.Start(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := task.Wait(ctx); err != nil {
		task.Cancel()
		<-task.Done()
		return Result{}, err
	}
	res, _ := o.Result()
	return res, nil
}

// Result returns the completed attempt, if any. An attempt interrupted after
// injection is reported with the context error in SubmitErr.
func (o *Orchestrator) Result() (Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return Result{}, false
	}
	return *o.result, true
}

func (o *Orchestrator) tick(ctx context.Context, elapsed time.Duration) (bool, error) {
	o.mu.Lock()
	o.attempts++
	attempts := o.attempts
	o.mu.Unlock()

	target, err := o.resolver.Resolve(ctx, o.cfg.Selectors)
	if err != nil {
		o.logger.Debug("Input not found yet", zap.Int("attempt", attempts), zap.Duration("elapsed", elapsed))
		return false, nil
	}
	o.logger.Info("Resolved input element",
		zap.String("tier", target.Tier.String()),
		zap.String("element", target.Info.Summary()),
		zap.Int("attempt", attempts))

	o.mu.Lock()
	o.committed = true
	o.mu.Unlock()

	res := Result{Target: target, Attempts: attempts}
	// Injection completes before submission starts; either failing still
	// counts as a finished attempt.
	res.Text, res.InjectErr = o.injector.Inject(ctx, target.Element, target.Info, o.cfg.Payload)
	res.Outcome, res.SubmitErr = o.dispatcher.Dispatch(ctx, target.Element, o.cfg.Selectors.SendButtonSelector)
	res.Elapsed = elapsed

	o.mu.Lock()
	o.result = &res
	o.mu.Unlock()

	if errors.Is(res.SubmitErr, context.Canceled) || errors.Is(res.SubmitErr, context.DeadlineExceeded) {
		o.logger.Warn("Attempt interrupted before submission", zap.Error(res.SubmitErr))
		return false, res.SubmitErr
	}

	o.logger.Info("Attempt finished",
		zap.String("tier", target.Tier.String()),
		zap.String("outcome", string(res.Outcome)),
		zap.String("text", res.Text),
		zap.NamedError("inject_error", res.InjectErr),
		zap.NamedError("submit_error", res.SubmitErr))
	return true, nil
}
