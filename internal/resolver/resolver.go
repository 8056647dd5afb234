// Package resolver picks the element that will receive the payload.
package resolver

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/v0xg/autosend/internal/dom"
	"github.com/v0xg/autosend/internal/focus"
)

// ErrNotFound means no tier produced an element on this attempt.
var ErrNotFound = errors.New("no input element found")

// Tier identifies which rule produced a Target.
type Tier int

const (
	TierConfigured Tier = iota + 1
	TierFocused
	TierLastFocus
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierConfigured:
		return "configured selector"
	case TierFocused:
		return "focused element"
	case TierLastFocus:
		return "last focused element"
	case TierFallback:
		return "fallback selector"
	default:
		return "unknown"
	}
}

// Target is a resolved element. Tier and Info are diagnostic.
type Target struct {
	Element dom.Element
	Tier    Tier
	Info    dom.Info
}

// Resolver evaluates the tier chain against one document.
type Resolver struct {
	doc    dom.Document
	focus  focus.Reader
	logger *zap.Logger
}

// New returns a resolver reading the page through doc and the last tracked
// focus through last.
func New(doc dom.Document, last focus.Reader, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{doc: doc, focus: last, logger: logger}
}

// Resolve runs each tier once, in order, and returns the first hit.
func (r *Resolver) Resolve(ctx context.Context, cfg dom.SelectorConfig) (Target, error) {
	if t, ok := r.configured(ctx, cfg.InputBoxSelector); ok {
		return t, nil
	}
	if t, ok := r.focused(ctx); ok {
		return t, nil
	}
	if t, ok := r.lastFocus(ctx); ok {
		return t, nil
	}
	if t, ok := r.fallback(ctx); ok {
		return t, nil
	}
	return Target{}, ErrNotFound
}

func (r *Resolver) configured(ctx context.Context, selector string) (Target, bool) {
	if selector == "" {
		return Target{}, false
	}
	els, err := r.doc.QueryAll(ctx, selector)
	if err != nil {
		r.logger.Debug("Configured selector query failed", zap.String("selector", selector), zap.Error(err))
		return Target{}, false
	}
	if len(els) != 1 {
		r.logger.Debug("Configured selector is not unique", zap.String("selector", selector), zap.Int("matches", len(els)))
		return Target{}, false
	}
	return r.target(ctx, els[0], TierConfigured), true
}

func (r *Resolver) focused(ctx context.Context) (Target, bool) {
	el, err := r.doc.ActiveElement(ctx)
	if err != nil || el == nil {
		return Target{}, false
	}
	info, err := el.Describe(ctx)
	if err != nil || !info.Eligible() {
		return Target{}, false
	}
	return Target{Element: el, Tier: TierFocused, Info: info}, true
}

// lastFocus returns the tracked element as is; it may be detached or hidden
// by now.
func (r *Resolver) lastFocus(ctx context.Context) (Target, bool) {
	if r.focus == nil {
		return Target{}, false
	}
	el := r.focus.Last()
	if el == nil {
		return Target{}, false
	}
	return r.target(ctx, el, TierLastFocus), true
}

func (r *Resolver) fallback(ctx context.Context) (Target, bool) {
	els, err := r.doc.QueryAll(ctx, dom.FallbackInputSelector)
	if err != nil || len(els) == 0 {
		return Target{}, false
	}
	return r.target(ctx, els[0], TierFallback), true
}

func (r *Resolver) target(ctx context.Context, el dom.Element, tier Tier) Target {
	// Info is best effort here; a stale handle still wins its tier.
	info, _ := el.Describe(ctx)
	return Target{Element: el, Tier: tier, Info: info}
}
