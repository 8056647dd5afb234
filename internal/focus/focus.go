// Package focus remembers the most recently focused text-entry element.
package focus

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/v0xg/autosend/internal/dom"
)

// Reader is the read-only view handed to the resolver.
type Reader interface {
	Last() dom.Element
}

// State holds at most one element. Each write replaces the previous one; there
// is no history and no reset.
type State struct {
	mu   sync.Mutex
	last dom.Element
}

// Last returns the stored element, or nil if nothing eligible was focused yet.
func (s *State) Last() dom.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *State) set(el dom.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = el
}

// Tracker is the only writer of a State.
type Tracker struct {
	state  *State
	logger *zap.Logger
}

// NewTracker returns a tracker writing into state.
func NewTracker(state *State, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{state: state, logger: logger}
}

// Observe handles one focus notification. Ineligible or unreadable elements
// are ignored.
func (t *Tracker) Observe(ctx context.Context, el dom.Element) {
	if el == nil {
		return
	}
	info, err := el.Describe(ctx)
	if err != nil || !info.Eligible() {
		return
	}
	t.state.set(el)
	t.logger.Debug("Tracked focus", zap.String("element", info.Summary()))
}
