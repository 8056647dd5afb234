package focus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/v0xg/autosend/internal/dom/domtest"
)

func TestTrackerKeepsMostRecentEligible(t *testing.T) {
	ctx := context.Background()
	state := &State{}
	tracker := NewTracker(state, nil)

	first := domtest.NewTextarea("first")
	second := domtest.NewEditable("second", "")

	assert.Nil(t, state.Last())

	tracker.Observe(ctx, first)
	assert.Same(t, first, state.Last())

	tracker.Observe(ctx, second)
	assert.Same(t, second, state.Last(), "later focus overwrites the slot")
}

func TestTrackerIgnoresIneligible(t *testing.T) {
	ctx := context.Background()
	state := &State{}
	tracker := NewTracker(state, nil)
	box := domtest.NewTextarea("box")
	tracker.Observe(ctx, box)

	cases := map[string]*domtest.Element{
		"button":   domtest.NewButton("send", nil),
		"disabled": domtest.NewTextarea("off").SetDisabled(true),
		"readonly": domtest.NewInput("ro", "text").SetReadOnly(true),
		"checkbox": domtest.NewInput("cb", "checkbox"),
		"div":      domtest.NewDiv("d"),
	}
	for name, el := range cases {
		t.Run(name, func(t *testing.T) {
			tracker.Observe(ctx, el)
			assert.Same(t, box, state.Last())
		})
	}

	detached := domtest.NewTextarea("gone")
	detached.Detach()
	tracker.Observe(ctx, detached)
	tracker.Observe(ctx, nil)
	assert.Same(t, box, state.Last())
}

func TestStateSatisfiesReader(t *testing.T) {
	var r Reader = &State{}
	assert.Nil(t, r.Last())
}
