package submit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/v0xg/autosend/internal/dom/domtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fastOptions() Options {
	return Options{Interval: 5 * time.Millisecond, Timeout: 60 * time.Millisecond}
}

func TestDispatchClicksReadyButton(t *testing.T) {
	ctx := context.Background()
	box := domtest.NewTextarea("box")
	btn := domtest.NewButton("send", map[string]string{"aria-label": "Send message"})
	doc := domtest.NewDocument(box, btn)

	outcome, err := New(doc, fastOptions(), nil).Dispatch(ctx, box, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeClicked, outcome)
	assert.Equal(t, 1, btn.Clicks())
	assert.Empty(t, box.EventTypes(), "no key press when a button was clicked")
}

func TestDispatchPrefersConfiguredSelector(t *testing.T) {
	ctx := context.Background()
	box := domtest.NewTextarea("box")
	generic := domtest.NewButton("generic", map[string]string{"type": "submit"})
	custom := domtest.NewButton("custom", nil)
	doc := domtest.NewDocument(box, generic, custom)

	outcome, err := New(doc, fastOptions(), nil).Dispatch(ctx, box, "#custom")
	require.NoError(t, err)
	assert.Equal(t, OutcomeClicked, outcome)
	assert.Equal(t, 1, custom.Clicks())
	assert.Zero(t, generic.Clicks())
}

func TestDispatchConfiguredSelectorMissingUsesGeneric(t *testing.T) {
	ctx := context.Background()
	box := domtest.NewTextarea("box")
	generic := domtest.NewButton("generic", map[string]string{"data-testid": "send-button"})
	doc := domtest.NewDocument(box, generic)

	outcome, err := New(doc, fastOptions(), nil).Dispatch(ctx, box, "#absent")
	require.NoError(t, err)
	assert.Equal(t, OutcomeClicked, outcome)
	assert.Equal(t, 1, generic.Clicks())
}

func TestDispatchWaitsForButtonToBecomeReady(t *testing.T) {
	ctx := context.Background()
	box := domtest.NewTextarea("box")
	btn := domtest.NewButton("send", nil).SetDisabled(true).SetVisible(false)
	doc := domtest.NewDocument(box, btn)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(15 * time.Millisecond)
		btn.SetDisabled(false).SetVisible(true)
	}()

	outcome, err := New(doc, fastOptions(), nil).Dispatch(ctx, box, "#send")
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, OutcomeClicked, outcome)
	assert.Equal(t, 1, btn.Clicks())
}

func TestDispatchFallsBackToEnter(t *testing.T) {
	ctx := context.Background()
	cases := map[string]*domtest.Element{
		"no button": nil,
		"disabled":  domtest.NewButton("send", nil).SetDisabled(true),
		"hidden":    domtest.NewButton("send", nil).SetVisible(false),
	}
	for name, btn := range cases {
		t.Run(name, func(t *testing.T) {
			box := domtest.NewTextarea("box")
			doc := domtest.NewDocument(box)
			if btn != nil {
				doc.Add(btn)
			}
			opts := fastOptions()

			start := time.Now()
			outcome, err := New(doc, opts, nil).Dispatch(ctx, box, "#send")
			require.NoError(t, err)

			assert.Equal(t, OutcomeEnter, outcome)
			assert.GreaterOrEqual(t, time.Since(start), opts.Timeout)
			assert.Equal(t, []string{"keydown", "keypress", "keyup"}, box.EventTypes())
			for _, ev := range box.Events() {
				assert.Equal(t, "Enter", ev.Key)
				assert.Equal(t, 13, ev.KeyCode)
			}
			if btn != nil {
				assert.Zero(t, btn.Clicks())
			}
		})
	}
}

func TestDispatchNativeKeyMode(t *testing.T) {
	ctx := context.Background()
	box := domtest.NewTextarea("box")
	opts := fastOptions()
	opts.KeyMode = KeyNative

	outcome, err := New(domtest.NewDocument(box), opts, nil).Dispatch(ctx, box, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnter, outcome)
	assert.Equal(t, 1, box.NativeEnters())
	assert.Empty(t, box.EventTypes())
}

func TestDispatchRejectsParallelCalls(t *testing.T) {
	ctx := context.Background()
	box := domtest.NewTextarea("box")
	d := New(domtest.NewDocument(box), fastOptions(), nil)

	done := make(chan Outcome)
	go func() {
		outcome, _ := d.Dispatch(ctx, box, "")
		done <- outcome
	}()
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.active != nil
	}, time.Second, time.Millisecond)

	_, err := d.Dispatch(ctx, box, "")
	assert.ErrorIs(t, err, ErrInProgress)
	assert.Equal(t, OutcomeEnter, <-done)

	// A finished call frees the slot.
	outcome, err := d.Dispatch(ctx, box, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnter, outcome)
}

func TestDispatchCanceled(t *testing.T) {
	box := domtest.NewTextarea("box")
	ctx, cancel := context.WithCancel(context.Background())
	opts := Options{Interval: 5 * time.Millisecond, Timeout: time.Hour}
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	outcome, err := New(domtest.NewDocument(box), opts, nil).Dispatch(ctx, box, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeNone, outcome)
	assert.Empty(t, box.EventTypes())
}

func TestDispatchDetachedTarget(t *testing.T) {
	box := domtest.NewTextarea("box")
	box.Detach()
	outcome, err := New(domtest.NewDocument(), fastOptions(), nil).Dispatch(context.Background(), box, "")
	assert.Equal(t, OutcomeEnter, outcome)
	assert.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	d := New(domtest.NewDocument(), Options{}, nil)
	assert.Equal(t, DefaultOptions(), d.opts)
}
