package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"github.com/v0xg/autosend/internal/dom"
)

const focusBinding = "autosendFocus"

// Observer receives the element that just took focus.
type Observer interface {
	Observe(ctx context.Context, el dom.Element)
}

// WatchFocus reports focus changes toward text-entry candidates to obs, in
// the current document and every document loaded afterwards. The returned
// stop function removes the binding and the probe.
func (b *Browser) WatchFocus(ctx context.Context, obs Observer) (func() error, error) {
	doc := b.Document()
	stopBinding, err := b.page.Expose(focusBinding, func(gson.JSON) (interface{}, error) {
		el, err := doc.ActiveElement(ctx)
		if err != nil || el == nil {
			return nil, nil
		}
		obs.Observe(ctx, el)
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("expose focus binding: %w", err)
	}

	probe := fmt.Sprintf(focusProbeJS, focusBinding)
	removeProbe, err := b.page.EvalOnNewDocument(probe)
	if err != nil {
		_ = stopBinding()
		return nil, fmt.Errorf("install focus probe: %w", err)
	}
	if _, err := b.page.Context(ctx).Eval(`() => ` + probe); err != nil {
		b.logger.Debug("Focus probe not installed in current document", zap.Error(err))
	}

	// Focus that landed before the probe existed still counts.
	if el, err := doc.ActiveElement(ctx); err == nil && el != nil {
		obs.Observe(ctx, el)
	}

	return func() error {
		return errors.Join(removeProbe(), stopBinding())
	}, nil
}
