package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"github.com/v0xg/autosend/internal/dom"
)

var (
	_ dom.Document   = (*Document)(nil)
	_ dom.Element    = (*Element)(nil)
	_ dom.KeyPresser = (*Element)(nil)
)

// Document is a dom.Document over a Rod page.
type Document struct {
	page *rod.Page
}

// NewDocument wraps page.
func NewDocument(page *rod.Page) *Document {
	return &Document{page: page}
}

// QueryAll returns every element matching selector. It does not wait for
// matches to appear.
func (d *Document) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return d.wrap(els), nil
}

// ActiveElement returns the focused element. Focus resting on the body
// yields nil.
func (d *Document) ActiveElement(ctx context.Context) (dom.Element, error) {
	els, err := d.page.Context(ctx).ElementsByJS(rod.Eval(activeElementJS))
	if err != nil {
		return nil, fmt.Errorf("active element: %w", err)
	}
	if len(els) == 0 {
		return nil, nil
	}
	return &Element{el: els[0], page: d.page}, nil
}

func (d *Document) wrap(els rod.Elements) []dom.Element {
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el, page: d.page})
	}
	return out
}

// Element is a dom.Element over a Rod element handle.
type Element struct {
	el   *rod.Element
	page *rod.Page
}

// Describe snapshots the element's state.
func (e *Element) Describe(ctx context.Context) (dom.Info, error) {
	res, err := e.el.Context(ctx).Eval(describeJS)
	if err != nil {
		return dom.Info{}, mapErr(err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return dom.Info{}, fmt.Errorf("describe: %w", err)
	}
	var info dom.Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return dom.Info{}, fmt.Errorf("describe: %w", err)
	}
	return info, nil
}

// Run executes ops in a single evaluation and returns the element's text.
func (e *Element) Run(ctx context.Context, ops ...dom.Op) (string, error) {
	if ops == nil {
		ops = []dom.Op{}
	}
	res, err := e.el.Context(ctx).Eval(runOpsJS, ops)
	if err != nil {
		return "", mapErr(err)
	}
	if res.Value.Get("detached").Bool() {
		return "", dom.ErrDetached
	}
	return res.Value.Get("text").Str(), nil
}

// PressEnter focuses the element and sends Enter through the browser's
// input pipeline, producing trusted key events.
func (e *Element) PressEnter(ctx context.Context) error {
	if err := e.el.Context(ctx).Focus(); err != nil {
		return mapErr(err)
	}
	return e.page.Context(ctx).Keyboard.Type(input.Enter)
}

// Box returns the element's bounding box in CSS pixels.
func (e *Element) Box(ctx context.Context) (image.Rectangle, error) {
	shape, err := e.el.Context(ctx).Shape()
	if err != nil {
		return image.Rectangle{}, mapErr(err)
	}
	box := shape.Box()
	if box == nil {
		return image.Rectangle{}, dom.ErrDetached
	}
	return image.Rect(int(box.X), int(box.Y), int(box.X+box.Width), int(box.Y+box.Height)), nil
}

// mapErr turns CDP errors about collected objects or destroyed contexts
// into dom.ErrDetached.
func mapErr(err error) error {
	msg := err.Error()
	for _, s := range []string{
		"Could not find object",
		"Cannot find context",
		"Execution context was destroyed",
		"Node is detached",
	} {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %v", dom.ErrDetached, err)
		}
	}
	return err
}
