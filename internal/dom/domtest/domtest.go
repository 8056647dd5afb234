// Package domtest provides an in-memory dom.Document for tests. Elements
// record every op and synthetic event they receive.
package domtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/v0xg/autosend/internal/dom"
)

// Document is a fake page. Elements are kept in document order.
type Document struct {
	mu       sync.Mutex
	elements []*Element
	active   *Element

	// QueryErr, when set, is returned by every query.
	QueryErr error
}

// NewDocument returns a document holding els in order.
func NewDocument(els ...*Element) *Document {
	d := &Document{}
	for _, el := range els {
		d.Add(el)
	}
	return d
}

// Add appends el to the document.
func (d *Document) Add(el *Element) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	el.doc = d
	d.elements = append(d.elements, el)
	return el
}

// Focus moves focus to el; nil blurs.
func (d *Document) Focus(el *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = el
}

func (d *Document) QueryAll(_ context.Context, selector string) ([]dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.QueryErr != nil {
		return nil, d.QueryErr
	}
	var out []dom.Element
	for _, el := range d.elements {
		if el.matches(selector) {
			out = append(out, el)
		}
	}
	return out, nil
}

func (d *Document) ActiveElement(context.Context) (dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.QueryErr != nil {
		return nil, d.QueryErr
	}
	if d.active == nil {
		return nil, nil
	}
	return d.active, nil
}

// Behavior tunes how the fake page reacts to synthetic input.
type Behavior struct {
	// CancelBeforeInput makes the page call preventDefault on beforeinput.
	CancelBeforeInput bool
	// CommitOnCompositionEnd makes the page write compositionend data itself,
	// the way composition-driven editors do.
	CommitOnCompositionEnd bool
}

// Element is a fake node.
type Element struct {
	mu       sync.Mutex
	doc      *Document
	info     dom.Info
	attrs    map[string]string
	aliases  []string
	text     string
	behavior Behavior

	ops      []dom.Op
	events   []dom.Event
	clicks   int
	enters   int
	detached bool
	canceled bool
}

// NewInput returns an enabled input of the given type.
func NewInput(id, typ string) *Element {
	return newElement(dom.Info{Tag: "input", Type: typ, ID: id})
}

// NewTextarea returns an enabled textarea.
func NewTextarea(id string) *Element {
	return newElement(dom.Info{Tag: "textarea", Type: "textarea", ID: id})
}

// NewEditable returns a contenteditable div holding text.
func NewEditable(id, text string) *Element {
	el := newElement(dom.Info{Tag: "div", ID: id, ContentEditable: true})
	el.attrs["contenteditable"] = "true"
	el.text = text
	return el
}

// NewButton returns a visible enabled button with the given attributes.
func NewButton(id string, attrs map[string]string) *Element {
	el := newElement(dom.Info{Tag: "button", Type: attrs["type"], ID: id})
	for k, v := range attrs {
		el.attrs[k] = v
	}
	return el
}

// NewDiv returns a plain, non-editable div.
func NewDiv(id string) *Element {
	return newElement(dom.Info{Tag: "div", ID: id})
}

func newElement(info dom.Info) *Element {
	info.Visible = true
	info.Connected = true
	return &Element{info: info, attrs: map[string]string{}}
}

// Matching registers extra selectors this element answers to.
func (e *Element) Matching(selectors ...string) *Element {
	e.aliases = append(e.aliases, selectors...)
	return e
}

// WithBehavior sets how the element reacts to synthetic input.
func (e *Element) WithBehavior(b Behavior) *Element {
	e.behavior = b
	return e
}

// SetDisabled toggles the disabled flag.
func (e *Element) SetDisabled(v bool) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.info.Disabled = v
	return e
}

// SetReadOnly toggles the readonly flag.
func (e *Element) SetReadOnly(v bool) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.info.ReadOnly = v
	return e
}

// SetVisible toggles whether the element has a layout box.
func (e *Element) SetVisible(v bool) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.info.Visible = v
	return e
}

// SetValue sets the current value or text without recording anything.
func (e *Element) SetValue(v string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = v
	return e
}

// Detach makes every further operation fail with dom.ErrDetached.
func (e *Element) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detached = true
	e.info.Connected = false
}

// Value returns the value of a control or the text of an editable region.
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// Ops returns the ops received so far.
func (e *Element) Ops() []dom.Op {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]dom.Op(nil), e.ops...)
}

// Events returns the synthetic events dispatched so far.
func (e *Element) Events() []dom.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]dom.Event(nil), e.events...)
}

// EventTypes returns the types of the dispatched events in order.
func (e *Element) EventTypes() []string {
	events := e.Events()
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

// Clicks returns how many times the element was clicked.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// NativeEnters returns how many Enter presses arrived through PressEnter.
func (e *Element) NativeEnters() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enters
}

func (e *Element) Describe(context.Context) (dom.Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return dom.Info{}, dom.ErrDetached
	}
	return e.info, nil
}

func (e *Element) Run(_ context.Context, ops ...dom.Op) (string, error) {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return "", dom.ErrDetached
	}
	var focus bool
	for _, op := range ops {
		e.ops = append(e.ops, op)
		switch op.Kind {
		case dom.OpFocus:
			focus = true
		case dom.OpSetValue:
			if e.info.Native() {
				e.text = op.Value
			}
		case dom.OpClear:
			e.text = ""
		case dom.OpDispatch:
			e.dispatch(*op.Event)
		case dom.OpCommit:
			if !e.canceled && e.text != op.Value {
				e.text = op.Value
			}
		case dom.OpClick:
			e.clicks++
		default:
			e.mu.Unlock()
			return "", errors.New("domtest: unknown op " + string(op.Kind))
		}
	}
	text := e.text
	doc := e.doc
	e.mu.Unlock()

	if focus && doc != nil {
		doc.Focus(e)
	}
	return text, nil
}

// PressEnter implements dom.KeyPresser.
func (e *Element) PressEnter(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return dom.ErrDetached
	}
	e.enters++
	return nil
}

func (e *Element) dispatch(ev dom.Event) {
	e.events = append(e.events, ev)
	switch ev.Type {
	case "compositionstart":
		e.canceled = false
	case "compositionend":
		if e.behavior.CommitOnCompositionEnd && ev.Data != nil {
			e.text = *ev.Data
		}
	case "beforeinput":
		e.canceled = ev.Cancelable && e.behavior.CancelBeforeInput
	}
}

func (e *Element) matches(selector string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return false
	}
	for _, a := range e.aliases {
		if a == selector {
			return true
		}
	}
	info := e.info
	switch {
	case selector == dom.FallbackInputSelector:
		return fallbackInput(info, e.attrs)
	case selector == dom.FallbackButtonSelector:
		return fallbackButton(info, e.attrs)
	case strings.HasPrefix(selector, "#"):
		return info.ID != "" && selector[1:] == info.ID
	default:
		return strings.EqualFold(selector, info.Tag)
	}
}

func fallbackInput(i dom.Info, attrs map[string]string) bool {
	switch i.Tag {
	case "input":
		return (i.Type == "text" || i.Type == "search") && !i.Disabled && !i.ReadOnly
	case "textarea":
		return !i.Disabled && !i.ReadOnly
	}
	return attrs["contenteditable"] == "true"
}

func fallbackButton(i dom.Info, attrs map[string]string) bool {
	if i.Tag != "button" || i.Disabled {
		return false
	}
	return attrs["type"] == "submit" ||
		strings.Contains(attrs["aria-label"], "Send") ||
		strings.Contains(attrs["data-testid"], "send") ||
		strings.Contains(attrs["title"], "Send")
}
