// Package dom describes the slice of a host page that autosend reads and
// writes. The browser package implements it over go-rod; domtest implements it
// in memory for tests.
package dom

import (
	"context"
	"errors"
	"strings"
)

// ErrDetached is returned by element operations when the handle no longer
// refers to a live node.
var ErrDetached = errors.New("element detached")

// Selectors used when no site-specific selector is configured.
const (
	// FallbackInputSelector matches the generic text-entry candidates.
	FallbackInputSelector = `input[type="text"]:not([disabled]):not([readonly]), ` +
		`input[type="search"]:not([disabled]):not([readonly]), ` +
		`textarea:not([disabled]):not([readonly]), ` +
		`[contenteditable="true"]`

	// FallbackButtonSelector matches common "send" controls.
	FallbackButtonSelector = `button[type="submit"]:not([disabled]), ` +
		`button[aria-label*="Send"]:not([disabled]), ` +
		`button[data-testid*="send"]:not([disabled]), ` +
		`button[title*="Send"]:not([disabled])`
)

// SelectorConfig is the per-site selector hint. Empty fields mean absent.
type SelectorConfig struct {
	InputBoxSelector   string `mapstructure:"input_box_selector" json:"input_box_selector,omitempty"`
	SendButtonSelector string `mapstructure:"send_button_selector" json:"send_button_selector,omitempty"`
}

// Document is the page-level view.
type Document interface {
	// QueryAll returns every element matching selector in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// ActiveElement returns the focused element, or nil when focus rests on
	// the body or nothing.
	ActiveElement(ctx context.Context) (Element, error)
}

// Element is a possibly stale handle to a node in the page.
type Element interface {
	// Describe snapshots the element's state.
	Describe(ctx context.Context) (Info, error)
	// Run executes ops in order within a single page task and returns the
	// element's text afterwards (value for form controls, innerText for
	// editable regions).
	Run(ctx context.Context, ops ...Op) (string, error)
}

// KeyPresser is implemented by elements that can receive key presses through
// the browser's input pipeline rather than as synthetic DOM events.
type KeyPresser interface {
	PressEnter(ctx context.Context) error
}

// Info is a snapshot of the element state the resolver and dispatcher use.
type Info struct {
	Tag             string `json:"tag"`
	Type            string `json:"type"`
	ID              string `json:"id"`
	Disabled        bool   `json:"disabled"`
	ReadOnly        bool   `json:"readOnly"`
	ContentEditable bool   `json:"contentEditable"`
	Visible         bool   `json:"visible"`
	Connected       bool   `json:"connected"`
}

var textInputTypes = map[string]bool{
	"": true, "text": true, "search": true, "email": true,
	"url": true, "tel": true, "password": true,
}

// Eligible reports whether the element can take typed text: an enabled,
// writable text input or textarea, or a content-editable region.
func (i Info) Eligible() bool {
	if i.ContentEditable {
		return true
	}
	if i.Disabled || i.ReadOnly {
		return false
	}
	switch strings.ToLower(i.Tag) {
	case "textarea":
		return true
	case "input":
		return textInputTypes[strings.ToLower(i.Type)]
	}
	return false
}

// Native reports whether the element is a form control with a value property.
func (i Info) Native() bool {
	if i.ContentEditable {
		return false
	}
	tag := strings.ToLower(i.Tag)
	return tag == "input" || tag == "textarea"
}

// Ready reports whether a button candidate can be clicked.
func (i Info) Ready() bool {
	return i.Connected && !i.Disabled && i.Visible
}

// Summary renders a short label for log lines, e.g. textarea#prompt.
func (i Info) Summary() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(i.Tag))
	if i.Type != "" && strings.EqualFold(i.Tag, "input") {
		b.WriteString(`[type="` + i.Type + `"]`)
	}
	if i.ID != "" {
		b.WriteString("#" + i.ID)
	}
	if i.ContentEditable {
		b.WriteString("[contenteditable]")
	}
	return b.String()
}
