// Package inject writes text into page elements so that the page's own input
// handling sees the change.
package inject

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/v0xg/autosend/internal/dom"
)

// Kind names an injection variant.
type Kind string

const (
	KindNative   Kind = "native"
	KindRichText Kind = "richtext"
)

// Injector is implemented by every variant.
type Injector interface {
	Kind() Kind
	// Ops returns the page-side program that injects text.
	Ops(text string) []dom.Op
	// Inject runs the program and returns the element's resulting text.
	Inject(ctx context.Context, text string) (string, error)
}

// For picks the variant for el from its described state.
func For(el dom.Element, info dom.Info) Injector {
	if info.ContentEditable {
		return &RichTextRegion{el: el}
	}
	return &NativeControl{el: el}
}

// NativeControl is an input or textarea.
type NativeControl struct {
	el dom.Element
}

func (n *NativeControl) Kind() Kind { return KindNative }

func (n *NativeControl) Ops(text string) []dom.Op {
	return []dom.Op{
		dom.Focus(),
		dom.SetValue(text),
		dom.Dispatch(dom.Event{Class: dom.ClassInput, Type: "input", Bubbles: true}),
		dom.Dispatch(dom.Event{Class: dom.ClassEvent, Type: "change", Bubbles: true}),
	}
}

func (n *NativeControl) Inject(ctx context.Context, text string) (string, error) {
	return run(ctx, n.el, n.Ops(text))
}

// RichTextRegion is a contenteditable host. It is fed a full composition
// sequence because composition-driven editors commit on compositionend and
// ignore plain DOM writes.
type RichTextRegion struct {
	el dom.Element
}

func (r *RichTextRegion) Kind() Kind { return KindRichText }

func (r *RichTextRegion) Ops(text string) []dom.Op {
	data := &text
	return []dom.Op{
		dom.Focus(),
		dom.Clear(),
		dom.Dispatch(dom.Event{Class: dom.ClassComposition, Type: "compositionstart", Bubbles: true}),
		dom.Dispatch(dom.Event{Class: dom.ClassComposition, Type: "compositionupdate", Bubbles: true, Data: data}),
		dom.Dispatch(dom.Event{Class: dom.ClassComposition, Type: "compositionend", Bubbles: true, Data: data}),
		dom.Dispatch(dom.Event{Class: dom.ClassInput, Type: "beforeinput", Bubbles: true, Cancelable: true,
			InputType: "insertCompositionText", Data: data}),
		dom.Commit(text),
		dom.Dispatch(dom.Event{Class: dom.ClassInput, Type: "input", Bubbles: true,
			InputType: "insertCompositionText", Data: data}),
		dom.Dispatch(dom.Event{Class: dom.ClassEvent, Type: "change", Bubbles: true}),
		dom.Dispatch(dom.Event{Class: dom.ClassKeyboard, Type: "keyup", Bubbles: true, Key: "Process", Code: "Process"}),
	}
}

func (r *RichTextRegion) Inject(ctx context.Context, text string) (string, error) {
	return run(ctx, r.el, r.Ops(text))
}

func run(ctx context.Context, el dom.Element, ops []dom.Op) (string, error) {
	got, err := el.Run(ctx, ops...)
	if err != nil {
		return "", fmt.Errorf("inject: %w", err)
	}
	return got, nil
}

// TextInjector fills resolved targets and logs what the page ended up with.
type TextInjector struct {
	logger *zap.Logger
}

// New returns a TextInjector.
func New(logger *zap.Logger) *TextInjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextInjector{logger: logger}
}

// Inject writes text into el. Errors are returned for the caller's log; the
// step is complete either way.
func (t *TextInjector) Inject(ctx context.Context, el dom.Element, info dom.Info, text string) (string, error) {
	inj := For(el, info)
	got, err := inj.Inject(ctx, text)
	if err != nil {
		t.logger.Warn("Injection failed", zap.String("variant", string(inj.Kind())),
			zap.String("element", info.Summary()), zap.Error(err))
		return "", err
	}
	fields := []zap.Field{
		zap.String("variant", string(inj.Kind())),
		zap.String("element", info.Summary()),
		zap.String("text", got),
	}
	if got != text {
		t.logger.Info("Injected text not reflected by the page", fields...)
	} else {
		t.logger.Info("Injected text", fields...)
	}
	return got, nil
}
