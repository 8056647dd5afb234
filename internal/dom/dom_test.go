package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoEligible(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want bool
	}{
		{"text input", Info{Tag: "input", Type: "text"}, true},
		{"untyped input", Info{Tag: "INPUT"}, true},
		{"search input", Info{Tag: "input", Type: "search"}, true},
		{"email input", Info{Tag: "input", Type: "email"}, true},
		{"number input", Info{Tag: "input", Type: "number"}, false},
		{"checkbox", Info{Tag: "input", Type: "checkbox"}, false},
		{"disabled input", Info{Tag: "input", Type: "text", Disabled: true}, false},
		{"readonly textarea", Info{Tag: "textarea", ReadOnly: true}, false},
		{"textarea", Info{Tag: "textarea"}, true},
		{"editable div", Info{Tag: "div", ContentEditable: true}, true},
		{"plain div", Info{Tag: "div"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Eligible())
		})
	}
}

func TestInfoSummary(t *testing.T) {
	assert.Equal(t, "textarea#prompt", Info{Tag: "textarea", ID: "prompt"}.Summary())
	assert.Equal(t, `input[type="text"]#q`, Info{Tag: "input", Type: "text", ID: "q"}.Summary())
	assert.Equal(t, "div#e[contenteditable]", Info{Tag: "div", ID: "e", ContentEditable: true}.Summary())
}

func TestEnterKeyEvents(t *testing.T) {
	events := EnterKeyEvents()
	assert.Len(t, events, 3)
	for i, typ := range []string{"keydown", "keypress", "keyup"} {
		assert.Equal(t, typ, events[i].Type)
		assert.Equal(t, 13, events[i].KeyCode)
		assert.True(t, events[i].Bubbles && events[i].Cancelable)
	}
}
