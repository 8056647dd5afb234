package dom

// OpKind names a page-side step.
type OpKind string

const (
	OpFocus    OpKind = "focus"
	OpSetValue OpKind = "setValue" // value through the prototype setter
	OpClear    OpKind = "clear"    // select contents and delete
	OpCommit   OpKind = "commit"   // write text unless the page already handled the last beforeinput
	OpDispatch OpKind = "dispatch"
	OpClick    OpKind = "click"
)

// EventClass is the DOM constructor used to build a synthetic event.
type EventClass string

const (
	ClassEvent       EventClass = "Event"
	ClassInput       EventClass = "InputEvent"
	ClassComposition EventClass = "CompositionEvent"
	ClassKeyboard    EventClass = "KeyboardEvent"
)

// Event describes one synthetic event. Zero fields are omitted from the
// constructor's init dictionary.
type Event struct {
	Class      EventClass `json:"class"`
	Type       string     `json:"type"`
	Bubbles    bool       `json:"bubbles"`
	Cancelable bool       `json:"cancelable"`
	Data       *string    `json:"data,omitempty"`
	InputType  string     `json:"inputType,omitempty"`
	Key        string     `json:"key,omitempty"`
	Code       string     `json:"code,omitempty"`
	KeyCode    int        `json:"keyCode,omitempty"`
}

// Op is one step of a page-side program.
type Op struct {
	Kind  OpKind `json:"kind"`
	Value string `json:"value,omitempty"`
	Event *Event `json:"event,omitempty"`
}

func Focus() Op             { return Op{Kind: OpFocus} }
func SetValue(v string) Op  { return Op{Kind: OpSetValue, Value: v} }
func Clear() Op             { return Op{Kind: OpClear} }
func Commit(text string) Op { return Op{Kind: OpCommit, Value: text} }
func Click() Op             { return Op{Kind: OpClick} }
func Dispatch(e Event) Op   { return Op{Kind: OpDispatch, Event: &e} }

// EnterKeyEvents is the keydown, keypress, keyup triple for Enter.
func EnterKeyEvents() []Event {
	types := []string{"keydown", "keypress", "keyup"}
	events := make([]Event, 0, len(types))
	for _, t := range types {
		events = append(events, Event{
			Class:      ClassKeyboard,
			Type:       t,
			Bubbles:    true,
			Cancelable: true,
			Key:        "Enter",
			Code:       "Enter",
			KeyCode:    13,
		})
	}
	return events
}
