package control

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Action is the tag carried by every control message
type Action string

const (
	ActionConnect Action = "connect"
	ActionStart   Action = "start"
	ActionPause   Action = "pause"
	ActionResume  Action = "resume"
	ActionReset   Action = "reset"
	ActionSkip    Action = "skip"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingSource = errors.New("start message without src")
)

// Message is the only thing that crosses the channel between a manager and a display.
// Src is set for start messages only and holds the image path.
type Message struct {
	Action Action `json:"action"`
	Src    string `json:"src,omitempty"`
}

// Actions lists every known action in protocol order
func Actions() []Action {
	return []Action{ActionConnect, ActionStart, ActionPause, ActionResume, ActionReset, ActionSkip}
}

// Known reports whether the action is one the protocol defines
func (a Action) Known() bool {
	switch a {
	case ActionConnect, ActionStart, ActionPause, ActionResume, ActionReset, ActionSkip:
		return true
	default:
		return false
	}
}

func Connect() Message { return Message{Action: ActionConnect} }

func Start(src string) Message { return Message{Action: ActionStart, Src: src} }

func Pause() Message { return Message{Action: ActionPause} }

func Resume() Message { return Message{Action: ActionResume} }

func Reset() Message { return Message{Action: ActionReset} }

func Skip() Message { return Message{Action: ActionSkip} }

// Validate checks the action tag and the start payload
func (m Message) Validate() error {
	if !m.Action.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, m.Action)
	}
	if m.Action == ActionStart && m.Src == "" {
		return ErrMissingSource
	}
	return nil
}

// Encode marshals a message into its wire shape. Src is dropped for every
// action other than start.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Action != ActionStart {
		m.Src = ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal control message: %w", err)
	}
	return data, nil
}

// Decode parses a wire payload. Garbled JSON, unknown tags and start messages
// without a source are all reported as errors so the receiver can drop them.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("unmarshal control message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}
