// Package chat holds the state of an open conversation and the transitions between its states.
//
// The transitions are a pure function, Reduce, from a State and an Intent to the next State and
// the Effects to run. Session runs the effects against the backend and the draft store and feeds
// their results back into Reduce.
package chat

import (
	"slices"
	"time"

	"github.com/putto11262002/whatsthat/core"
)

// DoubleClickWindow is the time within which a second click on the same message
// reveals its edit and delete controls.
const DoubleClickWindow = time.Second

// Phase is the loading phase of a chat.
type Phase int

const (
	// PhaseLoading is the phase between opening a chat and its first fetch completing.
	PhaseLoading Phase = iota
	// PhaseReady is entered after the first fetch, whether it succeeded or not.
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseLoading {
		return "loading"
	}
	return "ready"
}

// Composition tells whether the buffer holds a new message or the body of a message under edit.
// The zero value is idle.
type Composition struct {
	editing   bool
	messageID int
}

// Idle returns the composition of a new outgoing message.
func Idle() Composition {
	return Composition{}
}

// Editing returns the composition of the message with the given id under edit.
func Editing(messageID int) Composition {
	return Composition{editing: true, messageID: messageID}
}

// IsIdle reports whether the buffer holds a new message.
func (c Composition) IsIdle() bool {
	return !c.editing
}

// Editing returns the id of the message under edit and true, or false if idle.
func (c Composition) Editing() (int, bool) {
	return c.messageID, c.editing
}

// ClickState remembers the last click on a message.
// It only drives the visibility of the message controls and never reaches the backend.
type ClickState struct {
	LastID int
	LastAt time.Time
	// Expanded is set when the last click was the second one on LastID within DoubleClickWindow.
	Expanded bool
}

// Register returns the state after a click on messageID at now.
func (c ClickState) Register(messageID int, now time.Time) ClickState {
	if c.LastAt.IsZero() || messageID != c.LastID || now.Sub(c.LastAt) >= DoubleClickWindow {
		return ClickState{LastID: messageID, LastAt: now}
	}
	return ClickState{LastID: messageID, LastAt: now, Expanded: true}
}

// ControlsVisible reports whether the controls of the message are shown.
func (c ClickState) ControlsVisible(messageID int) bool {
	return c.Expanded && c.LastID == messageID
}

// State is the in-memory view of one open chat.
type State struct {
	ChatID   int
	Name     string
	Phase    Phase
	Messages []core.Message
	Members  []core.User
	Contacts []core.User
	Drafts   []string

	// Buffer is the text being typed: a new message or, while editing, the new body.
	Buffer      string
	Composition Composition
	Click       ClickState
	// DraftPending is set while the buffer has text that can be saved as a draft.
	DraftPending bool

	// Err is the last failure. It is kept for display until DismissError.
	Err error

	// outgoing holds the new message text while the buffer is taken by an edit.
	outgoing string
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	s.Messages = slices.Clone(s.Messages)
	s.Members = slices.Clone(s.Members)
	s.Contacts = slices.Clone(s.Contacts)
	s.Drafts = slices.Clone(s.Drafts)
	return s
}

// Message returns the message with the given id from the current snapshot.
func (s State) Message(id int) (core.Message, bool) {
	i := slices.IndexFunc(s.Messages, func(m core.Message) bool { return m.ID == id })
	if i < 0 {
		return core.Message{}, false
	}
	return s.Messages[i], true
}
