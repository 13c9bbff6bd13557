package chat

import (
	"time"

	"github.com/putto11262002/whatsthat/core"
)

// Intent is an input of Reduce: a user action or the result of an effect.
type Intent interface {
	isIntent()
}

// Open starts a session on a chat and fetches it.
type Open struct {
	ChatID int
	Name   string
}

// Reload fetches the chat and the contacts again.
type Reload struct{}

// Focus is sent when the chat comes back into view. It reloads the chat and the drafts.
type Focus struct{}

// Input replaces the buffer with what the user typed.
type Input struct {
	Text string
}

// Send posts text as a new message. It is rejected while a message is under edit.
type Send struct {
	Text string
}

// Delete removes a message.
type Delete struct {
	MessageID int
}

// BeginEdit puts the message with the given id under edit with text as the initial buffer.
type BeginEdit struct {
	MessageID int
	Text      string
}

// SaveEdit sends the buffer as the new body of the message under edit.
type SaveEdit struct{}

// CancelEdit leaves edit mode and restores the outgoing message. It does nothing when idle.
type CancelEdit struct{}

// Click is a click on a message. A zero At is stamped by the session clock.
type Click struct {
	MessageID int
	At        time.Time
}

type AddMember struct {
	UserID int
}

type RemoveMember struct {
	UserID int
}

// SaveDraft stores the buffer as a draft of the chat.
type SaveDraft struct{}

// LoadDraft copies a draft into the buffer. The draft is kept.
type LoadDraft struct {
	Index int
}

type DeleteDraft struct {
	Index int
}

// DismissError clears the recorded error.
type DismissError struct{}

// ConversationFetched is the result of FetchConversation.
type ConversationFetched struct {
	Conversation *core.Conversation
	Err          error
}

// ContactsFetched is the result of FetchContacts.
type ContactsFetched struct {
	Contacts []core.User
	Err      error
}

// Op names a backend mutation.
type Op string

const (
	OpSend         Op = "send"
	OpDelete       Op = "delete"
	OpEdit         Op = "edit"
	OpAddMember    Op = "add member"
	OpRemoveMember Op = "remove member"
)

// MutationDone is the result of a backend mutation.
type MutationDone struct {
	Op Op
	// MessageID is the message the mutation applied to, if any.
	MessageID int
	Err       error
}

// DraftsChanged is the result of a draft store operation.
type DraftsChanged struct {
	Drafts []string
	// Saved is set when the drafts changed because the buffer was saved.
	Saved bool
	Err   error
}

func (Open) isIntent()                {}
func (Reload) isIntent()              {}
func (Focus) isIntent()               {}
func (Input) isIntent()               {}
func (Send) isIntent()                {}
func (Delete) isIntent()              {}
func (BeginEdit) isIntent()           {}
func (SaveEdit) isIntent()            {}
func (CancelEdit) isIntent()          {}
func (Click) isIntent()               {}
func (AddMember) isIntent()           {}
func (RemoveMember) isIntent()        {}
func (SaveDraft) isIntent()           {}
func (LoadDraft) isIntent()           {}
func (DeleteDraft) isIntent()         {}
func (DismissError) isIntent()        {}
func (ConversationFetched) isIntent() {}
func (ContactsFetched) isIntent()     {}
func (MutationDone) isIntent()        {}
func (DraftsChanged) isIntent()       {}

// Effect is work requested by Reduce. Effects returned together are independent.
type Effect interface {
	isEffect()
}

type FetchConversation struct {
	ChatID int
}

type FetchContacts struct{}

type LoadDrafts struct {
	ChatID int
}

type CallSend struct {
	ChatID int
	Text   string
}

type CallDelete struct {
	ChatID    int
	MessageID int
}

type CallUpdate struct {
	ChatID    int
	MessageID int
	Text      string
}

type CallAddMember struct {
	ChatID int
	UserID int
}

type CallRemoveMember struct {
	ChatID int
	UserID int
}

type StoreDraft struct {
	ChatID int
	Text   string
}

type DropDraft struct {
	ChatID int
	Index  int
}

func (FetchConversation) isEffect() {}
func (FetchContacts) isEffect()     {}
func (LoadDrafts) isEffect()        {}
func (CallSend) isEffect()          {}
func (CallDelete) isEffect()        {}
func (CallUpdate) isEffect()        {}
func (CallAddMember) isEffect()     {}
func (CallRemoveMember) isEffect()  {}
func (StoreDraft) isEffect()        {}
func (DropDraft) isEffect()         {}
