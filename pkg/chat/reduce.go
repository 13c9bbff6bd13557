package chat

import (
	"strings"

	"github.com/putto11262002/whatsthat/core"
)

const (
	errEmptyMessage = "Message cannot be empty."
	errEmptyEdit    = "Edited message cannot be empty."
	errNotEditing   = "No message is being edited."
	errBusyEditing  = "Finish editing the current message first."
)

// reload is the effect list of a full refresh of the chat.
// The conversation and the contacts have no ordering dependency.
func reload(chatID int) []Effect {
	return []Effect{FetchConversation{ChatID: chatID}, FetchContacts{}}
}

// Reduce returns the state after in and the effects to run.
// It does not modify s and has no side effects.
func Reduce(s State, in Intent) (State, []Effect) {
	switch in := in.(type) {
	case Open:
		return State{ChatID: in.ChatID, Name: in.Name, Phase: PhaseLoading},
			append(reload(in.ChatID), LoadDrafts{ChatID: in.ChatID})

	case Reload:
		return s, reload(s.ChatID)

	case Focus:
		return s, append(reload(s.ChatID), LoadDrafts{ChatID: s.ChatID})

	case ConversationFetched:
		s.Phase = PhaseReady
		if in.Err != nil {
			s.Err = in.Err
			return s, nil
		}
		conv := in.Conversation
		if conv == nil {
			conv = &core.Conversation{}
		}
		// replaced together, never merged
		s.Messages = conv.Messages
		s.Members = conv.Members
		if conv.Name != "" {
			s.Name = conv.Name
		}
		return s, nil

	case ContactsFetched:
		if in.Err != nil {
			s.Err = in.Err
			return s, nil
		}
		s.Contacts = in.Contacts
		return s, nil

	case Input:
		s.Buffer = in.Text
		if s.Composition.IsIdle() {
			s.DraftPending = in.Text != ""
		}
		return s, nil

	case Send:
		if !s.Composition.IsIdle() {
			s.Err = core.NewValidationError(errBusyEditing)
			return s, nil
		}
		if strings.TrimSpace(in.Text) == "" {
			s.Err = core.NewValidationError(errEmptyMessage)
			return s, nil
		}
		return s, []Effect{CallSend{ChatID: s.ChatID, Text: in.Text}}

	case Delete:
		return s, []Effect{CallDelete{ChatID: s.ChatID, MessageID: in.MessageID}}

	case BeginEdit:
		if !s.Composition.IsIdle() {
			s.Err = core.NewValidationError(errBusyEditing)
			return s, nil
		}
		s.outgoing = s.Buffer
		s.Buffer = in.Text
		s.Composition = Editing(in.MessageID)
		return s, nil

	case SaveEdit:
		id, editing := s.Composition.Editing()
		if !editing {
			s.Err = core.NewValidationError(errNotEditing)
			return s, nil
		}
		if strings.TrimSpace(s.Buffer) == "" {
			s.Err = core.NewValidationError(errEmptyEdit)
			return s, nil
		}
		return s, []Effect{CallUpdate{ChatID: s.ChatID, MessageID: id, Text: s.Buffer}}

	case CancelEdit:
		if s.Composition.IsIdle() {
			return s, nil
		}
		return finishEdit(s), nil

	case Click:
		s.Click = s.Click.Register(in.MessageID, in.At)
		return s, nil

	case AddMember:
		return s, []Effect{CallAddMember{ChatID: s.ChatID, UserID: in.UserID}}

	case RemoveMember:
		return s, []Effect{CallRemoveMember{ChatID: s.ChatID, UserID: in.UserID}}

	case MutationDone:
		if in.Err != nil {
			s.Err = in.Err
			return s, nil
		}
		switch in.Op {
		case OpSend:
			if s.Composition.IsIdle() {
				s.Buffer = ""
				s.DraftPending = false
			} else {
				s.outgoing = ""
			}
		case OpEdit:
			if id, editing := s.Composition.Editing(); editing && id == in.MessageID {
				s = finishEdit(s)
			}
		}
		return s, reload(s.ChatID)

	case SaveDraft:
		if !s.Composition.IsIdle() {
			s.Err = core.NewValidationError(errBusyEditing)
			return s, nil
		}
		if s.Buffer == "" {
			return s, nil
		}
		return s, []Effect{StoreDraft{ChatID: s.ChatID, Text: s.Buffer}}

	case LoadDraft:
		if !s.Composition.IsIdle() {
			s.Err = core.NewValidationError(errBusyEditing)
			return s, nil
		}
		if in.Index < 0 || in.Index >= len(s.Drafts) {
			s.Err = core.NewErrorf(core.ErrValidation, "There is no draft number %d.", in.Index+1)
			return s, nil
		}
		s.Buffer = s.Drafts[in.Index]
		return s, nil

	case DeleteDraft:
		if in.Index < 0 || in.Index >= len(s.Drafts) {
			s.Err = core.NewErrorf(core.ErrValidation, "There is no draft number %d.", in.Index+1)
			return s, nil
		}
		return s, []Effect{DropDraft{ChatID: s.ChatID, Index: in.Index}}

	case DraftsChanged:
		if in.Err != nil {
			s.Err = in.Err
			return s, nil
		}
		s.Drafts = in.Drafts
		if in.Saved {
			s.Buffer = ""
			s.DraftPending = false
		}
		return s, nil

	case DismissError:
		s.Err = nil
		return s, nil
	}
	return s, nil
}

// finishEdit leaves edit mode and gives the buffer back to the outgoing message.
func finishEdit(s State) State {
	s.Composition = Idle()
	s.Buffer = s.outgoing
	s.outgoing = ""
	s.DraftPending = s.Buffer != ""
	return s
}
