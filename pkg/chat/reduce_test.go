package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/putto11262002/whatsthat/core"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func ready() State {
	s, _ := Reduce(State{}, Open{ChatID: 42, Name: "Team"})
	s, _ = Reduce(s, ConversationFetched{Conversation: &core.Conversation{
		Messages: []core.Message{{ID: 2, Body: "b"}, {ID: 1, Body: "a"}},
		Members:  []core.User{{ID: 1}, {ID: 2}},
	}})
	return s
}

func TestReduce_Open(t *testing.T) {
	s, effects := Reduce(State{Buffer: "left over", Err: errors.New("old")}, Open{ChatID: 42, Name: "Team"})
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, 42, s.ChatID)
	assert.Empty(t, s.Buffer)
	assert.Nil(t, s.Err)
	assert.ElementsMatch(t, []Effect{FetchConversation{ChatID: 42}, FetchContacts{}, LoadDrafts{ChatID: 42}}, effects)

	failed, effects := Reduce(s, ConversationFetched{Err: core.NewError(core.ErrNotFound, "gone")})
	assert.Empty(t, effects)
	assert.Equal(t, PhaseReady, failed.Phase)
	assert.Empty(t, failed.Messages)
	assert.ErrorIs(t, failed.Err, core.ErrNotFound)
}

func TestReduce_ReloadFailureKeepsSnapshot(t *testing.T) {
	s := ready()

	next, _ := Reduce(s, ConversationFetched{Err: core.NewError(core.ErrServer, "down")})
	assert.Equal(t, s.Messages, next.Messages)
	assert.Equal(t, s.Members, next.Members)
	assert.ErrorIs(t, next.Err, core.ErrServer)

	next, _ = Reduce(next, ConversationFetched{Conversation: &core.Conversation{
		Messages: []core.Message{{ID: 3}},
	}})
	assert.Equal(t, []core.Message{{ID: 3}}, next.Messages)
	assert.Empty(t, next.Members)
	assert.ErrorIs(t, next.Err, core.ErrServer, "kept until dismissed")
}

func TestReduce_ErrorSurvivesLaterFetch(t *testing.T) {
	fetched := ConversationFetched{Conversation: &core.Conversation{Messages: []core.Message{{ID: 3}}}}

	s, _ := Reduce(ready(), ContactsFetched{Err: core.NewError(core.ErrUnauthorized, "expired")})
	s, _ = Reduce(s, fetched)
	assert.Equal(t, []core.Message{{ID: 3}}, s.Messages)
	assert.ErrorIs(t, s.Err, core.ErrUnauthorized)

	s, _ = Reduce(ready(), MutationDone{Op: OpSend, Err: core.NewError(core.ErrForbidden, "no")})
	s, _ = Reduce(s, fetched)
	assert.ErrorIs(t, s.Err, core.ErrForbidden)

	s, _ = Reduce(s, DismissError{})
	assert.Nil(t, s.Err)
}

func TestReduce_Send(t *testing.T) {
	for _, text := range []string{"", "   "} {
		s, effects := Reduce(ready(), Send{Text: text})
		assert.Empty(t, effects)
		assert.ErrorIs(t, s.Err, core.ErrValidation)
	}

	s := ready()
	s, _ = Reduce(s, Input{Text: "hello"})
	assert.True(t, s.DraftPending)
	s, effects := Reduce(s, Send{Text: s.Buffer})
	assert.Equal(t, []Effect{CallSend{ChatID: 42, Text: "hello"}}, effects)

	failed, effects := Reduce(s, MutationDone{Op: OpSend, Err: core.NewError(core.ErrForbidden, "no")})
	assert.Empty(t, effects)
	assert.Equal(t, "hello", failed.Buffer)
	assert.ErrorIs(t, failed.Err, core.ErrForbidden)

	done, effects := Reduce(failed, MutationDone{Op: OpSend})
	assert.Empty(t, done.Buffer)
	assert.False(t, done.DraftPending)
	assert.ErrorIs(t, done.Err, core.ErrForbidden)
	assert.Equal(t, []Effect{FetchConversation{ChatID: 42}, FetchContacts{}}, effects)
}

func TestReduce_Edit(t *testing.T) {
	s := ready()
	s, _ = Reduce(s, Input{Text: "new message"})

	s, effects := Reduce(s, BeginEdit{MessageID: 7, Text: "old text"})
	assert.Empty(t, effects)
	id, editing := s.Composition.Editing()
	require.True(t, editing)
	assert.Equal(t, 7, id)
	assert.Equal(t, "old text", s.Buffer)

	busy, _ := Reduce(s, BeginEdit{MessageID: 8, Text: "other"})
	assert.ErrorIs(t, busy.Err, core.ErrValidation)
	assert.Equal(t, Editing(7), busy.Composition)

	s, _ = Reduce(s, Input{Text: ""})
	rejected, effects := Reduce(s, SaveEdit{})
	assert.Empty(t, effects)
	assert.ErrorIs(t, rejected.Err, core.ErrValidation)
	assert.Equal(t, Editing(7), rejected.Composition)

	s, _ = Reduce(rejected, Input{Text: "new text"})
	s, effects = Reduce(s, SaveEdit{})
	assert.Equal(t, []Effect{CallUpdate{ChatID: 42, MessageID: 7, Text: "new text"}}, effects)

	failed, _ := Reduce(s, MutationDone{Op: OpEdit, MessageID: 7, Err: core.NewError(core.ErrNotFound, "gone")})
	assert.Equal(t, Editing(7), failed.Composition)
	assert.Equal(t, "new text", failed.Buffer)

	done, effects := Reduce(failed, MutationDone{Op: OpEdit, MessageID: 7})
	assert.True(t, done.Composition.IsIdle())
	assert.Equal(t, "new message", done.Buffer)
	assert.Len(t, effects, 2)
}

func TestReduce_SendWhileEditing(t *testing.T) {
	s := ready()
	s, _ = Reduce(s, Input{Text: "new outgoing"})
	s, _ = Reduce(s, BeginEdit{MessageID: 7, Text: "old text"})

	rejected, effects := Reduce(s, Send{Text: s.Buffer})
	assert.Empty(t, effects)
	assert.ErrorIs(t, rejected.Err, core.ErrValidation)
	assert.Equal(t, Editing(7), rejected.Composition)
	assert.Equal(t, "old text", rejected.Buffer)

	cancelled, _ := Reduce(rejected, CancelEdit{})
	assert.Equal(t, "new outgoing", cancelled.Buffer)
}

func TestReduce_CancelEdit(t *testing.T) {
	s := ready()
	s, _ = Reduce(s, Input{Text: "outgoing"})

	idle, effects := Reduce(s, CancelEdit{})
	assert.Empty(t, effects)
	assert.Equal(t, s, idle)

	editing, _ := Reduce(s, BeginEdit{MessageID: 1, Text: "a"})
	editing, _ = Reduce(editing, Input{Text: "changed"})
	cancelled, effects := Reduce(editing, CancelEdit{})
	assert.Empty(t, effects)
	assert.True(t, cancelled.Composition.IsIdle())
	assert.Equal(t, "outgoing", cancelled.Buffer)
	assert.Nil(t, cancelled.Err)
}

func TestReduce_Click(t *testing.T) {
	tcs := []struct {
		name     string
		secondID int
		after    time.Duration
		expanded bool
	}{
		{name: "same message within window", secondID: 5, after: 999 * time.Millisecond, expanded: true},
		{name: "same message at window", secondID: 5, after: time.Second, expanded: false},
		{name: "same message after window", secondID: 5, after: 3 * time.Second, expanded: false},
		{name: "other message", secondID: 6, after: 10 * time.Millisecond, expanded: false},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := Reduce(ready(), Click{MessageID: 5, At: t0})
			assert.False(t, s.Click.ControlsVisible(5))

			s, effects := Reduce(s, Click{MessageID: tc.secondID, At: t0.Add(tc.after)})
			assert.Empty(t, effects)
			assert.Equal(t, tc.expanded, s.Click.ControlsVisible(tc.secondID))
			assert.Equal(t, tc.secondID, s.Click.LastID)
			assert.Equal(t, t0.Add(tc.after), s.Click.LastAt)
		})
	}

	t.Run("third click collapses", func(t *testing.T) {
		s, _ := Reduce(ready(), Click{MessageID: 5, At: t0})
		s, _ = Reduce(s, Click{MessageID: 5, At: t0.Add(100 * time.Millisecond)})
		s, _ = Reduce(s, Click{MessageID: 6, At: t0.Add(200 * time.Millisecond)})
		assert.False(t, s.Click.ControlsVisible(5))
		assert.False(t, s.Click.ControlsVisible(6))
	})
}

func TestReduce_Members(t *testing.T) {
	s, effects := Reduce(ready(), RemoveMember{UserID: 1})
	assert.Equal(t, []Effect{CallRemoveMember{ChatID: 42, UserID: 1}}, effects)

	_, effects = Reduce(s, MutationDone{Op: OpRemoveMember})
	assert.Equal(t, []Effect{FetchConversation{ChatID: 42}, FetchContacts{}}, effects)

	_, effects = Reduce(s, AddMember{UserID: 3})
	assert.Equal(t, []Effect{CallAddMember{ChatID: 42, UserID: 3}}, effects)

	failed, effects := Reduce(s, MutationDone{Op: OpAddMember, Err: core.NewError(core.ErrNotFound, "no user")})
	assert.Empty(t, effects)
	assert.Equal(t, s.Members, failed.Members)
	assert.Error(t, failed.Err)
}

func TestReduce_Drafts(t *testing.T) {
	s := ready()

	_, effects := Reduce(s, SaveDraft{})
	assert.Empty(t, effects, "empty buffer is not saved")

	s, _ = Reduce(s, Input{Text: "later"})
	s, effects = Reduce(s, SaveDraft{})
	assert.Equal(t, []Effect{StoreDraft{ChatID: 42, Text: "later"}}, effects)

	s, _ = Reduce(s, DraftsChanged{Drafts: []string{"earlier", "later"}, Saved: true})
	assert.Empty(t, s.Buffer)
	assert.False(t, s.DraftPending)

	s, _ = Reduce(s, LoadDraft{Index: 1})
	assert.Equal(t, "later", s.Buffer)
	assert.Equal(t, []string{"earlier", "later"}, s.Drafts)

	bad, effects := Reduce(s, LoadDraft{Index: 2})
	assert.Empty(t, effects)
	assert.ErrorIs(t, bad.Err, core.ErrValidation)

	_, effects = Reduce(s, DeleteDraft{Index: 0})
	assert.Equal(t, []Effect{DropDraft{ChatID: 42, Index: 0}}, effects)

	editing, _ := Reduce(s, BeginEdit{MessageID: 1, Text: "a"})
	rejected, effects := Reduce(editing, SaveDraft{})
	assert.Empty(t, effects)
	assert.ErrorIs(t, rejected.Err, core.ErrValidation)
}

func TestReduce_DismissError(t *testing.T) {
	s, _ := Reduce(ready(), Send{Text: ""})
	require.Error(t, s.Err)
	s, _ = Reduce(s, DismissError{})
	assert.Nil(t, s.Err)
}
