package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/putto11262002/whatsthat/core"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GetChat(ctx context.Context, chatID int, page core.Page) (*core.Conversation, error) {
	args := m.Called(ctx, chatID, page)
	conv, _ := args.Get(0).(*core.Conversation)
	return conv, args.Error(1)
}

func (m *mockBackend) SendMessage(ctx context.Context, chatID int, text string) error {
	return m.Called(ctx, chatID, text).Error(0)
}

func (m *mockBackend) DeleteMessage(ctx context.Context, chatID, messageID int) error {
	return m.Called(ctx, chatID, messageID).Error(0)
}

func (m *mockBackend) UpdateMessage(ctx context.Context, chatID, messageID int, text string) error {
	return m.Called(ctx, chatID, messageID, text).Error(0)
}

func (m *mockBackend) AddMember(ctx context.Context, chatID, userID int) error {
	return m.Called(ctx, chatID, userID).Error(0)
}

func (m *mockBackend) RemoveMember(ctx context.Context, chatID, userID int) error {
	return m.Called(ctx, chatID, userID).Error(0)
}

func (m *mockBackend) ListContacts(ctx context.Context) ([]core.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]core.User)
	return users, args.Error(1)
}

var (
	alice = core.User{ID: 1, FirstName: "Alice", LastName: "Smith"}
	bob   = core.User{ID: 2, FirstName: "Bob", LastName: "Jones"}
)

func conversation(bodies ...string) *core.Conversation {
	conv := &core.Conversation{ID: 42, Name: "Team", Members: []core.User{alice, bob}}
	for i, body := range bodies {
		conv.Messages = append(conv.Messages, core.Message{ID: len(bodies) - i, Body: body, Author: alice})
	}
	return conv
}

// openSession opens chat 42 holding two messages.
func openSession(t *testing.T, opts ...SessionOption) (*Session, *mockBackend, *core.DraftStore) {
	t.Helper()
	backend := &mockBackend{}
	drafts := core.NewDraftStore(core.NewMemoryKV(), nil)
	backend.On("GetChat", mock.Anything, 42, core.Page{}).Return(conversation("second", "first"), nil).Once()
	backend.On("ListContacts", mock.Anything).Return([]core.User{bob}, nil)

	s := NewSession(backend, drafts, opts...)
	require.NoError(t, s.Open(context.Background(), 42, "Team"))
	state := s.State()
	require.Equal(t, PhaseReady, state.Phase)
	require.Len(t, state.Messages, 2)
	return s, backend, drafts
}

func TestSession_SendReloads(t *testing.T) {
	ctx := context.Background()
	s, backend, _ := openSession(t)
	backend.On("SendMessage", mock.Anything, 42, "hello").Return(nil).Once()
	backend.On("GetChat", mock.Anything, 42, core.Page{}).Return(conversation("hello", "second", "first"), nil).Once()

	require.NoError(t, s.Dispatch(ctx, Input{Text: "hello"}))
	require.NoError(t, s.Dispatch(ctx, Send{Text: "hello"}))

	state := s.State()
	require.Len(t, state.Messages, 3)
	assert.Equal(t, "hello", state.Messages[0].Body)
	assert.Empty(t, state.Buffer)
	assert.Nil(t, state.Err)
	backend.AssertExpectations(t)
}

func TestSession_SendEmpty(t *testing.T) {
	ctx := context.Background()
	s, backend, _ := openSession(t)

	for _, text := range []string{"", "   "} {
		err := s.Dispatch(ctx, Send{Text: text})
		assert.ErrorIs(t, err, core.ErrValidation)
	}
	backend.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_EditRejectsEmpty(t *testing.T) {
	ctx := context.Background()
	s, backend, _ := openSession(t)

	require.NoError(t, s.Dispatch(ctx, BeginEdit{MessageID: 7, Text: "old text"}))
	state := s.State()
	assert.Equal(t, Editing(7), state.Composition)
	assert.Equal(t, "old text", state.Buffer)

	require.NoError(t, s.Dispatch(ctx, Input{Text: ""}))
	err := s.Dispatch(ctx, SaveEdit{})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, Editing(7), s.State().Composition)
	backend.AssertNotCalled(t, "UpdateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_RemoveSelf(t *testing.T) {
	ctx := context.Background()
	s, backend, _ := openSession(t)
	backend.On("RemoveMember", mock.Anything, 42, alice.ID).Return(nil).Once()
	left := conversation("second", "first")
	left.Members = []core.User{bob}
	backend.On("GetChat", mock.Anything, 42, core.Page{}).Return(left, nil).Once()

	require.NoError(t, s.Dispatch(ctx, RemoveMember{UserID: alice.ID}))
	assert.Equal(t, []core.User{bob}, s.State().Members)
	backend.AssertExpectations(t)
}

func TestSession_ReloadFailure(t *testing.T) {
	ctx := context.Background()
	s, backend, _ := openSession(t)
	backend.On("GetChat", mock.Anything, 42, core.Page{}).Return(nil, core.NewError(core.ErrServer, "down")).Once()

	before := s.State()
	err := s.Dispatch(ctx, Reload{})
	assert.ErrorIs(t, err, core.ErrServer)

	after := s.State()
	assert.Equal(t, before.Messages, after.Messages)
	assert.Equal(t, before.Members, after.Members)
	assert.ErrorIs(t, after.Err, core.ErrServer)
}

func TestSession_Drafts(t *testing.T) {
	ctx := context.Background()
	s, _, drafts := openSession(t)

	require.NoError(t, s.Dispatch(ctx, Input{Text: "x"}))
	require.NoError(t, s.Dispatch(ctx, SaveDraft{}))
	require.NoError(t, s.Dispatch(ctx, Input{Text: "y"}))
	require.NoError(t, s.Dispatch(ctx, SaveDraft{}))
	state := s.State()
	assert.Equal(t, []string{"x", "y"}, state.Drafts)
	assert.Empty(t, state.Buffer)

	require.NoError(t, s.Dispatch(ctx, LoadDraft{Index: 0}))
	assert.Equal(t, "x", s.State().Buffer)

	require.NoError(t, s.Dispatch(ctx, DeleteDraft{Index: 0}))
	assert.Equal(t, []string{"y"}, s.State().Drafts)

	stored, err := drafts.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, stored)
}

func TestSession_ClickClock(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(500 * time.Millisecond)
		return now
	}
	s, _, _ := openSession(t, WithClock(clock))

	require.NoError(t, s.Dispatch(ctx, Click{MessageID: 1}))
	require.NoError(t, s.Dispatch(ctx, Click{MessageID: 1}))
	assert.True(t, s.State().Click.ControlsVisible(1))
}

func TestSession_Close(t *testing.T) {
	ctx := context.Background()
	s, backend, _ := openSession(t)

	started := make(chan struct{})
	release := make(chan struct{})
	backend.On("GetChat", mock.Anything, 42, core.Page{}).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(conversation("late"), nil).Once()

	done := make(chan error)
	go func() {
		done <- s.Dispatch(ctx, Reload{})
	}()
	<-started
	s.Close()
	close(release)
	require.NoError(t, <-done)

	assert.Len(t, s.State().Messages, 2)
	assert.ErrorIs(t, s.Dispatch(ctx, Reload{}), ErrClosed)
	assert.NoError(t, s.Focus(ctx))
	backend.AssertNumberOfCalls(t, "GetChat", 2)
}

func TestSession_LastResponseWins(t *testing.T) {
	ctx := context.Background()
	s, backend, _ := openSession(t)

	started := make(chan struct{})
	release := make(chan struct{})
	backend.On("GetChat", mock.Anything, 42, core.Page{}).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(conversation("older"), nil).Once()
	backend.On("GetChat", mock.Anything, 42, core.Page{}).Return(conversation("newer", "older"), nil).Once()

	done := make(chan error)
	go func() {
		done <- s.Dispatch(ctx, Reload{})
	}()
	<-started
	require.NoError(t, s.Dispatch(ctx, Reload{}))
	require.Len(t, s.State().Messages, 2)

	close(release)
	require.NoError(t, <-done)
	state := s.State()
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "older", state.Messages[0].Body)
}
