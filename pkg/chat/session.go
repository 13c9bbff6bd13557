package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/putto11262002/whatsthat/core"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("chat session closed")

// Backend is the part of the request layer a chat session uses.
type Backend interface {
	GetChat(ctx context.Context, chatID int, page core.Page) (*core.Conversation, error)
	SendMessage(ctx context.Context, chatID int, text string) error
	DeleteMessage(ctx context.Context, chatID, messageID int) error
	UpdateMessage(ctx context.Context, chatID, messageID int, text string) error
	AddMember(ctx context.Context, chatID, userID int) error
	RemoveMember(ctx context.Context, chatID, userID int) error
	ListContacts(ctx context.Context) ([]core.User, error)
}

// Drafts is the part of the draft store a chat session uses.
type Drafts interface {
	Load(ctx context.Context, chatID int) ([]string, error)
	Save(ctx context.Context, chatID int, text string) ([]string, error)
	Remove(ctx context.Context, chatID int, index int) ([]string, error)
}

// Session runs the state of one open chat.
//
// Reduce is applied under a lock, effects run outside it in the goroutine of the caller.
// Dispatch may be called again while an earlier call is still waiting on the backend;
// results are applied in the order they complete, so the last fetch to finish wins.
// After Close, results of calls still in flight are dropped.
type Session struct {
	backend Backend
	drafts  Drafts
	logger  *slog.Logger
	page    core.Page
	now     func() time.Time

	mu     sync.Mutex
	state  State
	closed bool
}

type SessionOption func(*Session)

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithPage sets the limit and offset passed on every conversation fetch.
func WithPage(page core.Page) SessionOption {
	return func(s *Session) {
		s.page = page
	}
}

// WithClock sets the clock used to stamp clicks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

func NewSession(backend Backend, drafts Drafts, opts ...SessionOption) *Session {
	s := &Session{
		backend: backend,
		drafts:  drafts,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the chat, its members, the contacts and the drafts of the chat.
func (s *Session) Open(ctx context.Context, chatID int, name string) error {
	return s.Dispatch(ctx, Open{ChatID: chatID, Name: name})
}

// Focus reloads the chat and the drafts. It does nothing after Close.
func (s *Session) Focus(ctx context.Context) error {
	err := s.Dispatch(ctx, Focus{})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// Close detaches the session. Calls in flight run to completion but their results are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies in and runs the resulting effects until the state settles.
// It returns the error recorded in the state by in or by one of its effects, if any.
func (s *Session) Dispatch(ctx context.Context, in Intent) error {
	if c, ok := in.(Click); ok && c.At.IsZero() {
		c.At = s.now()
		in = c
	}
	effects, err := s.step(in, false)
	if err != nil {
		return err
	}
	return s.run(ctx, effects)
}

// step applies in to the state. Results that arrive after Close are dropped.
func (s *Session) step(in Intent, result bool) ([]Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if result {
			s.logger.Debug("dropping result of closed session", slog.Int("chat_id", s.state.ChatID), slog.String("result", fmt.Sprintf("%T", in)))
			return nil, nil
		}
		return nil, ErrClosed
	}
	prev := s.state.Err
	next, effects := Reduce(s.state, in)
	s.state = next
	if next.Err != nil && next.Err != prev {
		return effects, next.Err
	}
	return effects, nil
}

func (s *Session) run(ctx context.Context, effects []Effect) error {
	if len(effects) == 0 {
		return nil
	}
	var g errgroup.Group
	for _, e := range effects {
		g.Go(func() error {
			res := s.execute(ctx, e)
			more, err := s.step(res, true)
			if err != nil {
				return err
			}
			return s.run(ctx, more)
		})
	}
	return g.Wait()
}

func (s *Session) execute(ctx context.Context, e Effect) Intent {
	s.logger.Debug("running effect", slog.String("effect", fmt.Sprintf("%T", e)))
	switch e := e.(type) {
	case FetchConversation:
		conv, err := s.backend.GetChat(ctx, e.ChatID, s.page)
		return ConversationFetched{Conversation: conv, Err: err}
	case FetchContacts:
		contacts, err := s.backend.ListContacts(ctx)
		return ContactsFetched{Contacts: contacts, Err: err}
	case LoadDrafts:
		drafts, err := s.drafts.Load(ctx, e.ChatID)
		return DraftsChanged{Drafts: drafts, Err: err}
	case CallSend:
		return MutationDone{Op: OpSend, Err: s.backend.SendMessage(ctx, e.ChatID, e.Text)}
	case CallDelete:
		return MutationDone{Op: OpDelete, MessageID: e.MessageID, Err: s.backend.DeleteMessage(ctx, e.ChatID, e.MessageID)}
	case CallUpdate:
		return MutationDone{Op: OpEdit, MessageID: e.MessageID, Err: s.backend.UpdateMessage(ctx, e.ChatID, e.MessageID, e.Text)}
	case CallAddMember:
		return MutationDone{Op: OpAddMember, Err: s.backend.AddMember(ctx, e.ChatID, e.UserID)}
	case CallRemoveMember:
		return MutationDone{Op: OpRemoveMember, Err: s.backend.RemoveMember(ctx, e.ChatID, e.UserID)}
	case StoreDraft:
		drafts, err := s.drafts.Save(ctx, e.ChatID, e.Text)
		return DraftsChanged{Drafts: drafts, Saved: true, Err: err}
	case DropDraft:
		drafts, err := s.drafts.Remove(ctx, e.ChatID, e.Index)
		return DraftsChanged{Drafts: drafts, Err: err}
	}
	panic(fmt.Sprintf("chat: unknown effect %T", e))
}
