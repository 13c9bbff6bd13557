package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

// DraftKey returns the store key of the drafts of a chat.
// The format is shared with data already on devices and must not change.
func DraftKey(chatID int) string {
	return "draft_" + strconv.Itoa(chatID)
}

// DraftStore persists an ordered list of unsent message texts per chat.
// Drafts have no id, they are addressed by their position in the list.
type DraftStore struct {
	kv     KVStore
	logger *slog.Logger
	// mu serialises the read-modify-write of Save and Remove.
	mu sync.Mutex
}

func NewDraftStore(kv KVStore, logger *slog.Logger) *DraftStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftStore{kv: kv, logger: logger}
}

// Load returns the drafts of the chat, oldest first.
// A missing or unreadable entry is an empty list.
func (s *DraftStore) Load(ctx context.Context, chatID int) ([]string, error) {
	raw, ok, err := s.kv.Get(ctx, DraftKey(chatID))
	if err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}
	drafts := []string{}
	if !ok {
		return drafts, nil
	}
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil || drafts == nil {
		s.logger.Warn("discarding unreadable drafts", slog.String("key", DraftKey(chatID)), slog.Any("error", err))
		return []string{}, nil
	}
	return drafts, nil
}

// Save appends text to the drafts of the chat and returns the new list.
func (s *DraftStore) Save(ctx context.Context, chatID int, text string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drafts, err := s.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	drafts = append(drafts, text)
	if err := s.write(ctx, chatID, drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

// Remove deletes the draft at index and returns the remaining list.
// It returns an ErrValidation kind error if index is out of range.
func (s *DraftStore) Remove(ctx context.Context, chatID int, index int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drafts, err := s.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(drafts) {
		return nil, NewErrorf(ErrValidation, "There is no draft number %d.", index+1)
	}
	drafts = append(drafts[:index], drafts[index+1:]...)
	if err := s.write(ctx, chatID, drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (s *DraftStore) write(ctx context.Context, chatID int, drafts []string) error {
	b, err := json.Marshal(drafts)
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}
	if err := s.kv.Set(ctx, DraftKey(chatID), string(b)); err != nil {
		return fmt.Errorf("save drafts: %w", err)
	}
	return nil
}
