package core

import (
	"context"
	"sync"
)

// KVStore is an opaque string key-value store, the device storage of the client.
// It holds the session token, the user id and the drafts of each chat.
type KVStore interface {
	// Get returns the value of key. ok is false if the key is not set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// MemoryKV is a KVStore kept in memory. It is safe for concurrent use.
type MemoryKV struct {
	m  map[string]string
	mu sync.RWMutex
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		m: make(map[string]string),
	}
}

func (s *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.m[key]
	return value, ok, nil
}

func (s *MemoryKV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemoryKV) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
