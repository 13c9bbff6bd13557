package core

import (
	"context"
	"fmt"
	"strconv"
)

const (
	SessionTokenKey = "session_token"
	UserIDKey       = "user_id"
)

// SessionProvider gives the request layer access to the credentials of the signed in user.
type SessionProvider interface {
	// Token returns the session token, or "" if there is no session.
	Token(ctx context.Context) (string, error)
	// UserID returns the id of the signed in user.
	// It returns an ErrUnauthorized kind error if there is no session.
	UserID(ctx context.Context) (int, error)
	SetSession(ctx context.Context, token string, userID int) error
	ClearSession(ctx context.Context) error
}

// KVSession is a SessionProvider that keeps the session in a KVStore.
type KVSession struct {
	kv KVStore
}

func NewKVSession(kv KVStore) *KVSession {
	return &KVSession{kv: kv}
}

func (s *KVSession) Token(ctx context.Context) (string, error) {
	token, _, err := s.kv.Get(ctx, SessionTokenKey)
	if err != nil {
		return "", fmt.Errorf("get session token: %w", err)
	}
	return token, nil
}

func (s *KVSession) UserID(ctx context.Context) (int, error) {
	value, ok, err := s.kv.Get(ctx, UserIDKey)
	if err != nil {
		return 0, fmt.Errorf("get user id: %w", err)
	}
	if !ok {
		return 0, NewError(ErrUnauthorized, "Unauthorised. Please log in and try again.")
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, NewError(ErrUnauthorized, "Unauthorised. Please log in and try again.").WithCause(err)
	}
	return id, nil
}

func (s *KVSession) SetSession(ctx context.Context, token string, userID int) error {
	if err := s.kv.Set(ctx, SessionTokenKey, token); err != nil {
		return fmt.Errorf("set session token: %w", err)
	}
	if err := s.kv.Set(ctx, UserIDKey, strconv.Itoa(userID)); err != nil {
		return fmt.Errorf("set user id: %w", err)
	}
	return nil
}

func (s *KVSession) ClearSession(ctx context.Context) error {
	if err := s.kv.Remove(ctx, SessionTokenKey); err != nil {
		return fmt.Errorf("remove session token: %w", err)
	}
	if err := s.kv.Remove(ctx, UserIDKey); err != nil {
		return fmt.Errorf("remove user id: %w", err)
	}
	return nil
}
