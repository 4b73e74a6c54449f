package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tlksio/tlks-server/internal/domain"
)

// CreateSession persists a login session keyed by its opaque token.
func (s *Store) CreateSession(_ context.Context, session *domain.Session) error {
	key := []byte(sessionPrefix + session.Token)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check session exists: %w", err)
	}
	if exists {
		return errors.New("session already exists")
	}

	if err := s.set(key, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token. Expired sessions are reported
// as ErrSessionExpired; callers treat both error cases as "not logged in".
func (s *Store) GetSession(_ context.Context, token string) (*domain.Session, error) {
	key := []byte(sessionPrefix + token)

	var session domain.Session
	if err := s.get(key, &session); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// DeleteSession removes a session (logout). Missing sessions are fine.
func (s *Store) DeleteSession(_ context.Context, token string) error {
	if err := s.delete([]byte(sessionPrefix + token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
