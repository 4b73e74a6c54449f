package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tlksio/tlks-server/internal/domain"
)

// CreateUser creates a new user and its username index atomically.
func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	key := []byte(userPrefix + user.ID)
	usernameKey := []byte(userByUsernamePrefix + user.Username)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if _, err := txn.Get(usernameKey); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(usernameKey, []byte(user.ID))
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user created", "id", user.ID, "username", user.Username)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.get([]byte(userPrefix+id), &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user through the username index.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	usernameKey := []byte(userByUsernamePrefix + username)

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return s.GetUser(ctx, userID)
}

// UpdateUser updates an existing user's profile fields.
// Username is immutable; callers must not change it.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	if _, err := s.GetUser(ctx, user.ID); err != nil {
		return err
	}

	user.Touch()
	if err := s.set([]byte(userPrefix+user.ID), user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
