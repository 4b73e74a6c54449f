package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/errors"
	"github.com/tlksio/tlks-server/internal/id"
	"github.com/tlksio/tlks-server/internal/store"
)

// SessionService manages users and their cookie-token sessions.
//
// There is deliberately no password handling here: identity arrives from
// an upstream auth step and this service only maps usernames to user
// records and tokens to sessions.
type SessionService struct {
	store  *store.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(store *store.Store, ttl time.Duration, logger *slog.Logger) *SessionService {
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	return &SessionService{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Login finds or creates the user and opens a session for them.
func (s *SessionService) Login(ctx context.Context, username, avatar string) (*domain.User, *domain.Session, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, nil, errors.Validation("username is required")
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		// Existing user; refresh the avatar if the upstream one changed.
		if avatar != "" && avatar != user.Avatar {
			user.Avatar = avatar
			if err := s.store.UpdateUser(ctx, user); err != nil {
				s.logger.Warn("failed to refresh avatar", "user", user.ID, "error", err)
			}
		}
	case stderrors.Is(err, store.ErrUserNotFound):
		userID, idErr := id.Generate("user")
		if idErr != nil {
			return nil, nil, errors.Wrap(idErr, errors.CodeInternal, "generate user id")
		}
		user = &domain.User{
			ID:       userID,
			Username: username,
			Avatar:   avatar,
		}
		user.InitTimestamps()
		if err := s.store.CreateUser(ctx, user); err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeInternal, "create user")
		}
		s.logger.Info("user created", "id", user.ID, "username", username)
	default:
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "look up user")
	}

	session := domain.NewSession(uuid.NewString(), user.ID)
	session.ExpiresAt = time.Now().Add(s.ttl)
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "create session")
	}

	return user, session, nil
}

// Logout deletes the session. Unknown tokens are a no-op.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, token); err != nil && !stderrors.Is(err, store.ErrSessionNotFound) {
		return errors.Wrap(err, errors.CodeInternal, "delete session")
	}
	return nil
}

// UserForToken resolves a session token to its user.
// Missing or expired sessions surface as Unauthorized.
func (s *SessionService) UserForToken(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		if stderrors.Is(err, store.ErrSessionNotFound) || stderrors.Is(err, store.ErrSessionExpired) {
			return nil, errors.Unauthorized("session is missing or expired")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get session")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if stderrors.Is(err, store.ErrUserNotFound) {
			return nil, errors.Unauthorized("session user no longer exists")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get session user")
	}

	return user, nil
}

// Profile bundles a user with their engagement listings for the profile page.
type Profile struct {
	User      *domain.User   `json:"user"`
	Authored  []*domain.Talk `json:"authored"`
	Voted     []*domain.Talk `json:"voted"`
	Favorited []*domain.Talk `json:"favorited"`
}

// GetProfile returns the profile page data for a username.
func (s *SessionService) GetProfile(ctx context.Context, username string) (*Profile, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if stderrors.Is(err, store.ErrUserNotFound) {
			return nil, errors.NotFoundf("user %q not found", username)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get user")
	}

	authored, err := s.store.ListTalksByAuthor(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list authored talks")
	}
	voted, err := s.store.ListTalksVotedBy(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list voted talks")
	}
	favorited, err := s.store.ListTalksFavoritedBy(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list favorited talks")
	}

	return &Profile{
		User:      user,
		Authored:  authored,
		Voted:     voted,
		Favorited: favorited,
	}, nil
}
