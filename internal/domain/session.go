package domain

import "time"

// DefaultSessionTTL is how long a login session stays valid without renewal.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Session maps an opaque cookie token to a logged-in user. The login flow
// itself (OAuth handshake) lives outside this server; a session is created
// once the provider callback hands us a verified profile.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Created   time.Time `json:"created"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession creates a session for the user with the default TTL.
func NewSession(token, userID string) *Session {
	now := time.Now()
	return &Session{
		Token:     token,
		UserID:    userID,
		Created:   now,
		ExpiresAt: now.Add(DefaultSessionTTL),
	}
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
