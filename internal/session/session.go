// Package session holds the per-user state that flows between the signup wizard,
// the invitation flow and the API client.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is passed explicitly to the components that read or consume it.
type Session struct {
	mu                sync.Mutex
	token             string
	pendingInvitation string
}

// New creates a session around an optional access token.
func New(token string) *Session {
	return &Session{token: token}
}

// Token returns the access token, if any.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken replaces the access token, e.g. after email verification.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Authenticated reports whether the session holds a token that has not expired at now.
// The signature is not checked here; the backend verifies it on every call. Tokens that
// are not JWTs count as authenticated when non-empty.
func (s *Session) Authenticated(now time.Time) bool {
	token := s.Token()
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return now.Before(exp.Time)
}

// SetPendingInvitation remembers an invitation token to honour once signup completes.
func (s *Session) SetPendingInvitation(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingInvitation = token
}

// PendingInvitation returns the remembered invitation token without consuming it.
func (s *Session) PendingInvitation() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingInvitation, s.pendingInvitation != ""
}

// ConsumePendingInvitation returns and clears the invitation token.
func (s *Session) ConsumePendingInvitation() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.pendingInvitation
	s.pendingInvitation = ""
	return token, token != ""
}
