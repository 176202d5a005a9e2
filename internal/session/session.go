// Package session exposes who is logged in. The value is derived from the
// bearer token kept in the session cookie and is read-only: login and logout
// flows replace it, nothing mutates it.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/yukikurage/taskboard-web/internal/constants"
	"github.com/yukikurage/taskboard-web/internal/models"
)

// Claims are the identity fields the remote API puts in its tokens.
type Claims struct {
	UserID   string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Session struct {
	token  string
	claims Claims
	user   *models.User
	now    func() time.Time
}

var parser = jwt.NewParser()

// Anonymous is the logged-out session.
func Anonymous() *Session {
	return &Session{now: time.Now}
}

// FromToken decodes token without checking its signature; the remote API
// verifies tokens, the client only reads the identity they carry.
func FromToken(token string) (*Session, error) {
	if token == "" {
		return Anonymous(), nil
	}
	var claims Claims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("decode session token: %w", err)
	}
	return &Session{token: token, claims: claims, now: time.Now}, nil
}

// Authenticated reports whether a non-expired token is present.
func (s *Session) Authenticated() bool {
	if s == nil || s.token == "" {
		return false
	}
	return s.claims.VerifyExpiresAt(s.now(), false)
}

// Token returns the bearer token, empty when logged out.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

func (s *Session) Claims() Claims {
	if s == nil {
		return Claims{}
	}
	return s.claims
}

// User returns the profile attached with WithUser, or one built from the claims.
func (s *Session) User() *models.User {
	if !s.Authenticated() {
		return nil
	}
	if s.user != nil {
		u := *s.user
		return &u
	}
	return &models.User{
		ID:       s.claims.UserID,
		Email:    s.claims.Email,
		Username: s.claims.Username,
		Role:     s.claims.Role,
	}
}

// IsAdmin reports whether the current user holds the admin role.
func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && u.Role == constants.AdminRole
}

// WithUser returns a copy of s carrying the profile fetched from the API.
func (s *Session) WithUser(u models.User) *Session {
	c := *s
	c.user = &u
	return &c
}

// WithClock returns a copy of s that reads time from now.
func (s *Session) WithClock(now func() time.Time) *Session {
	c := *s
	c.now = now
	return &c
}
