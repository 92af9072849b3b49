// Package authstate owns the client-side view of who is signed in.
//
// A Machine reacts to an IdentityProvider's session events, resolves each
// session to a profile through a ProfileStore and publishes one AuthState at
// a time. Guards read that state to decide whether a protected view may run.
package authstate

import (
	"errors"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrProfileFetchFailed       = errors.New("profile fetch failed")
	ErrProfileUpdateFailed      = errors.New("profile update failed")
	ErrSessionTerminationFailed = errors.New("session termination failed")
	ErrNotAuthenticated         = errors.New("not authenticated")
	ErrProfileNotFound          = errors.New("profile not found")

	ErrSessionLoading = errors.New("session is loading")
	ErrLoginRequired  = errors.New("login required")
	ErrAccessDenied   = errors.New("access denied")
)

// AuthState describes the current session. IsAuthenticated is true only
// while User is set.
type AuthState struct {
	User            *models.User `json:"user"`
	IsLoading       bool         `json:"isLoading"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

func (s AuthState) clone() AuthState {
	s.User = s.User.Clone()
	return s
}

// Session is a live, provider-issued proof of authentication.
type Session struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	TokenType    string          `json:"token_type,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at,omitempty"`
	Identity     models.Identity `json:"identity"`
}

// Valid reports whether the session carries an identity.
func (s *Session) Valid() bool {
	return s != nil && s.Identity.ID != uuid.Nil
}

// Expired reports whether the access token has lapsed at now. Sessions
// without an expiry never expire.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
