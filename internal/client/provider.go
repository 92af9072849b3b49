package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// IdentityProvider signs in against the dashboard API with the OAuth2
// password grant and keeps the session alive with refresh-token grants.
// Tokens are persisted under authstate.SessionKey so a new process resumes
// the previous session.
//
// IdentityProvider is also an oauth2.TokenSource yielding a valid access
// token, refreshing it when needed.
type IdentityProvider struct {
	authstate.Notifier

	api    requester
	config *oauth2.Config
	store  authstate.SessionStore

	mu      sync.Mutex
	loaded  bool
	session *authstate.Session
}

func NewIdentityProvider(baseURL string, store authstate.SessionStore, httpClient *http.Client) *IdentityProvider {
	p := &IdentityProvider{
		config: &oauth2.Config{
			ClientID: "dashctl",
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimRight(baseURL, "/") + TokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store: store,
	}
	p.api = newRequester(baseURL, nil, httpClient)
	return p
}

func (p *IdentityProvider) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.api.httpClient)
}

func (p *IdentityProvider) VerifyCredentials(ctx context.Context, email, password string) (*authstate.Session, error) {
	tok, err := p.config.PasswordCredentialsToken(p.oauthContext(ctx), email, password)
	if err != nil {
		p.forget()
		if isGrantRejected(err) {
			return nil, authstate.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	session, err := sessionFromToken(tok, models.Identity{})
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.loaded = true
	p.session = session
	err = p.store.Save(authstate.SessionKey, session)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	p.Notify(copySession(session))
	return copySession(session), nil
}

// TerminateSession revokes the refresh token on the server. The local
// session is dropped even when the server cannot be reached.
func (p *IdentityProvider) TerminateSession(ctx context.Context) error {
	p.mu.Lock()
	if err := p.loadLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	session := p.session
	p.session = nil
	clearErr := p.store.Clear(authstate.SessionKey)
	p.mu.Unlock()

	var revokeErr error
	if session != nil {
		revokeErr = p.revoke(ctx, session)
	}

	p.Notify(nil)
	return errors.Join(revokeErr, clearErr)
}

func (p *IdentityProvider) revoke(ctx context.Context, session *authstate.Session) error {
	api := p.api
	api.tokens = oauth2.StaticTokenSource(tokenFromSession(session))
	body := map[string]string{"refresh_token": session.RefreshToken}
	if err := api.do(ctx, http.MethodPost, LogoutPath, body, nil); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// CurrentSession returns the persisted session, refreshing its access token
// when it has expired. A session the server no longer honours is dropped
// and reported as absent.
func (p *IdentityProvider) CurrentSession(ctx context.Context) (*authstate.Session, error) {
	if _, err := p.token(ctx); err != nil {
		if errors.Is(err, authstate.ErrNotAuthenticated) {
			return nil, nil
		}
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return copySession(p.session), nil
}

// Token implements oauth2.TokenSource.
func (p *IdentityProvider) Token() (*oauth2.Token, error) {
	return p.token(context.Background())
}

func (p *IdentityProvider) token(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	if err := p.loadLocked(); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if p.session == nil {
		p.mu.Unlock()
		return nil, authstate.ErrNotAuthenticated
	}

	current := tokenFromSession(p.session)
	if current.Valid() {
		p.mu.Unlock()
		return current, nil
	}
	if current.RefreshToken == "" {
		p.dropLocked()
		p.mu.Unlock()
		p.Notify(nil)
		return nil, authstate.ErrNotAuthenticated
	}

	next, err := p.config.TokenSource(p.oauthContext(ctx), current).Token()
	if err != nil {
		if isGrantRejected(err) {
			p.dropLocked()
			p.mu.Unlock()
			p.Notify(nil)
			return nil, authstate.ErrNotAuthenticated
		}
		p.mu.Unlock()
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	session, err := sessionFromToken(next, p.session.Identity)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.session = session
	saveErr := p.store.Save(authstate.SessionKey, session)
	p.mu.Unlock()

	p.Notify(copySession(session))
	if saveErr != nil {
		return nil, fmt.Errorf("failed to persist session: %w", saveErr)
	}
	return tokenFromSession(session), nil
}

func (p *IdentityProvider) loadLocked() error {
	if p.loaded {
		return nil
	}
	var s authstate.Session
	ok, err := p.store.Load(authstate.SessionKey, &s)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	p.loaded = true
	if ok && s.Valid() && s.AccessToken != "" {
		p.session = &s
	}
	return nil
}

// forget drops whatever session was signed in before a failed login.
// Listeners hear about it only when there was one.
func (p *IdentityProvider) forget() {
	p.mu.Lock()
	_ = p.loadLocked()
	had := p.session != nil
	p.dropLocked()
	p.mu.Unlock()

	if had {
		p.Notify(nil)
	}
}

func (p *IdentityProvider) dropLocked() {
	p.session = nil
	_ = p.store.Clear(authstate.SessionKey)
}

// isGrantRejected reports whether the token endpoint refused the grant
// itself, as opposed to failing to answer.
func isGrantRejected(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return false
	}
	switch re.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return true
	}
	return false
}

func sessionFromToken(tok *oauth2.Token, fallback models.Identity) (*authstate.Session, error) {
	identity := fallback
	if raw, ok := tok.Extra("user_id").(string); ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid user_id in token response: %w", err)
		}
		identity.ID = id
	}
	if email, ok := tok.Extra("email").(string); ok && email != "" {
		identity.Email = email
	}
	if identity.ID == uuid.Nil {
		return nil, errors.New("token response carries no user_id")
	}

	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &authstate.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    tok.Expiry,
		Identity:     identity,
	}, nil
}

func tokenFromSession(s *authstate.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}
}

func copySession(s *authstate.Session) *authstate.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
