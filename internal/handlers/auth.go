package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/middleware"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/services"
	"github.com/dimitrije/aiden-dashboard/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type AuthHandler struct {
	credentials  CredentialServiceInterface
	profiles     ProfileServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	logins       LoginRecorder
	events       EventBroadcaster
	now          func() time.Time
}

func NewAuthHandler(
	credentials CredentialServiceInterface,
	profiles ProfileServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	logins LoginRecorder,
) *AuthHandler {
	if logins == nil {
		logins = noopRecorder{}
	}
	return &AuthHandler{
		credentials:  credentials,
		profiles:     profiles,
		tokenService: tokenService,
		jwtService:   jwtService,
		logins:       logins,
		events:       noopBroadcaster{},
		now:          time.Now,
	}
}

// WithEvents makes LogoutAll announce the revocation on the caller's event
// streams.
func (h *AuthHandler) WithEvents(events EventBroadcaster) *AuthHandler {
	h.events = events
	return h
}

// Token is the OAuth2 token endpoint. It takes a form-encoded body and
// serves the password and refresh_token grants.
func (h *AuthHandler) Token(c *drift.Context) {
	c.Response.Header().Set("Cache-Control", "no-store")

	if err := c.Request.ParseForm(); err != nil {
		tokenError(c, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}
	form := c.Request.PostForm
	req := dto.TokenRequest{
		GrantType:    form.Get("grant_type"),
		Username:     form.Get("username"),
		Password:     form.Get("password"),
		RefreshToken: form.Get("refresh_token"),
	}

	if req.GrantType != dto.GrantPassword && req.GrantType != dto.GrantRefreshToken {
		if req.GrantType == "" {
			tokenError(c, http.StatusBadRequest, "invalid_request", "grant_type is required")
		} else {
			tokenError(c, http.StatusBadRequest, "unsupported_grant_type", "")
		}
		return
	}
	if err := req.Validate(); err != nil {
		tokenError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if req.GrantType == dto.GrantPassword {
		h.passwordGrant(c, req)
		return
	}
	h.refreshGrant(c, req)
}

func (h *AuthHandler) passwordGrant(c *drift.Context, req dto.TokenRequest) {
	ctx := c.Request.Context()

	identity, err := h.credentials.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, authstate.ErrInvalidCredentials) {
			h.logins.LoginAttempt(middleware.LoginInvalid)
			tokenError(c, http.StatusBadRequest, "invalid_grant", "invalid email or password")
			return
		}
		h.logins.LoginAttempt(middleware.LoginError)
		log.Printf("auth: login failed: %v", err)
		tokenError(c, http.StatusInternalServerError, "server_error", "")
		return
	}

	role, err := h.profiles.RoleOf(ctx, identity.ID)
	if err != nil {
		h.logins.LoginAttempt(middleware.LoginError)
		log.Printf("auth: role lookup for %s: %v", identity.ID, err)
		tokenError(c, http.StatusInternalServerError, "server_error", "")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(identity.ID, identity.Email, role)
	if err != nil {
		h.logins.LoginAttempt(middleware.LoginError)
		tokenError(c, http.StatusInternalServerError, "server_error", "failed to generate tokens")
		return
	}

	tokenHash := services.HashToken(pair.RefreshToken)
	expiresAt := h.now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(ctx, identity.ID, tokenHash, expiresAt); err != nil {
		h.logins.LoginAttempt(middleware.LoginError)
		tokenError(c, http.StatusInternalServerError, "server_error", "failed to store refresh token")
		return
	}

	h.logins.LoginAttempt(middleware.LoginSuccess)
	_ = c.JSON(http.StatusOK, tokenResponse(pair, identity))
}

// refreshGrant rotates the presented refresh token. A token is good for
// exactly one refresh; presenting it again fails with invalid_grant.
func (h *AuthHandler) refreshGrant(c *drift.Context, req dto.TokenRequest) {
	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		tokenError(c, http.StatusBadRequest, "invalid_grant", "invalid refresh token")
		return
	}

	ctx := c.Request.Context()

	identity, err := h.credentials.GetIdentity(ctx, userID)
	if err != nil {
		tokenError(c, http.StatusBadRequest, "invalid_grant", "user not found")
		return
	}

	role, err := h.profiles.RoleOf(ctx, identity.ID)
	if err != nil {
		log.Printf("auth: role lookup for %s: %v", identity.ID, err)
		tokenError(c, http.StatusInternalServerError, "server_error", "")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(identity.ID, identity.Email, role)
	if err != nil {
		tokenError(c, http.StatusInternalServerError, "server_error", "failed to generate tokens")
		return
	}

	oldHash := services.HashToken(req.RefreshToken)
	newHash := services.HashToken(pair.RefreshToken)
	expiresAt := h.now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.RotateRefreshToken(ctx, identity.ID, oldHash, newHash, expiresAt); err != nil {
		if errors.Is(err, services.ErrRefreshTokenNotFound) {
			tokenError(c, http.StatusBadRequest, "invalid_grant", "refresh token not found or expired")
			return
		}
		tokenError(c, http.StatusInternalServerError, "server_error", "failed to rotate refresh token")
		return
	}

	_ = c.JSON(http.StatusOK, tokenResponse(pair, identity))
}

func tokenResponse(pair *services.TokenPair, identity *models.Identity) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		UserID:       identity.ID,
		Email:        identity.Email,
	}
}

func tokenError(c *drift.Context, status int, code, description string) {
	_ = c.JSON(status, dto.TokenError{Error: code, Description: description})
}

// Session reports the identity and role carried by the caller's access
// token.
func (h *AuthHandler) Session(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	_ = c.JSON(http.StatusOK, dto.SessionResponse{
		UserID:    userID,
		Email:     middleware.GetUserEmail(c),
		Role:      string(middleware.GetUserRole(c)),
		ExpiresAt: middleware.GetExpiresAt(c),
	})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		tokenHash := services.HashToken(req.RefreshToken)
		if err := h.tokenService.RevokeRefreshToken(c.Request.Context(), tokenHash); err != nil {
			log.Printf("auth: failed to revoke refresh token: %v", err)
		}
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		c.InternalServerError("failed to revoke tokens")
		return
	}
	h.events.BroadcastSessionsRevoked(userID)

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "all sessions logged out"})
}
