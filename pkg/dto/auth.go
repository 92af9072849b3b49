package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// TokenRequest is the form body of the OAuth2 token endpoint.
type TokenRequest struct {
	GrantType    string
	Username     string
	Password     string
	RefreshToken string
}

func (r TokenRequest) Validate() error {
	fields := []*validation.FieldRules{
		validation.Field(&r.GrantType, validation.Required, validation.In(GrantPassword, GrantRefreshToken)),
	}
	switch r.GrantType {
	case GrantPassword:
		fields = append(fields,
			validation.Field(&r.Username, validation.Required, is.Email),
			validation.Field(&r.Password, validation.Required),
		)
	case GrantRefreshToken:
		fields = append(fields, validation.Field(&r.RefreshToken, validation.Required))
	}
	return validation.ValidateStruct(&r, fields...)
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
}

// TokenError follows the RFC 6749 error response.
type TokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
