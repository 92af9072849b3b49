package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ProfileStore reads and writes profiles through the dashboard API.
type ProfileStore struct {
	api requester
}

func NewProfileStore(baseURL string, tokens oauth2.TokenSource, httpClient *http.Client) *ProfileStore {
	return &ProfileStore{api: newRequester(baseURL, tokens, httpClient)}
}

func (s *ProfileStore) GetProfile(ctx context.Context, identityID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.api.do(ctx, http.MethodGet, ProfilesPath+identityID.String(), nil, &user)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, authstate.ErrProfileNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *ProfileStore) UpdateProfile(ctx context.Context, identityID uuid.UUID, update models.ProfileUpdate) error {
	err := s.api.do(ctx, http.MethodPatch, ProfilesPath+identityID.String(), update, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: %w", authstate.ErrProfileNotFound, err)
		}
		return err
	}
	return nil
}

func isStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
