package api

import (
	"context"
	"net/http"

	"github.com/codenestai/client/internal/models"
)

// UsersService covers profile endpoints.
type UsersService struct {
	client *Client
}

// Me returns the authenticated user's profile.
func (s *UsersService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.client.do(ctx, http.MethodGet, "/users/me", nil, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update changes the authenticated user's editable profile fields.
func (s *UsersService) Update(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.client.do(ctx, http.MethodPut, "/users/me", req, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Get returns another user's public profile.
func (s *UsersService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.client.do(ctx, http.MethodGet, "/users/"+segment(id), nil, false, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
