package api

import (
	"context"
	"net/http"

	"github.com/codenestai/client/internal/models"
)

// RegisterRequest carries the fields required to create an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleRequest struct {
	IDToken string `json:"idToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthService groups the credential endpoints. None of them store the issued tokens; that is
// the session's job.
type AuthService struct {
	client *Client
}

// Register creates an account and returns its first credential pair.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/register", req, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges email and password for a credential pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Google exchanges a Google ID token for a credential pair.
func (s *AuthService) Google(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/google", googleRequest{IDToken: idToken}, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges refreshToken for a new pair without touching the token store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.client.do(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the user the stored access token belongs to.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.client.do(ctx, http.MethodGet, "/auth/me", nil, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
