// Package session holds the authentication state shared by everything that acts on behalf
// of the signed-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codenestai/client/internal/api"
	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/models"
	"github.com/codenestai/client/internal/tokens"
)

// State is the lifecycle position of a Session.
type State int

const (
	// Restoring is the initial state, held until Restore resolves.
	Restoring State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Auth is the capability set handed to code that needs the current user.
type Auth interface {
	User() *models.User
	IsLoading() bool
	IsAuthenticated() bool
	Restore(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	LoginWithGoogle(ctx context.Context, idToken string) error
	Register(ctx context.Context, req api.RegisterRequest) error
	Logout(ctx context.Context) error
	SetAuth(ctx context.Context, resp models.AuthResponse) error
	UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error)
}

// Session tracks the signed-in user and keeps the token store in step with it.
// It is safe for concurrent use.
type Session struct {
	client *api.Client
	tokens tokens.Store

	mu    sync.RWMutex
	user  *models.User
	state State
}

var _ Auth = (*Session)(nil)

// New constructs a Session in the Restoring state. Call Restore before relying on User.
func New(client *api.Client) *Session {
	return &Session{client: client, tokens: client.Tokens(), state: Restoring}
}

// Restore resumes a previous session from the token store. A stored access token is
// validated against the current-user endpoint; on failure both tokens are cleared. Restore
// always leaves the session out of the Restoring state.
func (s *Session) Restore(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "session.restore")
	defer span.End()

	access, err := s.tokens.Get(ctx, tokens.AccessToken)
	if errors.Is(err, tokens.ErrNotFound) || (err == nil && access == "") {
		s.transition(nil, Anonymous)
		return nil
	}
	if err != nil {
		s.transition(nil, Anonymous)
		span.Fail(err)
		return fmt.Errorf("read access token: %w", err)
	}

	user, err := s.client.Auth.Me(ctx)
	if err != nil {
		logging.FromContext(ctx).Info("stored session rejected", slog.Any("error", err))
		s.transition(nil, Anonymous)
		if clearErr := s.tokens.Clear(ctx); clearErr != nil {
			span.Fail(clearErr)
			return fmt.Errorf("clear tokens: %w", clearErr)
		}
		return nil
	}

	s.transition(user, Authenticated)
	return nil
}

// Login authenticates with email and password. On failure the state is unchanged.
func (s *Session) Login(ctx context.Context, email, password string) error {
	ctx, span := logging.StartSpan(ctx, "session.login")
	defer span.End()

	resp, err := s.client.Auth.Login(ctx, email, password)
	if err != nil {
		span.Fail(err)
		return err
	}
	return s.SetAuth(ctx, *resp)
}

// Register creates an account and signs in as it. On failure the state is unchanged.
func (s *Session) Register(ctx context.Context, req api.RegisterRequest) error {
	ctx, span := logging.StartSpan(ctx, "session.register")
	defer span.End()

	resp, err := s.client.Auth.Register(ctx, req)
	if err != nil {
		span.Fail(err)
		return err
	}
	return s.SetAuth(ctx, *resp)
}

// LoginWithGoogle signs in with a Google ID token. On failure the state is unchanged.
func (s *Session) LoginWithGoogle(ctx context.Context, idToken string) error {
	ctx, span := logging.StartSpan(ctx, "session.login_google")
	defer span.End()

	resp, err := s.client.Auth.Google(ctx, idToken)
	if err != nil {
		span.Fail(err)
		return err
	}
	return s.SetAuth(ctx, *resp)
}

// SetAuth stores the credential pair and user from resp and marks the session authenticated.
func (s *Session) SetAuth(ctx context.Context, resp models.AuthResponse) error {
	pair := tokens.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := s.tokens.SavePair(ctx, pair); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}

	user := resp.User
	s.transition(&user, Authenticated)
	return nil
}

// Logout forgets the credentials and the user. It does not call the API.
func (s *Session) Logout(ctx context.Context) error {
	s.transition(nil, Anonymous)
	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// UpdateProfile saves profile changes and refreshes the cached user while keeping the
// current credential pair.
func (s *Session) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	ctx, span := logging.StartSpan(ctx, "session.update_profile")
	defer span.End()

	user, err := s.client.Users.Update(ctx, req)
	if err != nil {
		span.Fail(err)
		return nil, err
	}

	pair, err := tokens.LoadPair(ctx, s.tokens)
	if err != nil {
		span.Fail(err)
		return nil, err
	}
	if err := s.SetAuth(ctx, models.AuthResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: *user}); err != nil {
		span.Fail(err)
		return nil, err
	}
	return user, nil
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsLoading reports whether Restore has not yet resolved.
func (s *Session) IsLoading() bool {
	return s.State() == Restoring
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) transition(user *models.User, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.state = state
}
