// Package auth issues and validates the opaque access/refresh tokens handed out by the
// mock backend.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"
)

var (
	// ErrSessionNotFound indicates the provided refresh token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrAccessTokenInvalid indicates the bearer token was never issued or has been revoked.
	ErrAccessTokenInvalid = errors.New("access token invalid")
	// ErrAccessTokenExpired indicates the bearer token outlived its TTL.
	ErrAccessTokenExpired = errors.New("access token expired")
)

// SessionStore persists issued refresh tokens.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, refreshToken string) (Session, error)
	Delete(ctx context.Context, refreshToken string) error
}

// expiringStore is implemented by session stores that can drop lapsed refresh tokens.
type expiringStore interface {
	PurgeExpired(now time.Time) int
}

// Session represents a refresh token issued to a user.
type Session struct {
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
}

// Tokens is a freshly issued credential pair with its expiry instants.
type Tokens struct {
	UserID           string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type grant struct {
	userID       string
	refreshToken string
	expiresAt    time.Time
}

// Manager manages the lifecycle of issued tokens. Refresh tokens live in the SessionStore;
// access tokens are tracked in memory until they expire or their refresh token is rotated.
type Manager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration

	store SessionStore

	mu     sync.RWMutex
	access map[string]grant
	now    func() time.Time
}

// NewManager constructs a Manager that issues access and refresh tokens with the provided TTLs.
func NewManager(accessTTL, refreshTTL time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		access:     make(map[string]grant),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc allows tests to override the time source.
func (m *Manager) WithNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Manager) clock() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now()
}

// Issue creates a new pair of access and refresh tokens for the provided user identifier.
func (m *Manager) Issue(ctx context.Context, userID string) (Tokens, error) {
	if userID == "" {
		return Tokens{}, errors.New("user id must be provided")
	}

	now := m.clock()
	accessToken, err := randomToken()
	if err != nil {
		return Tokens{}, err
	}

	refreshToken, err := randomToken()
	if err != nil {
		return Tokens{}, err
	}

	tokens := Tokens{
		UserID:           userID,
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}

	if err := m.store.Save(ctx, Session{
		RefreshToken: refreshToken,
		UserID:       userID,
		ExpiresAt:    tokens.RefreshExpiresAt,
	}); err != nil {
		return Tokens{}, err
	}

	m.mu.Lock()
	m.access[accessToken] = grant{userID: userID, refreshToken: refreshToken, expiresAt: tokens.AccessExpiresAt}
	m.gcLocked(now)
	m.mu.Unlock()

	return tokens, nil
}

// Refresh exchanges a refresh token for a new session token pair. The old refresh token and
// every access token issued alongside it stop working.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, refreshToken)
	if err != nil {
		return Tokens{}, err
	}

	if m.clock().After(session.ExpiresAt) {
		m.Revoke(ctx, refreshToken)
		return Tokens{}, ErrRefreshTokenExpired
	}

	if err := m.store.Delete(ctx, refreshToken); err != nil {
		return Tokens{}, err
	}
	m.revokeAccess(refreshToken)

	return m.Issue(ctx, session.UserID)
}

// Authenticate resolves a bearer token to the user it was issued for.
func (m *Manager) Authenticate(_ context.Context, accessToken string) (string, error) {
	m.mu.RLock()
	g, ok := m.access[accessToken]
	now := m.now()
	m.mu.RUnlock()

	if !ok || accessToken == "" {
		return "", ErrAccessTokenInvalid
	}
	if now.After(g.expiresAt) {
		return "", ErrAccessTokenExpired
	}
	return g.userID, nil
}

// Revoke removes the provided refresh token and the access tokens issued with it.
func (m *Manager) Revoke(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	_ = m.store.Delete(ctx, refreshToken)
	m.revokeAccess(refreshToken)
}

func (m *Manager) revokeAccess(refreshToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, g := range m.access {
		if g.refreshToken == refreshToken {
			delete(m.access, token)
		}
	}
}

func (m *Manager) gcLocked(now time.Time) {
	for token, g := range m.access {
		if now.Sub(g.expiresAt) > m.refreshTTL {
			delete(m.access, token)
		}
	}
	if store, ok := m.store.(expiringStore); ok {
		store.PurgeExpired(now)
	}
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
