package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager(accessTTL, refreshTTL time.Duration) (*Manager, *InMemorySessionStore, *time.Time) {
	store := NewInMemorySessionStore()
	manager := NewManager(accessTTL, refreshTTL, store)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	manager.WithNowFunc(func() time.Time { return now })
	return manager, store, &now
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, store, _ := newTestManager(time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old token should have been removed")
	}
	if _, err := manager.Authenticate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrAccessTokenInvalid) {
		t.Fatalf("expected rotated access token to be invalid, got %v", err)
	}

	userID, err := manager.Authenticate(context.Background(), refreshed.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _, _ := newTestManager(time.Minute, time.Hour)
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerAccessTokenExpires(t *testing.T) {
	manager, _, now := newTestManager(time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	*now = now.Add(2 * time.Minute)

	if _, err := manager.Authenticate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrAccessTokenExpired) {
		t.Fatalf("expected access token expired got %v", err)
	}
	if _, err := manager.Authenticate(context.Background(), "never-issued"); !errors.Is(err, ErrAccessTokenInvalid) {
		t.Fatalf("expected invalid token got %v", err)
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, _, now := newTestManager(time.Minute, time.Millisecond)

	if _, err := manager.Refresh(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	*now = now.Add(2 * time.Millisecond)

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrRefreshTokenExpired {
		t.Fatalf("expected refresh expired got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
	if _, err := manager.Authenticate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrAccessTokenInvalid) {
		t.Fatalf("expected revoked access token to be invalid got %v", err)
	}
}

func TestManagerPurgesExpiredSessions(t *testing.T) {
	manager, store, now := newTestManager(time.Minute, time.Hour)

	stale, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	*now = now.Add(2 * time.Hour)

	fresh, err := manager.Issue(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if store.Has(stale.RefreshToken) {
		t.Fatal("expected expired refresh token to be purged")
	}
	if !store.Has(fresh.RefreshToken) {
		t.Fatal("expected fresh refresh token to survive")
	}
	if got := store.Len(); got != 1 {
		t.Fatalf("expected 1 live session, got %d", got)
	}
}
