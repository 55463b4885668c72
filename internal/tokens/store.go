// Package tokens persists the access/refresh credential pair used by the API client.
package tokens

import (
	"context"
	"errors"
	"fmt"
)

// Key names one of the two stored credentials.
type Key string

const (
	AccessToken  Key = "accessToken"
	RefreshToken Key = "refreshToken"
)

// ErrNotFound indicates no value is stored for the requested key.
var ErrNotFound = errors.New("token not found")

// Pair groups the credentials issued together by the platform.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Store persists the credential pair. Implementations must be safe for concurrent use
// and must apply SavePair and Clear as a single whole-pair operation.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
	Remove(ctx context.Context, key Key) error
	SavePair(ctx context.Context, pair Pair) error
	Clear(ctx context.Context) error
}

// LoadPair reads both credentials. Missing values are returned as empty strings.
func LoadPair(ctx context.Context, store Store) (Pair, error) {
	access, err := lookup(ctx, store, AccessToken)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := lookup(ctx, store, RefreshToken)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func lookup(ctx context.Context, store Store, key Key) (string, error) {
	value, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

// ValidateKey rejects keys other than AccessToken and RefreshToken.
func ValidateKey(key Key) error {
	switch key {
	case AccessToken, RefreshToken:
		return nil
	default:
		return fmt.Errorf("unknown token key %q", key)
	}
}
