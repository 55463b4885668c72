package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/tokens"
)

var errNoRefreshToken = errors.New("no refresh token stored")

const refreshFlightKey = "refresh"

// defaultRefreshTimeout bounds an exchange when the http.Client has no timeout of its own.
const defaultRefreshTimeout = 30 * time.Second

// refresher exchanges the stored refresh token for a new pair. Callers that arrive while an
// exchange is in flight share its outcome instead of starting their own. The exchange is
// detached from the cancellation of the caller that started it, so a caller that gives up
// only stops waiting.
type refresher struct {
	client *Client
	group  singleflight.Group
}

func newRefresher(c *Client) *refresher {
	return &refresher{client: c}
}

// refresh reports whether the store now holds a fresh pair. It never retries. The error is
// set only when ctx ends before the shared exchange does.
func (r *refresher) refresh(ctx context.Context) (bool, error) {
	flight := r.group.DoChan(refreshFlightKey, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout())
		defer cancel()
		return nil, r.exchange(flightCtx)
	})

	logger := logging.FromContext(ctx)
	select {
	case <-ctx.Done():
		logger.Debug("stopped waiting for token refresh", slog.Any("error", ctx.Err()))
		return false, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			logger.Info("token refresh failed", slog.Any("error", res.Err), slog.Bool("shared", res.Shared))
			return false, nil
		}
		logger.Debug("token refresh succeeded", slog.Bool("shared", res.Shared))
		return true, nil
	}
}

func (r *refresher) timeout() time.Duration {
	if t := r.client.httpClient.Timeout; t > 0 {
		return t
	}
	return defaultRefreshTimeout
}

func (r *refresher) exchange(ctx context.Context) (err error) {
	store := r.client.tokens
	defer func() {
		r.client.metrics.observeRefresh(err == nil)
		if err == nil {
			return
		}
		if clearErr := store.Clear(ctx); clearErr != nil {
			err = errors.Join(err, fmt.Errorf("clear tokens: %w", clearErr))
		}
	}()

	refreshToken, err := store.Get(ctx, tokens.RefreshToken)
	if errors.Is(err, tokens.ErrNotFound) || (err == nil && refreshToken == "") {
		return errNoRefreshToken
	}
	if err != nil {
		return fmt.Errorf("read refresh token: %w", err)
	}

	resp, err := r.client.Auth.Refresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return errors.New("refresh response is missing tokens")
	}

	if err := store.SavePair(ctx, tokens.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
		return fmt.Errorf("save refreshed tokens: %w", err)
	}
	return nil
}
