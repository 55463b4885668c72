package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codenestai/client/internal/api"
	"github.com/codenestai/client/internal/config"
	"github.com/codenestai/client/internal/db"
	"github.com/codenestai/client/internal/middleware"
	"github.com/codenestai/client/internal/repositories"
	"github.com/codenestai/client/internal/session"
	"github.com/codenestai/client/internal/tokens"
)

// dependencies holds everything a command needs. close releases the token store.
type dependencies struct {
	cfg      config.Config
	logger   *slog.Logger
	store    tokens.Store
	client   *api.Client
	session  *session.Session
	registry *prometheus.Registry
	close    func()
}

// buildDependencies wires the token store, the API client and the session together.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (*dependencies, error) {
	store, closeStore, err := openTokenStore(ctx, cfg.TokenStore, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	client := api.New(cfg.APIURL, store,
		api.WithHTTPClient(newHTTPClient(cfg, logger)),
		api.WithLogger(logger),
		api.WithMetrics(api.NewMetrics(registry)),
	)

	return &dependencies{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		client:   client,
		session:  session.New(client),
		registry: registry,
		close:    closeStore,
	}, nil
}

// newHTTPClient builds the outbound transport: request IDs first, then logging, then the
// optional rate limit.
func newHTTPClient(cfg config.Config, logger *slog.Logger) *http.Client {
	wares := []middleware.Tripperware{
		middleware.RequestID(),
		middleware.Logging(logger),
	}
	if cfg.RateLimit > 0 {
		wares = append(wares, middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	return &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: middleware.Chain(http.DefaultTransport, wares...),
	}
}

// openTokenStore selects the persistence backend for the credential pair. In auto mode a
// database URL selects PostgreSQL, otherwise SQLite; if that backend cannot be opened, or
// the PostgreSQL schema has not been migrated, the client degrades to an in-memory store and
// logs a warning.
func openTokenStore(ctx context.Context, cfg config.TokenStoreConfig, logger *slog.Logger) (tokens.Store, func(), error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch backend {
	case config.TokenStoreMemory:
		return tokens.NewMemoryStore(), func() {}, nil
	case config.TokenStoreSQLite:
		return openSQLite(ctx, cfg)
	case config.TokenStorePostgres:
		return openPostgres(ctx, cfg)
	case config.TokenStoreAuto, "":
		open := openSQLite
		if cfg.DatabaseURL != "" {
			open = openPostgres
		}
		store, closeStore, err := open(ctx, cfg)
		if err != nil {
			logger.Warn("persistent token store unavailable, tokens will not survive this process", "error", err)
			return tokens.NewMemoryStore(), func() {}, nil
		}
		return store, closeStore, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store backend %q", cfg.Backend)
	}
}

func openSQLite(ctx context.Context, cfg config.TokenStoreConfig) (tokens.Store, func(), error) {
	store, err := tokens.OpenSQLite(ctx, cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func openPostgres(ctx context.Context, cfg config.TokenStoreConfig) (tokens.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("postgres token store: database url is required")
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := repositories.NewPostgresTokenStore(pool, cfg.Profile)
	if err := store.CheckSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres token store: %w", err)
	}
	return store, pool.Close, nil
}
