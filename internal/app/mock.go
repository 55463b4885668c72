package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/codenestai/client/internal/auth"
	"github.com/codenestai/client/internal/config"
	"github.com/codenestai/client/internal/httpserver"
	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/middleware"
	"github.com/codenestai/client/internal/mockapi"
)

const (
	loginAttemptsPerMinute = 10
	loginBurst             = 5
	loginLimiterTTL        = 10 * time.Minute
)

// RunMock serves the in-memory platform API until ctx is cancelled.
func RunMock(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newMockCmd(stderr, nil)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// MockMain runs the mock-api server against the process streams and returns the exit status.
func MockMain(ctx context.Context) int {
	if err := RunMock(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newMockCmd builds the mock-api command. ready, when set, receives the bound address once
// the listener is open.
func newMockCmd(logOut io.Writer, ready chan<- string) *cobra.Command {
	var (
		configPath string
		port       int
		logLevel   string
		noSeed     bool
	)

	cmd := &cobra.Command{
		Use:           "mock-api",
		Short:         "Serve an in-memory CodeNest API for local development",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				cfg config.Config
				err error
			)
			if configPath != "" {
				cfg, err = config.LoadFile(configPath)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.MockServer.Port = port
			}
			if logLevel == "" {
				logLevel = "info"
			}

			logger := logging.New(logging.Options{Level: logLevel, Format: cfg.LogFormat, Writer: logOut})

			store := mockapi.NewStore()
			if !noSeed {
				if err := mockapi.Seed(store, bcrypt.DefaultCost); err != nil {
					return fmt.Errorf("seed mock data: %w", err)
				}
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			handler := mockapi.NewRouter(mockapi.Dependencies{
				Store:        store,
				Sessions:     auth.NewManager(cfg.MockServer.AccessTTL, cfg.MockServer.RefreshTTL, auth.NewInMemorySessionStore()),
				Google:       mockapi.EmailTokenVerifier{},
				LoginLimiter: middleware.NewIPRateLimiter(loginAttemptsPerMinute, time.Minute, loginBurst, loginLimiterTTL),
				Logger:       logger,
				Registry:     registry,
			})

			srv := httpserver.New(cfg.MockServer.Port, handler)
			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
			}

			logger.Info("starting mock api",
				"addr", ln.Addr().String(),
				"access_ttl", cfg.MockServer.AccessTTL,
				"refresh_ttl", cfg.MockServer.RefreshTTL,
				"seeded", !noSeed,
			)
			if ready != nil {
				ready <- ln.Addr().String()
			}

			err = srv.Run(cmd.Context(), ln)
			logger.Info("mock api stopped")
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $CODENEST_CONFIG)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides CODENEST_MOCK_PORT)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "Start with an empty data set")
	return cmd
}
