// Package app implements the codenest command line and the mock-api server entry point.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/codenestai/client/internal/config"
	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/session"
)

// Version is reported by the version command.
const Version = "0.1.0"

// sessionScope annotates commands that run with the session on their context.
const sessionScope = "codenest/session"

// withSession marks cmd so the root hook puts the session in scope before it runs.
func withSession(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[sessionScope] = "true"
	return cmd
}

// Run executes the codenest command line with args. Command output goes to stdout, logs to
// stderr.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	rt := &runtime{in: stdin, out: stdout, errOut: stderr}
	return rt.execute(ctx, args)
}

// runtime carries the global flags and the lazily built dependencies shared by every
// subcommand of one invocation.
type runtime struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath  string
	apiURL      string
	logLevel    string
	logFormat   string
	tokenStore  string
	metricsFile string

	avatars func(context.Context, config.ObjectStoreConfig) (avatarUploader, error)
	deps    *dependencies
}

// config loads configuration and applies the global flag overrides.
func (rt *runtime) config() (config.Config, *slog.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if rt.configPath != "" {
		cfg, err = config.LoadFile(rt.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if rt.apiURL != "" {
		cfg.APIURL = rt.apiURL
	}
	if rt.logLevel != "" {
		cfg.LogLevel = rt.logLevel
	}
	if rt.logFormat != "" {
		cfg.LogFormat = rt.logFormat
	}
	if rt.tokenStore != "" {
		cfg.TokenStore.Backend = rt.tokenStore
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: rt.errOut})
	return cfg, logger, nil
}

// dependencies wires the client on first use.
func (rt *runtime) dependencies(ctx context.Context) (*dependencies, error) {
	if rt.deps != nil {
		return rt.deps, nil
	}

	cfg, logger, err := rt.config()
	if err != nil {
		return nil, err
	}
	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt.deps = deps
	return deps, nil
}

// close flushes the metrics file when requested and releases the token store.
func (rt *runtime) close() error {
	if rt.deps == nil {
		return nil
	}
	defer rt.deps.close()

	if rt.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(rt.metricsFile, rt.deps.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// execute runs one command line and releases whatever it opened.
func (rt *runtime) execute(ctx context.Context, args []string) error {
	cmd := newRootCmd(rt)
	cmd.SetArgs(args)
	cmd.SetIn(rt.in)
	cmd.SetOut(rt.out)
	cmd.SetErr(rt.errOut)

	err := cmd.ExecuteContext(ctx)
	if closeErr := rt.close(); err == nil {
		err = closeErr
	}
	return err
}

func (rt *runtime) printJSON(v any) error {
	enc := json.NewEncoder(rt.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (rt *runtime) printStatus(status string) error {
	return rt.printJSON(map[string]string{"status": status})
}

func newRootCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codenest",
		Short: "Command line client for the CodeNest learning platform",
		Long: `codenest talks to the CodeNest REST API on behalf of a signed-in user.

Credentials are kept in the configured token store and refreshed transparently
when the access token expires. Every command prints JSON on stdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := cmd.Annotations[sessionScope]; !ok {
				return nil
			}
			deps, err := rt.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			cmd.SetContext(session.WithAuth(cmd.Context(), deps.session))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&rt.configPath, "config", "c", "", "YAML config file (defaults to $CODENEST_CONFIG)")
	flags.StringVar(&rt.apiURL, "api-url", "", "API base URL, including the /api prefix")
	flags.StringVar(&rt.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&rt.logFormat, "log-format", "", "Log format (text, json, zap)")
	flags.StringVar(&rt.tokenStore, "token-store", "", "Token store backend (auto, sqlite, postgres, memory)")
	flags.StringVar(&rt.metricsFile, "metrics-file", "", "Write client metrics to this file on exit")

	cmd.AddCommand(
		newLoginCmd(rt),
		newRegisterCmd(rt),
		newLoginGoogleCmd(rt),
		newLogoutCmd(rt),
		newWhoamiCmd(rt),
		newProfileCmd(rt),
		newCoursesCmd(rt),
		newEnrollmentsCmd(rt),
		newPostsCmd(rt),
		newForumCmd(rt),
		newTokensCmd(rt),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "codenest %s\n", Version)
				return err
			},
		},
	)
	return cmd
}

// Main runs the codenest command line against the process streams and returns the exit
// status.
func Main(ctx context.Context) int {
	if err := Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", Describe(err))
		return 1
	}
	return 0
}
