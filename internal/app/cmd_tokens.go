package app

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/codenestai/client/internal/db"
	"github.com/codenestai/client/internal/repositories"
)

func newTokensCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Administer the local token store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:       "migrate [up|status]",
			Short:     "Apply or report the PostgreSQL token store schema",
			Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{repositories.MigrateUp, repositories.MigrateStatus},
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				cfg, logger, err := rt.config()
				if err != nil {
					return err
				}
				if cfg.TokenStore.DatabaseURL == "" {
					return errors.New("tokens migrate: CODENEST_DATABASE_URL is not set")
				}

				command := repositories.MigrateUp
				if len(args) > 0 {
					command = args[0]
				}

				pool, err := db.Connect(ctx, cfg.TokenStore.DatabaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()

				logger.Info("running token store migrations", "command", command)
				return repositories.Migrate(ctx, pool, repositories.MigrationSource(cfg.TokenStore.MigrationDir), command, rt.out)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored credential pair",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				deps, err := rt.dependencies(cmd.Context())
				if err != nil {
					return err
				}
				if err := deps.store.Clear(cmd.Context()); err != nil {
					return err
				}
				return rt.printStatus("cleared")
			},
		},
	)
	return cmd
}
