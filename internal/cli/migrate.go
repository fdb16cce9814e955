package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/resolveiq/internal/config"
	"github.com/spec-kit/resolveiq/internal/persistence"
)

func (a *app) migrateCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations to POSTGRES_DSN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := a.logger(cfg.Logger)
			defer logger.Sync() //nolint:errcheck

			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pg.Close()
			if pg.PoolHandle() == nil {
				return fmt.Errorf("POSTGRES_DSN is not set")
			}
			if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), dir, logger); err != nil {
				return err
			}
			fmt.Fprintln(a.opts.Out, "migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", persistence.DefaultMigrationsDir, "migrations directory")
	return cmd
}
