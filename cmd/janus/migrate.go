package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/janus/internal/config"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/store/pg"
	pgmigrations "github.com/dropDatabas3/janus/migrations/postgres"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver postgres (actual: %s)", cfg.Storage.Driver)
			}

			logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "janus", Version: version})
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			st, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{})
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer st.Close()

			return st.Migrate(ctx, pgmigrations.FS, pgmigrations.Dir)
		},
	}
}
