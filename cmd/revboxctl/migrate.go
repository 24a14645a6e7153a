package main

import (
	"fmt"

	"github.com/smallbiznis/revbox/internal/config"
	"github.com/smallbiznis/revbox/internal/migration"
	"github.com/smallbiznis/revbox/pkg/db"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations using the service configuration",
		Long: `Migrate connects with the same DATABASE_* environment (and .env file) as
the service and brings the schema up to date. Postgres applies the embedded
SQL migrations; sqlite and mysql use gorm AutoMigrate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			cfg := config.Load()
			conn, err := db.Open(nil, cfg.Database, log)
			if err != nil {
				return err
			}
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := sqlDB.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("connect %s database: %w", cfg.Database.Type, err)
			}
			if err := migration.Run(conn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", conn.Dialector.Name())
			return nil
		},
	}
}
