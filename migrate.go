package main

import (
	"fmt"

	dbadapter "github.com/arenaforge/gameapi/db"
	"github.com/arenaforge/gameapi/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			db, err := dbadapter.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			if err := model.AutoMigrate(db); err != nil {
				return fmt.Errorf("db migrate: %w", err)
			}
			logger.Info("schema migrated", zap.String("mode", cfg.Database.Mode))
			return nil
		},
	}
}
