package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aleciaid/crm-bj/internal/core/config"
	"github.com/aleciaid/crm-bj/internal/database/migration"
	"github.com/aleciaid/crm-bj/internal/storage"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig((*config.Config).Validate)
		if err != nil {
			return err
		}
		defer log.Sync()

		if cfg.Storage.Driver != storage.DriverPostgres {
			return errors.New("migrations only apply to the postgres storage driver")
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Storage.MigrationsDir
		}
		source, err := migration.SourceURL(dir)
		if err != nil {
			return err
		}

		if err := migration.Migrate(cfg.Storage.DatabaseURL, source, true, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		return nil
	},
}
