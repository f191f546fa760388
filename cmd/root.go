package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/core/config"
	"github.com/aleciaid/crm-bj/internal/core/logger"
)

// loadConfig reads the configuration and builds the logger every command
// shares.
func loadConfig(validate func(*config.Config) error) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger.NewLogger(cfg.Log.Level), nil
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "crm-bj",
		Short:         "CIMBJ asset inventory and lending service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	MigrateCmd.Flags().String("dir", "", "Directory containing the migration files (defaults to MIGRATIONS_DIR)")
	ExportCmd.Flags().StringP("format", "f", "json", "Export format: json, sql, xlsx or csv (activity log only)")
	ExportCmd.Flags().StringP("out", "o", "", "Output file (defaults to the standard export file name)")
	ExportCmd.Flags().Bool("archive", false, "Upload a JSON export to the archive bucket instead of writing a file")
	ImportCmd.Flags().StringP("file", "i", "", "JSON export file to import")
	_ = ImportCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(ServeCmd, MigrateCmd, ExportCmd, ImportCmd)
	return rootCmd
}

func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
