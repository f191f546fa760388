package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/auditlog"
	"github.com/aleciaid/crm-bj/internal/core/config"
	"github.com/aleciaid/crm-bj/internal/core/container"
	"github.com/aleciaid/crm-bj/internal/exchange"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const formatCSV = "csv"

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dataset to a file or to the archive bucket.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		archive, _ := cmd.Flags().GetBool("archive")

		app, log, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer app.Close()
		defer log.Sync()

		if archive {
			object, err := app.ExchangeService.Archive(ctx, models.SystemActor())
			if err != nil {
				return err
			}
			log.Info("Export archived", zap.String("object", object))
			return nil
		}

		if format == formatCSV {
			return exportLogs(ctx, app.Store, out)
		}

		parsed, err := exchange.ParseFormat(format)
		if err != nil {
			return err
		}
		if out == "" {
			out = parsed.Filename(time.Now())
		}

		return writeFile(out, func(w *bufio.Writer) error {
			return app.ExchangeService.Export(ctx, models.SystemActor(), parsed, w)
		})
	},
}

var ImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace assets, categories, borrows and logs from a JSON export.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		path, _ := cmd.Flags().GetString("file")

		app, log, err := openContainer(ctx)
		if err != nil {
			return err
		}
		defer app.Close()
		defer log.Sync()

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer file.Close()

		result, err := app.ExchangeService.Import(ctx, models.SystemActor(), filepath.Base(path), bufio.NewReader(file))
		if err != nil {
			return err
		}

		log.Info("Import finished",
			zap.Int("assets", result.Assets),
			zap.Int("categories", result.Categories),
			zap.Int("borrows", result.Borrows),
			zap.Int("logs", result.Logs),
		)
		return nil
	},
}

func openContainer(ctx context.Context) (*container.Container, *zap.Logger, error) {
	cfg, log, err := loadConfig((*config.Config).Validate)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Storage.Driver == storage.DriverMemory {
		return nil, nil, errors.New("export and import need a persistent storage driver")
	}

	app, err := container.NewAppContainer(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return app, log, nil
}

func exportLogs(ctx context.Context, store storage.Store, out string) error {
	entries, err := store.ListLogs(ctx, storage.LogFilter{})
	if err != nil {
		return err
	}
	if out == "" {
		out = "cimbj-logs-" + time.Now().Format(models.DateLayout) + ".csv"
	}
	return writeFile(out, func(w *bufio.Writer) error {
		return auditlog.WriteCSV(w, entries)
	})
}

func writeFile(path string, write func(w *bufio.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}
