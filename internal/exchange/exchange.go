// Package exchange moves the whole dataset in and out of the service: JSON,
// SQL and XLSX exports, JSON imports and archive uploads.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

var (
	ErrInvalidImport   = errors.New("invalid import file")
	ErrArchiveDisabled = errors.New("archive storage is not configured")
)

// requiredKeys must all be present and non-null in an import file.
var requiredKeys = []string{"assets", "categories", "borrows", "logs"}

type Format string

const (
	FormatJSON Format = "json"
	FormatSQL  Format = "sql"
	FormatXLSX Format = "xlsx"
)

// Filename is the download name of an export taken at t.
func (f Format) Filename(t time.Time) string {
	day := t.Format(models.DateLayout)
	switch f {
	case FormatSQL:
		return "cimbj-database-" + day + ".sql"
	case FormatXLSX:
		return "cimbj-data-" + day + ".xlsx"
	default:
		return "cimbj-data-" + day + ".json"
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatSQL:
		return "application/sql"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

func (f Format) action() metadata.Action {
	switch f {
	case FormatSQL:
		return metadata.ActionExportSQL
	case FormatXLSX:
		return metadata.ActionExportXLSX
	default:
		return metadata.ActionExport
	}
}

func ParseFormat(value string) (Format, error) {
	switch f := Format(value); f {
	case FormatJSON, FormatSQL, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

type ImportResult struct {
	Assets     int `json:"assets"`
	Categories int `json:"categories"`
	Borrows    int `json:"borrows"`
	Logs       int `json:"logs"`
}

type Service struct {
	store        storage.Store
	inventoryLog *inventorylog.InventoryLog
	archiver     Archiver
	logger       *zap.Logger
	now          func() time.Time
}

// NewService builds the exchange service; archiver may be nil when no
// bucket is configured.
func NewService(store storage.Store, inventoryLog *inventorylog.InventoryLog, archiver Archiver, logger *zap.Logger) *Service {
	return &Service{
		store:        store,
		inventoryLog: inventoryLog,
		archiver:     archiver,
		logger:       logger,
		now:          time.Now,
	}
}

// Export writes the dataset in the given format and logs the export in the
// same transaction that read it.
func (s *Service) Export(ctx context.Context, actor models.Actor, format Format, w io.Writer) error {
	bundle, err := s.snapshot(ctx, actor, format.action(), "")
	if err != nil {
		return err
	}
	return Write(w, format, bundle)
}

// Write renders bundle in format.
func Write(w io.Writer, format Format, bundle *models.ExportBundle) error {
	switch format {
	case FormatSQL:
		return WriteSQL(w, bundle)
	case FormatXLSX:
		return WriteXLSX(w, bundle)
	default:
		return WriteJSON(w, bundle)
	}
}

// Archive uploads a JSON export to the configured bucket and returns the
// object name.
func (s *Service) Archive(ctx context.Context, actor models.Actor) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveDisabled
	}

	name := FormatJSON.Filename(s.now())
	bundle, err := s.snapshot(ctx, actor, metadata.ActionArchiveExport, name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, bundle); err != nil {
		return "", err
	}

	object, err := s.archiver.Upload(ctx, name, &buf, int64(buf.Len()), FormatJSON.ContentType())
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	s.logger.Info("Export archived", zap.String("object", object), zap.Int("bytes", buf.Len()))
	return object, nil
}

// Import replaces assets, categories, borrows and logs with the content of
// r. Accounts and webhook settings are left alone.
func (s *Service) Import(ctx context.Context, actor models.Actor, source string, r io.Reader) (*ImportResult, error) {
	bundle, err := DecodeImport(r)
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(q storage.Queries) error {
		if err := q.ReplaceCategories(ctx, bundle.Categories); err != nil {
			return fmt.Errorf("failed to import categories: %w", err)
		}
		if err := q.ReplaceAssets(ctx, bundle.Assets); err != nil {
			return fmt.Errorf("failed to import assets: %w", err)
		}
		if err := q.ReplaceLoans(ctx, bundle.Borrows); err != nil {
			return fmt.Errorf("failed to import borrows: %w", err)
		}
		if err := q.ReplaceLogs(ctx, bundle.Logs); err != nil {
			return fmt.Errorf("failed to import logs: %w", err)
		}
		return s.inventoryLog.CreateExchangeLogEntry(ctx, q, actor, metadata.ActionImport, source)
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Assets:     len(bundle.Assets),
		Categories: len(bundle.Categories),
		Borrows:    len(bundle.Borrows),
		Logs:       len(bundle.Logs),
	}, nil
}

func (s *Service) snapshot(ctx context.Context, actor models.Actor, action metadata.Action, subject string) (*models.ExportBundle, error) {
	bundle := &models.ExportBundle{ExportDate: s.now().UTC()}

	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		var err error
		if bundle.Assets, err = q.ListAssets(ctx, storage.AssetFilter{}); err != nil {
			return err
		}
		if bundle.Categories, err = q.ListCategories(ctx); err != nil {
			return err
		}
		if bundle.Borrows, err = q.ListLoans(ctx, storage.LoanFilter{}); err != nil {
			return err
		}
		if bundle.Logs, err = q.ListLogs(ctx, storage.LogFilter{}); err != nil {
			return err
		}
		return s.inventoryLog.CreateExchangeLogEntry(ctx, q, actor, action, subject)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read export data: %w", err)
	}
	return bundle, nil
}

func WriteJSON(w io.Writer, bundle *models.ExportBundle) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(bundle)
}

// DecodeImport parses an export file, rejecting files that miss any of the
// four collections.
func DecodeImport(r io.Reader) (*models.ExportBundle, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	for _, key := range requiredKeys {
		value, ok := raw[key]
		if !ok || string(value) == "null" {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidImport, key)
		}
	}

	bundle := &models.ExportBundle{}
	targets := map[string]any{
		"assets":     &bundle.Assets,
		"categories": &bundle.Categories,
		"borrows":    &bundle.Borrows,
		"logs":       &bundle.Logs,
	}
	for _, key := range requiredKeys {
		if err := json.Unmarshal(raw[key], targets[key]); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidImport, key, err)
		}
	}
	for i := range bundle.Borrows {
		if bundle.Borrows[i].Assets == nil {
			bundle.Borrows[i].Assets = []string{}
		}
	}

	return bundle, nil
}
