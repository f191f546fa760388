package auditlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

var ErrLogNotFound = errors.New("log entry not found")

const csvTimestampLayout = "02/01/2006 15.04.05"

// LogService is the read and maintenance side of the activity log; entries
// are written by pkg/auditlog.
type LogService struct {
	store storage.Store
}

func NewLogService(store storage.Store) *LogService {
	return &LogService{store: store}
}

func (s *LogService) ListLogs(ctx context.Context, filter storage.LogFilter) ([]models.LogEntry, error) {
	return s.store.ListLogs(ctx, filter)
}

func (s *LogService) UpdateLog(ctx context.Context, id string, changes models.LogChanges) (*models.LogEntry, error) {
	if !changes.HasChanges() {
		return nil, validation.Field("action", "required_without")
	}
	if changes.Action != nil && metadata.NewAction(*changes.Action) == "" {
		return nil, validation.Field("action", "required")
	}

	var entry *models.LogEntry
	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		var err error
		entry, err = q.GetLog(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrLogNotFound, id)
		}
		if err != nil {
			return err
		}

		if changes.Action != nil {
			entry.Action = metadata.NewAction(*changes.Action).String()
		}
		if changes.Details != nil {
			entry.Details = *changes.Details
		}
		return q.UpdateLog(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *LogService) DeleteLog(ctx context.Context, id string) error {
	err := s.store.DeleteLog(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrLogNotFound, id)
	}
	return err
}

func (s *LogService) ClearLogs(ctx context.Context) (int64, error) {
	return s.store.ClearLogs(ctx)
}

// WriteCSV writes entries as Timestamp,User,Action,Details. Only the details
// column is quoted, with inner quotes doubled.
func WriteCSV(w io.Writer, entries []models.LogEntry) error {
	var b strings.Builder
	b.WriteString("Timestamp,User,Action,Details")
	for _, e := range entries {
		b.WriteByte('\n')
		b.WriteString(e.Timestamp.In(time.Local).Format(csvTimestampLayout))
		b.WriteByte(',')
		b.WriteString(e.User)
		b.WriteByte(',')
		b.WriteString(e.Action)
		b.WriteString(`,"`)
		b.WriteString(strings.ReplaceAll(e.Details, `"`, `""`))
		b.WriteByte('"')
	}

	_, err := io.WriteString(w, b.String())
	return err
}
