package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

type Auditlog struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewAuditLog(logger *zap.Logger) *Auditlog {
	return &Auditlog{logger: logger, now: time.Now}
}

// WithClock replaces the timestamp source.
func (a *Auditlog) WithClock(now func() time.Time) *Auditlog {
	a.now = now
	return a
}

// Append writes an entry through q, so inside a transaction it commits or
// rolls back together with the change it describes.
func (a *Auditlog) Append(ctx context.Context, q storage.LogQueries, user string, action metadata.Action, details string) (*models.LogEntry, error) {
	entry := &models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: a.now().UTC(),
		User:      user,
		Action:    action.String(),
		Details:   details,
	}

	if err := q.AppendLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("append %q log entry: %w", action, err)
	}

	a.logger.Debug("Activity logged",
		zap.String("user", user),
		zap.String("action", entry.Action),
		zap.String("id", entry.ID),
	)

	return entry, nil
}

// Log is Append for entries whose loss must not fail the caller, such as
// webhook outcomes recorded after the main transaction committed.
func (a *Auditlog) Log(ctx context.Context, q storage.LogQueries, user string, action metadata.Action, details string) {
	if _, err := a.Append(ctx, q, user, action, details); err != nil {
		a.logger.Warn("Unable to create activity log entry",
			zap.String("action", action.String()),
			zap.Error(err),
		)
	}
}
