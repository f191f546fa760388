package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const logsTable = "activity_logs"

func logRecord(e *models.LogEntry) goqu.Record {
	return goqu.Record{
		"id":        e.ID,
		"timestamp": e.Timestamp,
		"user_name": e.User,
		"action":    e.Action,
		"details":   e.Details,
	}
}

func (q *queries) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	_, err := q.db.Insert(logsTable).Rows(logRecord(entry)).Executor().ExecContext(ctx)
	return mapError(err, "failed to insert log entry")
}

func (q *queries) ListLogs(ctx context.Context, filter storage.LogFilter) ([]models.LogEntry, error) {
	builder := NewQueryBuilder()
	builder.AddCondition("action", filter.Action)
	builder.AddCondition("user", filter.User)

	query := q.db.From(logsTable).Where(builder.BuildConditions(map[string]string{"user": "user_name"}))

	if filter.Date != "" {
		if start, end, ok := filter.DayRange(); ok {
			query = query.Where(goqu.C("timestamp").Gte(start), goqu.C("timestamp").Lt(end))
		} else {
			query = query.Where(goqu.L(`to_char(? AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS') LIKE ?`, goqu.C("timestamp"), filter.Date+"%"))
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(goqu.Or(
			goqu.C("details").ILike(pattern),
			goqu.C("action").ILike(pattern),
			goqu.C("user_name").ILike(pattern),
		))
	}

	entries := []models.LogEntry{}
	if err := query.Order(goqu.C("timestamp").Desc(), goqu.C("id").Desc()).ScanStructsContext(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return entries, nil
}

func (q *queries) GetLog(ctx context.Context, id string) (*models.LogEntry, error) {
	var entry models.LogEntry
	found, err := q.db.From(logsTable).Where(goqu.Ex{"id": id}).ScanStructContext(ctx, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch log entry: %w", err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	return &entry, nil
}

func (q *queries) UpdateLog(ctx context.Context, entry *models.LogEntry) error {
	result, err := q.db.Update(logsTable).
		Set(goqu.Record{"action": entry.Action, "details": entry.Details}).
		Where(goqu.Ex{"id": entry.ID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update log entry: %w", err)
	}

	return requireOne(result, "failed to update log entry")
}

func (q *queries) DeleteLog(ctx context.Context, id string) error {
	result, err := q.db.Delete(logsTable).Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete log entry: %w", err)
	}

	return requireOne(result, "failed to delete log entry")
}

func (q *queries) ClearLogs(ctx context.Context) (int64, error) {
	result, err := q.db.Delete(logsTable).Executor().ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear logs: %w", err)
	}

	return rowsAffected(result, "failed to clear logs")
}

func (q *queries) ReplaceLogs(ctx context.Context, entries []models.LogEntry) error {
	if _, err := q.ClearLogs(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	records := make([]goqu.Record, 0, len(entries))
	for i := range entries {
		records = append(records, logRecord(&entries[i]))
	}

	_, err := q.db.Insert(logsTable).Rows(records).Executor().ExecContext(ctx)
	return mapError(err, "failed to insert imported logs")
}
