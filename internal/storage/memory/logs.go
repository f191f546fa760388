package memory

import (
	"context"
	"sort"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
)

func (q *queries) AppendLog(_ context.Context, entry *models.LogEntry) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.logs[entry.ID]; ok {
		return storage.ErrConflict
	}
	d.logs[entry.ID] = *entry
	return nil
}

func (q *queries) ListLogs(_ context.Context, filter storage.LogFilter) ([]models.LogEntry, error) {
	d, release := q.acquire()
	defer release()

	entries := make([]models.LogEntry, 0, len(d.logs))
	for _, e := range d.logs {
		if filter.Matches(&e) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (q *queries) GetLog(_ context.Context, id string) (*models.LogEntry, error) {
	d, release := q.acquire()
	defer release()

	e, ok := d.logs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (q *queries) UpdateLog(_ context.Context, entry *models.LogEntry) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.logs[entry.ID]; !ok {
		return storage.ErrNotFound
	}
	d.logs[entry.ID] = *entry
	return nil
}

func (q *queries) DeleteLog(_ context.Context, id string) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.logs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(d.logs, id)
	return nil
}

func (q *queries) ClearLogs(_ context.Context) (int64, error) {
	d, release := q.acquire()
	defer release()

	cleared := int64(len(d.logs))
	d.logs = map[string]models.LogEntry{}
	return cleared, nil
}

func (q *queries) ReplaceLogs(_ context.Context, entries []models.LogEntry) error {
	d, release := q.acquire()
	defer release()

	d.logs = make(map[string]models.LogEntry, len(entries))
	for _, e := range entries {
		d.logs[e.ID] = e
	}
	return nil
}
