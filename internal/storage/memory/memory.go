// Package memory is a process-local storage.Store. Transactions work on a
// copy of the whole dataset and swap it in on commit.
package memory

import (
	"context"
	"sync"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
)

type dataset struct {
	assets     map[string]models.Asset
	categories map[string]models.Category
	loans      map[string]models.BorrowRecord
	accounts   map[string]models.UserAccount
	logs       map[string]models.LogEntry
	webhook    models.WebhookConfig
	deliveries map[string]models.WebhookDelivery
}

func newDataset() *dataset {
	return &dataset{
		assets:     map[string]models.Asset{},
		categories: map[string]models.Category{},
		loans:      map[string]models.BorrowRecord{},
		accounts:   map[string]models.UserAccount{},
		logs:       map[string]models.LogEntry{},
		deliveries: map[string]models.WebhookDelivery{},
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		assets:     cloneMap(d.assets, nil),
		categories: cloneMap(d.categories, nil),
		loans:      cloneMap(d.loans, cloneLoan),
		accounts:   cloneMap(d.accounts, nil),
		logs:       cloneMap(d.logs, nil),
		webhook:    d.webhook,
		deliveries: cloneMap(d.deliveries, cloneDelivery),
	}
	return c
}

func cloneMap[V any](src map[string]V, deep func(V) V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		if deep != nil {
			v = deep(v)
		}
		dst[k] = v
	}
	return dst
}

func cloneLoan(r models.BorrowRecord) models.BorrowRecord {
	r.Assets = append([]string{}, r.Assets...)
	if r.ReturnDate != nil {
		returned := *r.ReturnDate
		r.ReturnDate = &returned
	}
	return r
}

func cloneDelivery(d models.WebhookDelivery) models.WebhookDelivery {
	d.Payload = append([]byte(nil), d.Payload...)
	if d.DeliveredAt != nil {
		at := *d.DeliveredAt
		d.DeliveredAt = &at
	}
	return d
}

type Store struct {
	*queries
	mu   sync.Mutex
	data *dataset
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	s := &Store{data: newDataset()}
	s.queries = &queries{store: s}
	return s
}

// Ping always succeeds; the data lives in this process.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WithinTx holds the store lock for the duration of fn, so transactions are
// serialized against each other and against plain reads and writes.
func (s *Store) WithinTx(ctx context.Context, fn func(q storage.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&queries{store: s, tx: snapshot}); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

type queries struct {
	store *Store
	tx    *dataset
}

func (q *queries) acquire() (*dataset, func()) {
	if q.tx != nil {
		return q.tx, func() {}
	}
	q.store.mu.Lock()
	return q.store.data, q.store.mu.Unlock
}
