package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

func (q *queries) ListLoans(_ context.Context, filter storage.LoanFilter) ([]models.BorrowRecord, error) {
	d, release := q.acquire()
	defer release()

	records := make([]models.BorrowRecord, 0, len(d.loans))
	for _, r := range d.loans {
		if filter.Matches(&r) {
			records = append(records, cloneLoan(r))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].BorrowDate.Equal(records[j].BorrowDate.Time) {
			return records[i].BorrowDate.After(records[j].BorrowDate.Time)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func (q *queries) GetLoan(_ context.Context, id string) (*models.BorrowRecord, error) {
	d, release := q.acquire()
	defer release()

	r, ok := findLoan(d, id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	r = cloneLoan(r)
	return &r, nil
}

func (q *queries) InsertLoan(_ context.Context, record *models.BorrowRecord) error {
	d, release := q.acquire()
	defer release()

	if _, ok := findLoan(d, record.ID); ok {
		return storage.ErrConflict
	}
	d.loans[record.ID] = cloneLoan(*record)
	return nil
}

func (q *queries) CloseLoan(_ context.Context, id string, returnDate models.Date) (int64, error) {
	d, release := q.acquire()
	defer release()

	r, ok := findLoan(d, id)
	if !ok || !r.Status.CanTransitionTo(metadata.LoanReturned) {
		return 0, nil
	}
	r.Status = metadata.LoanReturned
	r.ReturnDate = &returnDate
	d.loans[r.ID] = r
	return 1, nil
}

func (q *queries) ReplaceLoans(_ context.Context, records []models.BorrowRecord) error {
	d, release := q.acquire()
	defer release()

	d.loans = make(map[string]models.BorrowRecord, len(records))
	for _, r := range records {
		d.loans[r.ID] = cloneLoan(r)
	}
	return nil
}

func findLoan(d *dataset, id string) (models.BorrowRecord, bool) {
	if r, ok := d.loans[id]; ok {
		return r, true
	}
	for key, r := range d.loans {
		if strings.EqualFold(key, id) {
			return r, true
		}
	}
	return models.BorrowRecord{}, false
}
