package memory

import (
	"context"
	"sort"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
)

func (q *queries) ListAccounts(_ context.Context) ([]models.UserAccount, error) {
	d, release := q.acquire()
	defer release()

	accounts := make([]models.UserAccount, 0, len(d.accounts))
	for _, a := range d.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].Username < accounts[j].Username
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (q *queries) GetAccount(_ context.Context, id string) (*models.UserAccount, error) {
	d, release := q.acquire()
	defer release()

	a, ok := d.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (q *queries) GetAccountByUsername(_ context.Context, username string) (*models.UserAccount, error) {
	d, release := q.acquire()
	defer release()

	for _, a := range d.accounts {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (q *queries) CountAccounts(_ context.Context) (int, error) {
	d, release := q.acquire()
	defer release()

	return len(d.accounts), nil
}

func (q *queries) InsertAccount(_ context.Context, account *models.UserAccount) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.accounts[account.ID]; ok || usernameTaken(d, account) {
		return storage.ErrConflict
	}
	d.accounts[account.ID] = *account
	return nil
}

func (q *queries) UpdateAccount(_ context.Context, account *models.UserAccount) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.accounts[account.ID]; !ok {
		return storage.ErrNotFound
	}
	if usernameTaken(d, account) {
		return storage.ErrConflict
	}
	d.accounts[account.ID] = *account
	return nil
}

func (q *queries) DeleteAccount(_ context.Context, id string) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.accounts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(d.accounts, id)
	return nil
}

func usernameTaken(d *dataset, account *models.UserAccount) bool {
	for _, a := range d.accounts {
		if a.ID != account.ID && a.Username == account.Username {
			return true
		}
	}
	return false
}
