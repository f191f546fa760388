package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const accountsTable = "accounts"

func (q *queries) ListAccounts(ctx context.Context) ([]models.UserAccount, error) {
	accounts := []models.UserAccount{}
	err := q.db.From(accountsTable).
		Order(goqu.C("created_at").Asc(), goqu.C("username").Asc()).
		ScanStructsContext(ctx, &accounts)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return accounts, nil
}

func (q *queries) GetAccount(ctx context.Context, id string) (*models.UserAccount, error) {
	return q.scanAccount(ctx, goqu.Ex{"id": id})
}

func (q *queries) GetAccountByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	return q.scanAccount(ctx, goqu.Ex{"username": username})
}

func (q *queries) scanAccount(ctx context.Context, condition goqu.Ex) (*models.UserAccount, error) {
	var account models.UserAccount
	found, err := q.db.From(accountsTable).Where(condition).ScanStructContext(ctx, &account)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	return &account, nil
}

func (q *queries) CountAccounts(ctx context.Context) (int, error) {
	count, err := q.db.From(accountsTable).CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	return int(count), nil
}

func (q *queries) InsertAccount(ctx context.Context, account *models.UserAccount) error {
	_, err := q.db.Insert(accountsTable).
		Rows(goqu.Record{
			"id":            account.ID,
			"username":      account.Username,
			"password_hash": account.PasswordHash,
			"role":          string(account.Role),
			"is_active":     account.IsActive,
			"created_at":    account.CreatedAt,
			"created_by":    account.CreatedBy,
		}).
		Executor().
		ExecContext(ctx)
	return mapError(err, "duplicate username")
}

func (q *queries) UpdateAccount(ctx context.Context, account *models.UserAccount) error {
	result, err := q.db.Update(accountsTable).
		Set(goqu.Record{
			"username":      account.Username,
			"password_hash": account.PasswordHash,
			"role":          string(account.Role),
			"is_active":     account.IsActive,
		}).
		Where(goqu.Ex{"id": account.ID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return mapError(err, "duplicate username")
	}

	return requireOne(result, "failed to update account")
}

func (q *queries) DeleteAccount(ctx context.Context, id string) error {
	result, err := q.db.Delete(accountsTable).Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx)
	if err != nil {
		return mapError(err, "failed to delete account")
	}

	return requireOne(result, "failed to delete account")
}
