package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/aleciaid/crm-bj/internal/storage"
	custom_error "github.com/aleciaid/crm-bj/pkg/errors"
)

const dialect = "postgres"

// Repository is the postgres storage.Store. Plain calls run on the pool,
// WithinTx hands fn a queries value bound to one transaction.
type Repository struct {
	*queries
	DB            *sql.DB
	GoquDBWrapper *goqu.Database
}

var _ storage.Store = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	wrapper := goqu.New(dialect, db)
	return &Repository{
		queries:       &queries{db: wrapper},
		DB:            db,
		GoquDBWrapper: wrapper,
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r *Repository) WithinTx(ctx context.Context, fn func(q storage.Queries) error) error {
	return WithTransaction(ctx, r.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		return fn(&queries{db: tx})
	})
}

func WithTransaction(ctx context.Context, db *goqu.Database, fn func(tx *goqu.TxDatabase) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return
}

// queryRunner is the part of goqu shared by *goqu.Database and *goqu.TxDatabase.
type queryRunner interface {
	From(from ...interface{}) *goqu.SelectDataset
	Insert(table interface{}) *goqu.InsertDataset
	Update(table interface{}) *goqu.UpdateDataset
	Delete(table interface{}) *goqu.DeleteDataset
}

type queries struct {
	db queryRunner
}

// mapError converts driver errors into storage sentinels. Unique and foreign
// key violations surface as storage.ErrConflict.
func mapError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case custom_error.UniqueViolationCode, custom_error.ForeignKeyViolationCode:
			return fmt.Errorf("%w: %w", storage.ErrConflict, custom_error.WrapDBError(message, string(pqErr.Code)))
		}
	}

	return fmt.Errorf("%s: %w", message, err)
}

func rowsAffected(result sql.Result, message string) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to check rows affected: %w", message, err)
	}
	return n, nil
}

// requireOne turns a zero-row update or delete into storage.ErrNotFound.
func requireOne(result sql.Result, message string) error {
	n, err := rowsAffected(result, message)
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
