// Package storage defines the persistence contract shared by the postgres
// repository and the in-memory driver.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with existing data")
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type AssetFilter struct {
	Status   metadata.AssetStatus
	Category string
	Search   string
}

type LoanFilter struct {
	Status     metadata.LoanStatus
	EmployeeID string
}

// LogFilter narrows a log listing. Search is a case-insensitive substring over
// details, action and user; Date is a YYYY-MM-DD day in UTC.
type LogFilter struct {
	Search string
	Action string
	User   string
	Date   string
}

type DeliveryFilter struct {
	Status    metadata.DeliveryStatus
	DueBefore *time.Time
	Limit     int
}

type AssetQueries interface {
	ListAssets(ctx context.Context, filter AssetFilter) ([]models.Asset, error)
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	// GetAssets returns the assets that exist among ids; missing ids are skipped.
	GetAssets(ctx context.Context, ids []string) ([]models.Asset, error)
	SKUExists(ctx context.Context, sku string, excludeID string) (bool, error)
	InsertAsset(ctx context.Context, asset *models.Asset) error
	UpdateAsset(ctx context.Context, asset *models.Asset) error
	DeleteAsset(ctx context.Context, id string) error
	// SetAssetStatus moves assets that are currently in from to status to and
	// returns how many moved. Moving to Dipinjam also requires qty > 0.
	SetAssetStatus(ctx context.Context, ids []string, from, to metadata.AssetStatus) (int64, error)
	CountAssetsByCategory(ctx context.Context, category string) (int, error)
	RenameAssetCategory(ctx context.Context, from, to string) (int64, error)
	ReplaceAssets(ctx context.Context, assets []models.Asset) error
}

type CategoryQueries interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	InsertCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
	ReplaceCategories(ctx context.Context, categories []models.Category) error
}

type LoanQueries interface {
	ListLoans(ctx context.Context, filter LoanFilter) ([]models.BorrowRecord, error)
	// GetLoan matches id case-insensitively.
	GetLoan(ctx context.Context, id string) (*models.BorrowRecord, error)
	InsertLoan(ctx context.Context, record *models.BorrowRecord) error
	// CloseLoan marks an active record returned; it returns 0 when the record
	// is missing or already returned.
	CloseLoan(ctx context.Context, id string, returnDate models.Date) (int64, error)
	ReplaceLoans(ctx context.Context, records []models.BorrowRecord) error
}

type AccountQueries interface {
	ListAccounts(ctx context.Context) ([]models.UserAccount, error)
	GetAccount(ctx context.Context, id string) (*models.UserAccount, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.UserAccount, error)
	CountAccounts(ctx context.Context) (int, error)
	InsertAccount(ctx context.Context, account *models.UserAccount) error
	UpdateAccount(ctx context.Context, account *models.UserAccount) error
	DeleteAccount(ctx context.Context, id string) error
}

type LogQueries interface {
	AppendLog(ctx context.Context, entry *models.LogEntry) error
	// ListLogs returns entries newest first.
	ListLogs(ctx context.Context, filter LogFilter) ([]models.LogEntry, error)
	GetLog(ctx context.Context, id string) (*models.LogEntry, error)
	UpdateLog(ctx context.Context, entry *models.LogEntry) error
	DeleteLog(ctx context.Context, id string) error
	ClearLogs(ctx context.Context) (int64, error)
	ReplaceLogs(ctx context.Context, entries []models.LogEntry) error
}

type WebhookQueries interface {
	// GetWebhookConfig returns an empty config when none was saved.
	GetWebhookConfig(ctx context.Context) (*models.WebhookConfig, error)
	SaveWebhookConfig(ctx context.Context, config *models.WebhookConfig) error
	EnqueueDelivery(ctx context.Context, delivery *models.WebhookDelivery) error
	GetDelivery(ctx context.Context, id string) (*models.WebhookDelivery, error)
	// ListDeliveries returns rows oldest first.
	ListDeliveries(ctx context.Context, filter DeliveryFilter) ([]models.WebhookDelivery, error)
	// ClaimDelivery moves the next attempt of a pending delivery that is due
	// at dueBefore to leaseUntil. It reports false when another worker got
	// there first or the delivery is no longer pending.
	ClaimDelivery(ctx context.Context, id string, dueBefore, leaseUntil time.Time) (bool, error)
	// UpdateDelivery records an attempt. Only pending rows change; a row that
	// was settled in the meantime yields ErrConflict.
	UpdateDelivery(ctx context.Context, delivery *models.WebhookDelivery) error
}

type Queries interface {
	AssetQueries
	CategoryQueries
	LoanQueries
	AccountQueries
	LogQueries
	WebhookQueries
}

// Store is Queries plus transactions. Everything fn does through q commits
// together or not at all.
type Store interface {
	Queries
	WithinTx(ctx context.Context, fn func(q Queries) error) error
}
