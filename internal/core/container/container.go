package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	internalAuditlog "github.com/aleciaid/crm-bj/internal/auditlog"
	"github.com/aleciaid/crm-bj/internal/core/config"
	"github.com/aleciaid/crm-bj/internal/database"
	"github.com/aleciaid/crm-bj/internal/database/migration"
	"github.com/aleciaid/crm-bj/internal/exchange"
	"github.com/aleciaid/crm-bj/internal/inventory/assets"
	"github.com/aleciaid/crm-bj/internal/inventory/category"
	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/inventory/loans"
	"github.com/aleciaid/crm-bj/internal/middleware"
	"github.com/aleciaid/crm-bj/internal/rate_limiter"
	"github.com/aleciaid/crm-bj/internal/repository"
	"github.com/aleciaid/crm-bj/internal/scheduler"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/internal/storage/memory"
	"github.com/aleciaid/crm-bj/internal/users"
	"github.com/aleciaid/crm-bj/internal/webhooks"
	"github.com/aleciaid/crm-bj/pkg/auditlog"
	"github.com/aleciaid/crm-bj/pkg/security"
)

const Version = "1.0.0"

// Login attempts allowed per client and window.
const (
	loginAttempts = 10
	loginWindow   = 5 * time.Minute
)

type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        storage.Store
	InventoryLog *inventorylog.InventoryLog
	Tokens       *security.TokenIssuer
	RateLimiter  *rate_limiter.RateLimiter
	Health       *middleware.Health

	UserService     *users.UserService
	LoanService     *loans.LoanService
	Dispatcher      *webhooks.Dispatcher
	ExchangeService *exchange.Service

	LoginHandler    *security.LoginHandler
	UserHandler     *users.UsersHandler
	AssetHandler    *assets.AssetHandler
	CategoryHandler *category.CategoryHandler
	LoanHandler     *loans.LoanHandler
	GuestHandler    *loans.GuestHandler
	LogHandler      *internalAuditlog.LogHandler
	WebhookHandler  *webhooks.WebhookHandler
	ExchangeHandler *exchange.ExchangeHandler

	db *sql.DB
}

// OpenStore returns the store selected by cfg.Storage.Driver. The postgres
// store is migrated first when AutoMigrate is set.
func OpenStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Store, *sql.DB, error) {
	switch cfg.Driver {
	case storage.DriverMemory:
		logger.Warn("Using in-memory storage, data is lost on exit")
		return memory.NewStore(), nil, nil
	case storage.DriverPostgres:
		if cfg.AutoMigrate {
			source, err := migration.SourceURL(cfg.MigrationsDir)
			if err != nil {
				return nil, nil, err
			}
			if err := migration.Migrate(cfg.DatabaseURL, source, false, logger); err != nil {
				return nil, nil, fmt.Errorf("migrate database: %w", err)
			}
		}

		db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to the database")
		return repository.NewRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func NewAppContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	store, db, err := OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	bucket, err := exchange.NewBucketArchiver(cfg.Archive)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	var archiver exchange.Archiver
	if bucket != nil {
		archiver = bucket
	}

	return build(cfg, logger, store, db, archiver), nil
}

// NewWithStore wires the container around an existing store. Used by tests
// and by commands that do not need a server.
func NewWithStore(cfg *config.Config, logger *zap.Logger, store storage.Store) *Container {
	return build(cfg, logger, store, nil, nil)
}

func build(cfg *config.Config, logger *zap.Logger, store storage.Store, db *sql.DB, archiver exchange.Archiver) *Container {
	inventoryLog := inventorylog.NewInventoryLog(auditlog.NewAuditLog(logger))
	tokens := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	limiter := rate_limiter.NewRateLimiter(loginAttempts, loginWindow)

	sender := webhooks.NewSender(cfg.Webhooks.Timeout)
	dispatcher := webhooks.NewDispatcher(store, sender, inventoryLog, webhooks.Options{
		MaxAttempts: cfg.Webhooks.MaxAttempts,
		BackoffBase: cfg.Webhooks.BackoffBase,
		BackoffCap:  cfg.Webhooks.BackoffCap,
	}, logger)
	webhookConfig := webhooks.NewConfigService(store, sender, inventoryLog)

	userService := users.NewUserService(store, inventoryLog, logger)
	loanService := loans.NewLoanService(store, inventoryLog, dispatcher, logger, nil)
	assetService := assets.NewAssetService(store, inventoryLog)
	categoryService := category.NewCategoryService(store, inventoryLog)
	logService := internalAuditlog.NewLogService(store)

	exchangeService := exchange.NewService(store, inventoryLog, archiver, logger)

	var pinger middleware.Pinger
	if p, ok := store.(middleware.Pinger); ok {
		pinger = p
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		InventoryLog: inventoryLog,
		Tokens:       tokens,
		RateLimiter:  limiter,
		Health:       middleware.NewHealth(pinger, Version, logger),

		UserService:     userService,
		LoanService:     loanService,
		Dispatcher:      dispatcher,
		ExchangeService: exchangeService,

		LoginHandler:    security.NewLoginHandler(store, tokens, limiter, inventoryLog, logger),
		UserHandler:     users.NewHandler(userService, logger),
		AssetHandler:    assets.NewAssetHandler(assetService, logger),
		CategoryHandler: category.NewCategoryHandler(categoryService, logger),
		LoanHandler:     loans.NewLoanHandler(loanService, logger),
		GuestHandler:    loans.NewGuestHandler(loanService, store, logger),
		LogHandler:      internalAuditlog.NewLogHandler(logService, logger),
		WebhookHandler:  webhooks.NewWebhookHandler(webhookConfig, dispatcher, logger),
		ExchangeHandler: exchange.NewExchangeHandler(exchangeService, logger),

		db: db,
	}
}

// NewScheduler registers the background jobs on their configured schedules.
func (c *Container) NewScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(c.Logger, 5*time.Minute)
	if err := s.Add(scheduler.JobWebhookDispatch, c.Config.Scheduler.WebhookDispatch,
		scheduler.WebhookDispatchJob(c.Dispatcher, c.Logger)); err != nil {
		return nil, err
	}
	if err := s.Add(scheduler.JobOverdueScan, c.Config.Scheduler.OverdueScan,
		scheduler.OverdueScanJob(c.LoanService, c.Logger)); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Container) Close() {
	c.RateLimiter.Stop()
	closeDB(c.db)
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}
