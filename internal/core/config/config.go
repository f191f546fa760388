package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aleciaid/crm-bj/internal/storage"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Log       LogConfig
	Webhooks  WebhookConfig
	Scheduler SchedulerConfig
	Archive   ArchiveConfig
}

type ServerConfig struct {
	Host string
}

type StorageConfig struct {
	Driver        string
	DatabaseURL   string
	MigrationsDir string
	AutoMigrate   bool
}

type AuthConfig struct {
	JWTSecret string
	JWTTTL    time.Duration
}

type LogConfig struct {
	Level string
}

type WebhookConfig struct {
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

type SchedulerConfig struct {
	WebhookDispatch string
	OverdueScan     string
}

// ArchiveConfig points at an S3-compatible bucket; an empty Endpoint
// disables archiving.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
	Region    string
}

func (a ArchiveConfig) Enabled() bool {
	return a.Endpoint != ""
}

var defaults = map[string]any{
	"APP_HOST":                  ":8080",
	"STORAGE_DRIVER":            storage.DriverPostgres,
	"MIGRATIONS_DIR":            "migrations",
	"AUTO_MIGRATE":              false,
	"JWT_TTL":                   "120h",
	"LOG_LEVEL":                 "info",
	"WEBHOOK_TIMEOUT":           "10s",
	"WEBHOOK_MAX_ATTEMPTS":      5,
	"WEBHOOK_BACKOFF_BASE":      "30s",
	"WEBHOOK_BACKOFF_CAP":       "1h",
	"WEBHOOK_DISPATCH_SCHEDULE": "@every 30s",
	"OVERDUE_SCAN_SCHEDULE":     "0 8 * * *",
	"ARCHIVE_PREFIX":            "exports",
	"ARCHIVE_USE_SSL":           true,
}

// Load reads .env (without overriding variables already set) and then the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range []string{
		"DATABASE_URL", "JWT_SECRET",
		"ARCHIVE_ENDPOINT", "ARCHIVE_ACCESS_KEY", "ARCHIVE_SECRET_KEY", "ARCHIVE_BUCKET", "ARCHIVE_REGION",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{Host: v.GetString("APP_HOST")},
		Storage: StorageConfig{
			Driver:        v.GetString("STORAGE_DRIVER"),
			DatabaseURL:   v.GetString("DATABASE_URL"),
			MigrationsDir: v.GetString("MIGRATIONS_DIR"),
			AutoMigrate:   v.GetBool("AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			JWTTTL:    v.GetDuration("JWT_TTL"),
		},
		Log: LogConfig{Level: v.GetString("LOG_LEVEL")},
		Webhooks: WebhookConfig{
			Timeout:     v.GetDuration("WEBHOOK_TIMEOUT"),
			MaxAttempts: v.GetInt("WEBHOOK_MAX_ATTEMPTS"),
			BackoffBase: v.GetDuration("WEBHOOK_BACKOFF_BASE"),
			BackoffCap:  v.GetDuration("WEBHOOK_BACKOFF_CAP"),
		},
		Scheduler: SchedulerConfig{
			WebhookDispatch: v.GetString("WEBHOOK_DISPATCH_SCHEDULE"),
			OverdueScan:     v.GetString("OVERDUE_SCAN_SCHEDULE"),
		},
		Archive: ArchiveConfig{
			Endpoint:  v.GetString("ARCHIVE_ENDPOINT"),
			AccessKey: v.GetString("ARCHIVE_ACCESS_KEY"),
			SecretKey: v.GetString("ARCHIVE_SECRET_KEY"),
			Bucket:    v.GetString("ARCHIVE_BUCKET"),
			Prefix:    v.GetString("ARCHIVE_PREFIX"),
			UseSSL:    v.GetBool("ARCHIVE_USE_SSL"),
			Region:    v.GetString("ARCHIVE_REGION"),
		},
	}, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case storage.DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	case storage.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	if c.Webhooks.MaxAttempts < 1 {
		errs = append(errs, errors.New("WEBHOOK_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Webhooks.Timeout <= 0 {
		errs = append(errs, errors.New("WEBHOOK_TIMEOUT must be positive"))
	}
	if c.Archive.Enabled() && c.Archive.Bucket == "" {
		errs = append(errs, errors.New("ARCHIVE_BUCKET is required when ARCHIVE_ENDPOINT is set"))
	}

	return errors.Join(errs...)
}

// ValidateServe adds the checks that only matter for the HTTP server.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}
