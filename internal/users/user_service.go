package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/roles"
	"github.com/aleciaid/crm-bj/pkg/security"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrSelfModification  = errors.New("you cannot delete or deactivate your own account")
)

// defaultAccounts are created when the account table is empty.
var defaultAccounts = []struct {
	username string
	password string
	role     roles.Role
}{
	{"admin", "admin", roles.Admin},
	{"user", "user", roles.User},
}

type UserService struct {
	store        storage.Store
	inventoryLog *inventorylog.InventoryLog
	validate     *validation.Validator
	logger       *zap.Logger
	now          func() time.Time
}

func NewUserService(store storage.Store, inventoryLog *inventorylog.InventoryLog, logger *zap.Logger) *UserService {
	return &UserService{
		store:        store,
		inventoryLog: inventoryLog,
		validate:     validation.New(),
		logger:       logger,
		now:          time.Now,
	}
}

// SeedDefaults creates the admin/admin and user/user accounts when no
// account exists yet. It reports whether anything was created.
func (s *UserService) SeedDefaults(ctx context.Context) (bool, error) {
	seeded := false
	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		count, err := q.CountAccounts(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, d := range defaultAccounts {
			hash, err := security.HashPassword(d.password)
			if err != nil {
				return err
			}
			account := &models.UserAccount{
				ID:           uuid.New().String(),
				Username:     d.username,
				PasswordHash: hash,
				Role:         d.role,
				IsActive:     true,
				CreatedAt:    s.now().UTC(),
				CreatedBy:    models.SystemActor().Username,
			}
			if err := q.InsertAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to seed account %s: %w", d.username, err)
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if seeded {
		s.logger.Warn("Seeded default accounts admin/admin and user/user, change their passwords", zap.Int("accounts", len(defaultAccounts)))
	}
	return seeded, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.UserAccount, error) {
	return s.store.ListAccounts(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.UserAccount, error) {
	account, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return account, err
}

func (s *UserService) CreateUser(ctx context.Context, actor models.Actor, req models.CreateUserRequest) (*models.UserAccount, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.UserAccount{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     req.IsActive == nil || *req.IsActive,
		CreatedAt:    s.now().UTC(),
		CreatedBy:    actor.Username,
	}

	err = s.store.WithinTx(ctx, func(q storage.Queries) error {
		if err := q.InsertAccount(ctx, account); err != nil {
			return mapWriteError(err, account.Username)
		}
		return s.inventoryLog.CreateAccountLogEntry(ctx, q, actor, metadata.ActionCreateUser, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *UserService) UpdateUser(ctx context.Context, actor models.Actor, id string, req models.UpdateUserRequest) (*models.UserAccount, error) {
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.IsActive != nil && !*req.IsActive && id == actor.UserID {
		return nil, ErrSelfModification
	}

	var passwordHash string
	if req.Password != nil && *req.Password != "" {
		var err error
		if passwordHash, err = security.HashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	var account *models.UserAccount
	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		var err error
		account, err = loadAccount(ctx, q, id)
		if err != nil {
			return err
		}

		if req.Username != nil {
			account.Username = *req.Username
		}
		if req.Role != nil {
			account.Role = *req.Role
		}
		if req.IsActive != nil {
			account.IsActive = *req.IsActive
		}
		if passwordHash != "" {
			account.PasswordHash = passwordHash
		}

		if err := q.UpdateAccount(ctx, account); err != nil {
			return mapWriteError(err, account.Username)
		}
		return s.inventoryLog.CreateAccountLogEntry(ctx, q, actor, metadata.ActionUpdateUser, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ToggleStatus flips isActive. Admins cannot deactivate themselves.
func (s *UserService) ToggleStatus(ctx context.Context, actor models.Actor, id string) (*models.UserAccount, error) {
	if id == actor.UserID {
		return nil, ErrSelfModification
	}

	var account *models.UserAccount
	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		var err error
		account, err = loadAccount(ctx, q, id)
		if err != nil {
			return err
		}

		account.IsActive = !account.IsActive
		if err := q.UpdateAccount(ctx, account); err != nil {
			return err
		}
		return s.inventoryLog.CreateAccountLogEntry(ctx, q, actor, metadata.ActionToggleUserStatus, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor models.Actor, id string) error {
	if id == actor.UserID {
		return ErrSelfModification
	}

	return s.store.WithinTx(ctx, func(q storage.Queries) error {
		account, err := loadAccount(ctx, q, id)
		if err != nil {
			return err
		}
		if err := q.DeleteAccount(ctx, id); err != nil {
			return err
		}
		return s.inventoryLog.CreateAccountLogEntry(ctx, q, actor, metadata.ActionDeleteUser, account)
	})
}

func loadAccount(ctx context.Context, q storage.AccountQueries, id string) (*models.UserAccount, error) {
	account, err := q.GetAccount(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return account, err
}

func mapWriteError(err error, username string) error {
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	}
	return err
}
