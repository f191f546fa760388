package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicateName    = errors.New("category name already exists")
)

// InUseError blocks deleting a category that assets still point at.
type InUseError struct {
	Name  string
	Count int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("category %s is used by %d asset(s)", e.Name, e.Count)
}

type CategoryService struct {
	store        storage.Store
	inventoryLog *inventorylog.InventoryLog
}

func NewCategoryService(store storage.Store, inventoryLog *inventorylog.InventoryLog) *CategoryService {
	return &CategoryService{store: store, inventoryLog: inventoryLog}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) CreateCategory(ctx context.Context, actor models.Actor, req models.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation.Field("nama", "required")
	}

	category := &models.Category{ID: uuid.New().String(), Name: name}
	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		if err := q.InsertCategory(ctx, category); err != nil {
			return mapWriteError(err, name)
		}
		return s.inventoryLog.CreateCategoryLogEntry(ctx, q, actor, metadata.ActionCreateCategory, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory renames a category and every asset filed under its old
// name, in one transaction.
func (s *CategoryService) UpdateCategory(ctx context.Context, actor models.Actor, id string, req models.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation.Field("nama", "required")
	}

	var category *models.Category
	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		var err error
		category, err = q.GetCategory(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		if err != nil {
			return err
		}

		oldName := category.Name
		category.Name = name
		if err := q.UpdateCategory(ctx, category); err != nil {
			return mapWriteError(err, name)
		}
		if oldName != name {
			if _, err := q.RenameAssetCategory(ctx, oldName, name); err != nil {
				return fmt.Errorf("failed to rename category on assets: %w", err)
			}
		}

		return s.inventoryLog.CreateCategoryLogEntry(ctx, q, actor, metadata.ActionUpdateCategory, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, actor models.Actor, id string) error {
	return s.store.WithinTx(ctx, func(q storage.Queries) error {
		category, err := q.GetCategory(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		if err != nil {
			return err
		}

		count, err := q.CountAssetsByCategory(ctx, category.Name)
		if err != nil {
			return err
		}
		if count > 0 {
			return &InUseError{Name: category.Name, Count: count}
		}

		if err := q.DeleteCategory(ctx, id); err != nil {
			return err
		}
		return s.inventoryLog.CreateCategoryLogEntry(ctx, q, actor, metadata.ActionDeleteCategory, category)
	})
}

func mapWriteError(err error, name string) error {
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	return err
}
