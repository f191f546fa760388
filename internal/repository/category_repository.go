package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const categoriesTable = "categories"

func (q *queries) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := q.db.From(categoriesTable).Order(goqu.C("nama").Asc()).ScanStructsContext(ctx, &categories); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return categories, nil
}

func (q *queries) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return q.scanCategory(ctx, goqu.Ex{"id": id})
}

func (q *queries) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	return q.scanCategory(ctx, goqu.Func("LOWER", goqu.C("nama")).Eq(strings.ToLower(name)))
}

func (q *queries) scanCategory(ctx context.Context, condition exp.Expression) (*models.Category, error) {
	var category models.Category
	found, err := q.db.From(categoriesTable).Where(condition).ScanStructContext(ctx, &category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category: %w", err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	return &category, nil
}

func (q *queries) InsertCategory(ctx context.Context, category *models.Category) error {
	_, err := q.db.Insert(categoriesTable).
		Rows(goqu.Record{"id": category.ID, "nama": category.Name}).
		Executor().
		ExecContext(ctx)
	return mapError(err, "duplicate category name")
}

func (q *queries) UpdateCategory(ctx context.Context, category *models.Category) error {
	result, err := q.db.Update(categoriesTable).
		Set(goqu.Record{"nama": category.Name}).
		Where(goqu.Ex{"id": category.ID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return mapError(err, "duplicate category name")
	}

	return requireOne(result, "failed to update category")
}

func (q *queries) DeleteCategory(ctx context.Context, id string) error {
	result, err := q.db.Delete(categoriesTable).Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx)
	if err != nil {
		return mapError(err, "failed to delete category")
	}

	return requireOne(result, "failed to delete category")
}

func (q *queries) ReplaceCategories(ctx context.Context, categories []models.Category) error {
	if _, err := q.db.Delete(categoriesTable).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	if len(categories) == 0 {
		return nil
	}

	records := make([]goqu.Record, 0, len(categories))
	for _, c := range categories {
		records = append(records, goqu.Record{"id": c.ID, "nama": c.Name})
	}

	_, err := q.db.Insert(categoriesTable).Rows(records).Executor().ExecContext(ctx)
	return mapError(err, "failed to insert imported categories")
}
