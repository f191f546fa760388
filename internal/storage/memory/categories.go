package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
)

func (q *queries) ListCategories(_ context.Context) ([]models.Category, error) {
	d, release := q.acquire()
	defer release()

	categories := make([]models.Category, 0, len(d.categories))
	for _, c := range d.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (q *queries) GetCategory(_ context.Context, id string) (*models.Category, error) {
	d, release := q.acquire()
	defer release()

	c, ok := d.categories[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

func (q *queries) GetCategoryByName(_ context.Context, name string) (*models.Category, error) {
	d, release := q.acquire()
	defer release()

	for _, c := range d.categories {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (q *queries) InsertCategory(_ context.Context, category *models.Category) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.categories[category.ID]; ok || categoryNameTaken(d, category) {
		return storage.ErrConflict
	}
	d.categories[category.ID] = *category
	return nil
}

func (q *queries) UpdateCategory(_ context.Context, category *models.Category) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.categories[category.ID]; !ok {
		return storage.ErrNotFound
	}
	if categoryNameTaken(d, category) {
		return storage.ErrConflict
	}
	d.categories[category.ID] = *category
	return nil
}

func (q *queries) DeleteCategory(_ context.Context, id string) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.categories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(d.categories, id)
	return nil
}

func (q *queries) ReplaceCategories(_ context.Context, categories []models.Category) error {
	d, release := q.acquire()
	defer release()

	d.categories = make(map[string]models.Category, len(categories))
	for _, c := range categories {
		d.categories[c.ID] = c
	}
	return nil
}

func categoryNameTaken(d *dataset, category *models.Category) bool {
	for _, c := range d.categories {
		if c.ID != category.ID && strings.EqualFold(c.Name, category.Name) {
			return true
		}
	}
	return false
}
