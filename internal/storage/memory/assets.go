package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

func (q *queries) ListAssets(_ context.Context, filter storage.AssetFilter) ([]models.Asset, error) {
	d, release := q.acquire()
	defer release()

	assets := make([]models.Asset, 0, len(d.assets))
	for _, a := range d.assets {
		if filter.Matches(&a) {
			assets = append(assets, a)
		}
	}
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Name == assets[j].Name {
			return assets[i].ID < assets[j].ID
		}
		return assets[i].Name < assets[j].Name
	})
	return assets, nil
}

func (q *queries) GetAsset(_ context.Context, id string) (*models.Asset, error) {
	d, release := q.acquire()
	defer release()

	a, ok := d.assets[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (q *queries) GetAssets(_ context.Context, ids []string) ([]models.Asset, error) {
	d, release := q.acquire()
	defer release()

	assets := make([]models.Asset, 0, len(ids))
	for _, id := range ids {
		if a, ok := d.assets[id]; ok {
			assets = append(assets, a)
		}
	}
	return assets, nil
}

func (q *queries) SKUExists(_ context.Context, sku string, excludeID string) (bool, error) {
	d, release := q.acquire()
	defer release()

	for _, a := range d.assets {
		if a.ID != excludeID && a.SKU != "" && strings.EqualFold(a.SKU, sku) {
			return true, nil
		}
	}
	return false, nil
}

func (q *queries) InsertAsset(_ context.Context, asset *models.Asset) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.assets[asset.ID]; ok {
		return storage.ErrConflict
	}
	d.assets[asset.ID] = *asset
	return nil
}

func (q *queries) UpdateAsset(_ context.Context, asset *models.Asset) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.assets[asset.ID]; !ok {
		return storage.ErrNotFound
	}
	d.assets[asset.ID] = *asset
	return nil
}

func (q *queries) DeleteAsset(_ context.Context, id string) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.assets[id]; !ok {
		return storage.ErrNotFound
	}
	delete(d.assets, id)
	return nil
}

func (q *queries) SetAssetStatus(_ context.Context, ids []string, from, to metadata.AssetStatus) (int64, error) {
	d, release := q.acquire()
	defer release()

	var moved int64
	for _, id := range ids {
		a, ok := d.assets[id]
		if !ok || a.Status != from {
			continue
		}
		if to == metadata.AssetBorrowed && a.Qty <= 0 {
			continue
		}
		a.Status = to
		d.assets[id] = a
		moved++
	}
	return moved, nil
}

func (q *queries) CountAssetsByCategory(_ context.Context, category string) (int, error) {
	d, release := q.acquire()
	defer release()

	count := 0
	for _, a := range d.assets {
		if a.Category == category {
			count++
		}
	}
	return count, nil
}

func (q *queries) RenameAssetCategory(_ context.Context, from, to string) (int64, error) {
	d, release := q.acquire()
	defer release()

	var renamed int64
	for id, a := range d.assets {
		if a.Category == from {
			a.Category = to
			d.assets[id] = a
			renamed++
		}
	}
	return renamed, nil
}

func (q *queries) ReplaceAssets(_ context.Context, assets []models.Asset) error {
	d, release := q.acquire()
	defer release()

	d.assets = make(map[string]models.Asset, len(assets))
	for _, a := range assets {
		d.assets[a.ID] = a
	}
	return nil
}
