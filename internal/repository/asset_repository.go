package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const assetsTable = "assets"

func assetRecord(a *models.Asset) goqu.Record {
	return goqu.Record{
		"id":        a.ID,
		"nama":      a.Name,
		"sku":       a.SKU,
		"deskripsi": a.Description,
		"kategori":  a.Category,
		"nilai":     a.Value,
		"qty":       a.Qty,
		"status":    string(a.Status),
	}
}

func (q *queries) ListAssets(ctx context.Context, filter storage.AssetFilter) ([]models.Asset, error) {
	builder := NewQueryBuilder()
	builder.AddCondition("status", string(filter.Status))

	query := q.db.From(assetsTable).Where(builder.BuildConditions(nil))
	if filter.Category != "" {
		query = query.Where(goqu.Func("LOWER", goqu.C("kategori")).Eq(strings.ToLower(filter.Category)))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(goqu.Or(
			goqu.C("nama").ILike(pattern),
			goqu.C("sku").ILike(pattern),
			goqu.C("deskripsi").ILike(pattern),
		))
	}

	assets := []models.Asset{}
	if err := query.Order(goqu.C("nama").Asc(), goqu.C("id").Asc()).ScanStructsContext(ctx, &assets); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return assets, nil
}

func (q *queries) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	found, err := q.db.From(assetsTable).Where(goqu.Ex{"id": id}).ScanStructContext(ctx, &asset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset %s: %w", id, err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	return &asset, nil
}

func (q *queries) GetAssets(ctx context.Context, ids []string) ([]models.Asset, error) {
	assets := []models.Asset{}
	if len(ids) == 0 {
		return assets, nil
	}

	if err := q.db.From(assetsTable).Where(goqu.C("id").In(ids)).ScanStructsContext(ctx, &assets); err != nil {
		return nil, fmt.Errorf("failed to fetch assets: %w", err)
	}

	return assets, nil
}

func (q *queries) SKUExists(ctx context.Context, sku string, excludeID string) (bool, error) {
	query := q.db.From(assetsTable).
		Where(goqu.Func("LOWER", goqu.C("sku")).Eq(strings.ToLower(sku)))
	if excludeID != "" {
		query = query.Where(goqu.C("id").Neq(excludeID))
	}

	count, err := query.CountContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check sku: %w", err)
	}

	return count > 0, nil
}

func (q *queries) InsertAsset(ctx context.Context, asset *models.Asset) error {
	_, err := q.db.Insert(assetsTable).Rows(assetRecord(asset)).Executor().ExecContext(ctx)
	return mapError(err, "failed to insert asset record")
}

func (q *queries) UpdateAsset(ctx context.Context, asset *models.Asset) error {
	record := assetRecord(asset)
	delete(record, "id")

	result, err := q.db.Update(assetsTable).
		Set(record).
		Where(goqu.Ex{"id": asset.ID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return mapError(err, "failed to update asset")
	}

	return requireOne(result, "failed to update asset")
}

func (q *queries) DeleteAsset(ctx context.Context, id string) error {
	result, err := q.db.Delete(assetsTable).Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx)
	if err != nil {
		return mapError(err, "failed to delete asset")
	}

	return requireOne(result, "failed to delete asset")
}

// setAssetStatusQuery only touches rows still in the from status, so two
// overlapping loans cannot both move the same asset.
func setAssetStatusQuery(db queryRunner, ids []string, from, to metadata.AssetStatus) *goqu.UpdateDataset {
	query := db.Update(assetsTable).
		Set(goqu.Record{"status": string(to)}).
		Where(goqu.C("id").In(ids), goqu.C("status").Eq(string(from)))
	if to == metadata.AssetBorrowed {
		query = query.Where(goqu.C("qty").Gt(0))
	}
	return query
}

func (q *queries) SetAssetStatus(ctx context.Context, ids []string, from, to metadata.AssetStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := setAssetStatusQuery(q.db, ids, from, to).Executor().ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to change asset status to %s: %w", to, err)
	}

	return rowsAffected(result, "failed to change asset status")
}

func (q *queries) CountAssetsByCategory(ctx context.Context, category string) (int, error) {
	count, err := q.db.From(assetsTable).Where(goqu.Ex{"kategori": category}).CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count related assets: %w", err)
	}

	return int(count), nil
}

func (q *queries) RenameAssetCategory(ctx context.Context, from, to string) (int64, error) {
	result, err := q.db.Update(assetsTable).
		Set(goqu.Record{"kategori": to}).
		Where(goqu.Ex{"kategori": from}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to rename asset category: %w", err)
	}

	return rowsAffected(result, "failed to rename asset category")
}

func (q *queries) ReplaceAssets(ctx context.Context, assets []models.Asset) error {
	if _, err := q.db.Delete(assetsTable).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear assets: %w", err)
	}
	if len(assets) == 0 {
		return nil
	}

	records := make([]goqu.Record, 0, len(assets))
	for i := range assets {
		records = append(records, assetRecord(&assets[i]))
	}

	_, err := q.db.Insert(assetsTable).Rows(records).Executor().ExecContext(ctx)
	return mapError(err, "failed to insert imported assets")
}
