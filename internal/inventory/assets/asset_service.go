package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/barcode"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrUnknownCategory = errors.New("category does not exist")
	ErrDuplicateSKU    = errors.New("sku already assigned to another asset")
	ErrAssetOnLoan     = errors.New("asset is currently borrowed")
)

type AssetService struct {
	store        storage.Store
	inventoryLog *inventorylog.InventoryLog
	validate     *validation.Validator
}

func NewAssetService(store storage.Store, inventoryLog *inventorylog.InventoryLog) *AssetService {
	return &AssetService{
		store:        store,
		inventoryLog: inventoryLog,
		validate:     validation.New(),
	}
}

func (s *AssetService) ListAssets(ctx context.Context, filter storage.AssetFilter) ([]models.Asset, error) {
	return s.store.ListAssets(ctx, filter)
}

func (s *AssetService) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	asset, err := s.store.GetAsset(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	return asset, err
}

// CreateAsset registers a new asset in stock.
func (s *AssetService) CreateAsset(ctx context.Context, actor models.Actor, req models.AssetRequest) (*models.Asset, error) {
	req = normalizeRequest(req)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if req.Qty < 1 {
		return nil, validation.Field("qty", "gte")
	}

	asset := &models.Asset{
		ID:          uuid.New().String(),
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Category:    req.Category,
		Value:       req.Value,
		Qty:         req.Qty,
		Status:      metadata.AssetInStock,
	}

	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		if err := s.checkReferences(ctx, q, asset); err != nil {
			return err
		}
		if err := q.InsertAsset(ctx, asset); err != nil {
			return mapWriteError(err, asset.SKU)
		}
		return s.inventoryLog.CreateAssetLogEntry(ctx, q, actor, metadata.ActionCreateAsset, asset)
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// UpdateAsset overwrites the writable fields; status is left untouched.
func (s *AssetService) UpdateAsset(ctx context.Context, actor models.Actor, id string, req models.AssetRequest) (*models.Asset, error) {
	req = normalizeRequest(req)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	var asset *models.Asset
	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		var err error
		asset, err = q.GetAsset(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
		}
		if err != nil {
			return err
		}

		asset.Name = req.Name
		asset.SKU = req.SKU
		asset.Description = req.Description
		asset.Category = req.Category
		asset.Value = req.Value
		asset.Qty = req.Qty

		if err := s.checkReferences(ctx, q, asset); err != nil {
			return err
		}
		if err := q.UpdateAsset(ctx, asset); err != nil {
			return mapWriteError(err, asset.SKU)
		}
		return s.inventoryLog.CreateAssetLogEntry(ctx, q, actor, metadata.ActionUpdateAsset, asset)
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// DeleteAsset refuses to remove an asset that is out on loan.
func (s *AssetService) DeleteAsset(ctx context.Context, actor models.Actor, id string) error {
	return s.store.WithinTx(ctx, func(q storage.Queries) error {
		asset, err := q.GetAsset(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
		}
		if err != nil {
			return err
		}
		if asset.Status == metadata.AssetBorrowed {
			return fmt.Errorf("%w: %s", ErrAssetOnLoan, asset.Name)
		}

		if err := q.DeleteAsset(ctx, id); err != nil {
			return err
		}
		return s.inventoryLog.CreateAssetLogEntry(ctx, q, actor, metadata.ActionDeleteAsset, asset)
	})
}

// GenerateSKU returns a SKU-XXXXXX code no asset uses yet.
func (s *AssetService) GenerateSKU(ctx context.Context) (string, error) {
	return metadata.GenerateSKU(func(sku string) (bool, error) {
		return s.store.SKUExists(ctx, sku, "")
	})
}

func (s *AssetService) validateRequest(req models.AssetRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	if req.SKU != "" && barcode.IsNumeric(req.SKU) {
		if _, err := barcode.Validate(req.SKU); err != nil {
			return validation.Field("sku", "barcode")
		}
	}
	return nil
}

func (s *AssetService) checkReferences(ctx context.Context, q storage.Queries, asset *models.Asset) error {
	category, err := q.GetCategoryByName(ctx, asset.Category)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, asset.Category)
	}
	if err != nil {
		return err
	}
	asset.Category = category.Name

	if asset.SKU == "" {
		return nil
	}
	taken, err := q.SKUExists(ctx, asset.SKU, asset.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrDuplicateSKU, asset.SKU)
	}
	return nil
}

func normalizeRequest(req models.AssetRequest) models.AssetRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.SKU = strings.TrimSpace(req.SKU)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	return req
}

func mapWriteError(err error, sku string) error {
	if errors.Is(err, storage.ErrConflict) {
		return fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
	}
	return err
}
