package models

import "github.com/aleciaid/crm-bj/pkg/metadata"

type Asset struct {
	ID          string               `json:"id" db:"id"`
	Name        string               `json:"nama" db:"nama"`
	SKU         string               `json:"sku,omitempty" db:"sku"`
	Description string               `json:"deskripsi,omitempty" db:"deskripsi"`
	Category    string               `json:"kategori" db:"kategori"` // category name, not id
	Value       float64              `json:"nilai" db:"nilai"`
	Qty         int                  `json:"qty" db:"qty"`
	Status      metadata.AssetStatus `json:"status" db:"status"`
}

// IsAvailable reports whether the asset can be put on a new loan.
func (a *Asset) IsAvailable() bool {
	return a.Status == metadata.AssetInStock && a.Qty > 0
}

// AssetRequest is the writable part of an asset; status belongs to the
// loan engine.
type AssetRequest struct {
	Name        string  `json:"nama" validate:"required"`
	SKU         string  `json:"sku"`
	Description string  `json:"deskripsi"`
	Category    string  `json:"kategori" validate:"required"`
	Value       float64 `json:"nilai" validate:"gte=0"`
	Qty         int     `json:"qty" validate:"gte=0"`
}

// AssetNames returns the names of assets, in order.
func AssetNames(assets []Asset) []string {
	names := make([]string, 0, len(assets))
	for _, a := range assets {
		names = append(names, a.Name)
	}
	return names
}
