package models

import (
	"time"

	"github.com/aleciaid/crm-bj/pkg/metadata"
)

type BorrowRecord struct {
	ID           string              `json:"id"`
	EmployeeID   string              `json:"idPegawai"`
	EmployeeName string              `json:"namaPegawai"`
	Assets       []string            `json:"assets"`
	DurationDays int                 `json:"lamaDipinjam"`
	Purpose      string              `json:"kebutuhan"`
	Status       metadata.LoanStatus `json:"status"`
	BorrowDate   Date                `json:"tanggalPinjam"`
	ReturnDate   *Date               `json:"tanggalKembali,omitempty"`
}

// FlatBorrowRecord is the row shape of the borrows table; asset ids live in
// borrow_assets.
type FlatBorrowRecord struct {
	ID           string     `db:"id"`
	EmployeeID   string     `db:"id_pegawai"`
	EmployeeName string     `db:"nama_pegawai"`
	DurationDays int        `db:"lama_dipinjam"`
	Purpose      string     `db:"kebutuhan"`
	Status       string     `db:"status"`
	BorrowDate   time.Time  `db:"tanggal_pinjam"`
	ReturnDate   *time.Time `db:"tanggal_kembali"`
}

func (f *FlatBorrowRecord) TransformToBorrowRecord(assetIDs []string) BorrowRecord {
	record := BorrowRecord{
		ID:           f.ID,
		EmployeeID:   f.EmployeeID,
		EmployeeName: f.EmployeeName,
		Assets:       assetIDs,
		DurationDays: f.DurationDays,
		Purpose:      f.Purpose,
		Status:       metadata.LoanStatus(f.Status),
		BorrowDate:   NewDate(f.BorrowDate.UTC()),
	}
	if f.ReturnDate != nil {
		returned := NewDate(f.ReturnDate.UTC())
		record.ReturnDate = &returned
	}
	if record.Assets == nil {
		record.Assets = []string{}
	}
	return record
}

// IsActive reports whether the record still holds its assets.
func (b *BorrowRecord) IsActive() bool {
	return b.Status == metadata.LoanBorrowed
}

// HasAsset reports whether assetID is part of the record.
func (b *BorrowRecord) HasAsset(assetID string) bool {
	for _, id := range b.Assets {
		if id == assetID {
			return true
		}
	}
	return false
}

type BorrowRequest struct {
	EmployeeID   string   `json:"idPegawai" validate:"required"`
	EmployeeName string   `json:"namaPegawai" validate:"required"`
	Assets       []string `json:"assets" validate:"required,min=1,dive,required"`
	DurationDays int      `json:"lamaDipinjam" validate:"gte=1"`
	Purpose      string   `json:"kebutuhan" validate:"required"`
}

type ReturnRequest struct {
	BorrowID string `json:"borrowId" binding:"required"`
}
