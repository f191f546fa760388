package exchange

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/aleciaid/crm-bj/pkg/models"
)

var (
	assetHeader    = []any{"ID", "Nama", "SKU", "Deskripsi", "Kategori", "Nilai", "Qty", "Status"}
	categoryHeader = []any{"ID", "Nama"}
	borrowHeader   = []any{"ID", "ID Pegawai", "Nama Pegawai", "Assets", "Lama Dipinjam", "Kebutuhan", "Status", "Tanggal Pinjam", "Tanggal Kembali"}
	logHeader      = []any{"Timestamp", "User", "Action", "Details"}
)

// WriteXLSX renders one sheet per collection.
func WriteXLSX(w io.Writer, bundle *models.ExportBundle) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Assets"); err != nil {
		return err
	}
	for _, name := range []string{"Categories", "Borrows", "Logs"} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	assetRows := make([][]any, 0, len(bundle.Assets))
	for _, a := range bundle.Assets {
		assetRows = append(assetRows, []any{a.ID, a.Name, a.SKU, a.Description, a.Category, a.Value, a.Qty, string(a.Status)})
	}
	categoryRows := make([][]any, 0, len(bundle.Categories))
	for _, c := range bundle.Categories {
		categoryRows = append(categoryRows, []any{c.ID, c.Name})
	}
	borrowRows := make([][]any, 0, len(bundle.Borrows))
	for _, r := range bundle.Borrows {
		returned := ""
		if r.ReturnDate != nil {
			returned = r.ReturnDate.String()
		}
		borrowRows = append(borrowRows, []any{
			r.ID, r.EmployeeID, r.EmployeeName, joinIDs(r.Assets), r.DurationDays,
			r.Purpose, string(r.Status), r.BorrowDate.String(), returned,
		})
	}
	logRows := make([][]any, 0, len(bundle.Logs))
	for _, l := range bundle.Logs {
		logRows = append(logRows, []any{l.Timestamp.UTC().Format("2006-01-02 15:04:05"), l.User, l.Action, l.Details})
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{"Assets", assetHeader, assetRows},
		{"Categories", categoryHeader, categoryRows},
		{"Borrows", borrowHeader, borrowRows},
		{"Logs", logHeader, logRows},
	}
	for _, sheet := range sheets {
		if err := writeSheet(f, sheet.name, sheet.header, sheet.rows, headerStyle); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}
