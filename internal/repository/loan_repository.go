package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const (
	borrowsTable      = "borrows"
	borrowAssetsTable = "borrow_assets"
)

type borrowAssetRow struct {
	BorrowID string `db:"borrow_id"`
	AssetID  string `db:"asset_id"`
	Position int    `db:"position"`
}

func loanIDMatches(id string) exp.Expression {
	return goqu.Func("LOWER", goqu.C("id")).Eq(strings.ToLower(strings.TrimSpace(id)))
}

func (q *queries) ListLoans(ctx context.Context, filter storage.LoanFilter) ([]models.BorrowRecord, error) {
	builder := NewQueryBuilder()
	builder.AddCondition("status", string(filter.Status))
	builder.AddCondition("employee_id", filter.EmployeeID)

	var flat []models.FlatBorrowRecord
	err := q.db.From(borrowsTable).
		Where(builder.BuildConditions(map[string]string{"employee_id": "id_pegawai"})).
		Order(goqu.C("tanggal_pinjam").Desc(), goqu.C("id").Desc()).
		ScanStructsContext(ctx, &flat)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	ids := make([]string, 0, len(flat))
	for _, f := range flat {
		ids = append(ids, f.ID)
	}
	assetsByLoan, err := q.loanAssets(ctx, ids)
	if err != nil {
		return nil, err
	}

	records := make([]models.BorrowRecord, 0, len(flat))
	for i := range flat {
		records = append(records, flat[i].TransformToBorrowRecord(assetsByLoan[flat[i].ID]))
	}

	return records, nil
}

func (q *queries) GetLoan(ctx context.Context, id string) (*models.BorrowRecord, error) {
	var flat models.FlatBorrowRecord
	found, err := q.db.From(borrowsTable).Where(loanIDMatches(id)).ScanStructContext(ctx, &flat)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch borrow record %s: %w", id, err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	assetsByLoan, err := q.loanAssets(ctx, []string{flat.ID})
	if err != nil {
		return nil, err
	}

	record := flat.TransformToBorrowRecord(assetsByLoan[flat.ID])
	return &record, nil
}

func (q *queries) loanAssets(ctx context.Context, loanIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(loanIDs))
	if len(loanIDs) == 0 {
		return result, nil
	}

	var rows []borrowAssetRow
	err := q.db.From(borrowAssetsTable).
		Where(goqu.C("borrow_id").In(loanIDs)).
		Order(goqu.C("borrow_id").Asc(), goqu.C("position").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch borrowed assets: %w", err)
	}

	for _, row := range rows {
		result[row.BorrowID] = append(result[row.BorrowID], row.AssetID)
	}

	return result, nil
}

func (q *queries) InsertLoan(ctx context.Context, record *models.BorrowRecord) error {
	return q.insertLoans(ctx, []models.BorrowRecord{*record})
}

func (q *queries) insertLoans(ctx context.Context, records []models.BorrowRecord) error {
	loanRows := make([]goqu.Record, 0, len(records))
	var assetRows []goqu.Record
	for _, r := range records {
		row := goqu.Record{
			"id":              r.ID,
			"id_pegawai":      r.EmployeeID,
			"nama_pegawai":    r.EmployeeName,
			"lama_dipinjam":   r.DurationDays,
			"kebutuhan":       r.Purpose,
			"status":          string(r.Status),
			"tanggal_pinjam":  r.BorrowDate.String(),
			"tanggal_kembali": nil,
		}
		if r.ReturnDate != nil && !r.ReturnDate.IsZero() {
			row["tanggal_kembali"] = r.ReturnDate.String()
		}
		loanRows = append(loanRows, row)

		for position, assetID := range r.Assets {
			assetRows = append(assetRows, goqu.Record{
				"borrow_id": r.ID,
				"asset_id":  assetID,
				"position":  position,
			})
		}
	}

	if _, err := q.db.Insert(borrowsTable).Rows(loanRows).Executor().ExecContext(ctx); err != nil {
		return mapError(err, "failed to insert borrow record")
	}
	if len(assetRows) == 0 {
		return nil
	}
	if _, err := q.db.Insert(borrowAssetsTable).Rows(assetRows).Executor().ExecContext(ctx); err != nil {
		return mapError(err, "failed to insert borrowed assets")
	}

	return nil
}

func closeLoanQuery(db queryRunner, id string, returnDate models.Date) *goqu.UpdateDataset {
	return db.Update(borrowsTable).
		Set(goqu.Record{
			"status":          string(metadata.LoanReturned),
			"tanggal_kembali": returnDate.String(),
		}).
		Where(loanIDMatches(id), goqu.C("status").Eq(string(metadata.LoanBorrowed)))
}

func (q *queries) CloseLoan(ctx context.Context, id string, returnDate models.Date) (int64, error) {
	result, err := closeLoanQuery(q.db, id, returnDate).Executor().ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to close borrow record %s: %w", id, err)
	}

	return rowsAffected(result, "failed to close borrow record")
}

func (q *queries) ReplaceLoans(ctx context.Context, records []models.BorrowRecord) error {
	if _, err := q.db.Delete(borrowAssetsTable).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear borrowed assets: %w", err)
	}
	if _, err := q.db.Delete(borrowsTable).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to clear borrow records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	return q.insertLoans(ctx, records)
}
