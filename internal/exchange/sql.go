package exchange

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aleciaid/crm-bj/pkg/models"
)

// WriteSQL renders categories, assets and borrows as a standalone SQL script.
// Values are interpolated as-is, quotes included; the script is meant for
// offline inspection, not for replaying untrusted data.
func WriteSQL(w io.Writer, bundle *models.ExportBundle) error {
	var b strings.Builder
	b.WriteString("-- CIMBJ Database Export\n\n")

	b.WriteString("CREATE TABLE IF NOT EXISTS categories (\n")
	b.WriteString("  id VARCHAR(255) PRIMARY KEY,\n")
	b.WriteString("  nama VARCHAR(255) NOT NULL\n")
	b.WriteString(");\n\n")
	for _, c := range bundle.Categories {
		fmt.Fprintf(&b, "INSERT INTO categories (id, nama) VALUES ('%s', '%s');\n", c.ID, c.Name)
	}

	b.WriteString("\nCREATE TABLE IF NOT EXISTS assets (\n")
	b.WriteString("  id VARCHAR(255) PRIMARY KEY,\n")
	b.WriteString("  nama VARCHAR(255) NOT NULL,\n")
	b.WriteString("  sku VARCHAR(255),\n")
	b.WriteString("  deskripsi TEXT,\n")
	b.WriteString("  kategori VARCHAR(255),\n")
	b.WriteString("  nilai DECIMAL(10,2),\n")
	b.WriteString("  qty INT,\n")
	b.WriteString("  status VARCHAR(50)\n")
	b.WriteString(");\n\n")
	for _, a := range bundle.Assets {
		fmt.Fprintf(&b, "INSERT INTO assets (id, nama, sku, deskripsi, kategori, nilai, qty, status) VALUES ('%s', '%s', %s, %s, '%s', %s, %d, '%s');\n",
			a.ID, a.Name, quotedOrNull(a.SKU), quotedOrNull(a.Description), a.Category,
			strconv.FormatFloat(a.Value, 'f', -1, 64), a.Qty, a.Status)
	}

	b.WriteString("\nCREATE TABLE IF NOT EXISTS borrows (\n")
	b.WriteString("  id VARCHAR(255) PRIMARY KEY,\n")
	b.WriteString("  id_pegawai VARCHAR(255),\n")
	b.WriteString("  nama_pegawai VARCHAR(255),\n")
	b.WriteString("  assets TEXT,\n")
	b.WriteString("  lama_dipinjam INT,\n")
	b.WriteString("  kebutuhan TEXT,\n")
	b.WriteString("  status VARCHAR(50),\n")
	b.WriteString("  tanggal_pinjam DATE,\n")
	b.WriteString("  tanggal_kembali DATE\n")
	b.WriteString(");\n\n")
	for _, r := range bundle.Borrows {
		assets, err := json.Marshal(r.Assets)
		if err != nil {
			return err
		}
		returned := "NULL"
		if r.ReturnDate != nil {
			returned = "'" + r.ReturnDate.String() + "'"
		}
		fmt.Fprintf(&b, "INSERT INTO borrows (id, id_pegawai, nama_pegawai, assets, lama_dipinjam, kebutuhan, status, tanggal_pinjam, tanggal_kembali) VALUES ('%s', '%s', '%s', '%s', %d, '%s', '%s', '%s', %s);\n",
			r.ID, r.EmployeeID, r.EmployeeName, assets, r.DurationDays, r.Purpose, r.Status, r.BorrowDate, returned)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func quotedOrNull(value string) string {
	if value == "" {
		return "NULL"
	}
	return "'" + value + "'"
}
