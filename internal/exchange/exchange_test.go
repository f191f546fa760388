package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/core/config"
	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/internal/storage/memory"
	"github.com/aleciaid/crm-bj/pkg/auditlog"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/roles"
)

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	data, _ := io.ReadAll(body)
	args := m.Called(ctx, name, data, size, contentType)
	return args.String(0), args.Error(1)
}

var admin = models.Actor{UserID: "u1", Username: "admin", Role: roles.Admin}

func borrowDate() models.Date {
	return models.NewDate(time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local))
}

func seed(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.InsertCategory(ctx, &models.Category{ID: "c1", Name: "Elektronik"}))
	require.NoError(t, store.InsertAsset(ctx, &models.Asset{
		ID: "a1", Name: "Laptop", SKU: "ELK-001", Description: "14 inch", Category: "Elektronik",
		Value: 12500000.5, Qty: 1, Status: metadata.AssetBorrowed,
	}))
	require.NoError(t, store.InsertAsset(ctx, &models.Asset{
		ID: "a2", Name: "Mouse", Category: "Elektronik", Value: 150000, Qty: 3, Status: metadata.AssetInStock,
	}))
	require.NoError(t, store.InsertLoan(ctx, &models.BorrowRecord{
		ID: "BRW001", EmployeeID: "EMP001", EmployeeName: "Budi", Assets: []string{"a1"},
		DurationDays: 3, Purpose: "Meeting", Status: metadata.LoanBorrowed, BorrowDate: borrowDate(),
	}))
	require.NoError(t, store.AppendLog(ctx, &models.LogEntry{
		ID: "l1", Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), User: "admin", Action: "Create Borrow", Details: "seed",
	}))
}

func newFixture(t *testing.T, archiver Archiver) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	seed(t, store)
	inventoryLog := inventorylog.NewInventoryLog(auditlog.NewAuditLog(zap.NewNop()))
	service := NewService(store, inventoryLog, archiver, zap.NewNop())
	service.now = func() time.Time { return time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC) }
	return service, store
}

func lastLog(t *testing.T, store storage.Store) models.LogEntry {
	t.Helper()
	entries, err := store.ListLogs(context.Background(), storage.LogFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}

func TestFormatFilename(t *testing.T) {
	at := time.Date(2026, 3, 12, 10, 0, 0, 0, time.Local)

	assert.Equal(t, "cimbj-data-2026-03-12.json", FormatJSON.Filename(at))
	assert.Equal(t, "cimbj-database-2026-03-12.sql", FormatSQL.Filename(at))
	assert.Equal(t, "cimbj-data-2026-03-12.xlsx", FormatXLSX.Filename(at))

	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	service, store := newFixture(t, nil)

	var buf bytes.Buffer
	require.NoError(t, service.Export(context.Background(), admin, FormatJSON, &buf))

	assert.Contains(t, buf.String(), "\n  \"assets\": [")
	assert.Contains(t, buf.String(), `"exportDate": "2026-03-12T10:00:00Z"`)

	bundle, err := DecodeImport(&buf)
	require.NoError(t, err)
	assert.Len(t, bundle.Assets, 2)
	assert.Len(t, bundle.Categories, 1)
	require.Len(t, bundle.Borrows, 1)
	assert.Equal(t, "2026-03-10", bundle.Borrows[0].BorrowDate.String())
	assert.Nil(t, bundle.Borrows[0].ReturnDate)
	assert.Len(t, bundle.Logs, 1, "the export entry is written after the snapshot")

	entry := lastLog(t, store)
	assert.Equal(t, "admin", entry.User)
	assert.Equal(t, "Export", entry.Action)
	assert.Equal(t, "Data exported to JSON", entry.Details)
}

func TestWriteSQL(t *testing.T) {
	returned := borrowDate().AddDays(2)
	bundle := &models.ExportBundle{
		Categories: []models.Category{{ID: "c1", Name: "Elektronik"}},
		Assets: []models.Asset{
			{ID: "a1", Name: "Laptop", SKU: "ELK-001", Description: "14 inch", Category: "Elektronik", Value: 12500000.5, Qty: 1, Status: metadata.AssetInStock},
			{ID: "a2", Name: "Mouse", Category: "Elektronik", Value: 150000, Qty: 3, Status: metadata.AssetInStock},
		},
		Borrows: []models.BorrowRecord{
			{ID: "BRW001", EmployeeID: "EMP001", EmployeeName: "Budi", Assets: []string{"a1", "a2"}, DurationDays: 3,
				Purpose: "Meeting", Status: metadata.LoanReturned, BorrowDate: borrowDate(), ReturnDate: &returned},
			{ID: "BRW002", EmployeeID: "EMP002", EmployeeName: "Sari", Assets: []string{"a2"}, DurationDays: 1,
				Purpose: "Demo", Status: metadata.LoanBorrowed, BorrowDate: borrowDate()},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSQL(&buf, bundle))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "-- CIMBJ Database Export\n\nCREATE TABLE IF NOT EXISTS categories (\n"))
	assert.Contains(t, out, "  nama VARCHAR(255) NOT NULL\n);\n\nINSERT INTO categories (id, nama) VALUES ('c1', 'Elektronik');\n\nCREATE TABLE IF NOT EXISTS assets (")
	assert.Contains(t, out, "VALUES ('a1', 'Laptop', 'ELK-001', '14 inch', 'Elektronik', 12500000.5, 1, 'Instock');\n")
	assert.Contains(t, out, "VALUES ('a2', 'Mouse', NULL, NULL, 'Elektronik', 150000, 3, 'Instock');\n")
	assert.Contains(t, out, `VALUES ('BRW001', 'EMP001', 'Budi', '["a1","a2"]', 3, 'Meeting', 'Dikembalikan', '2026-03-10', '2026-03-12');`)
	assert.Contains(t, out, `VALUES ('BRW002', 'EMP002', 'Sari', '["a2"]', 1, 'Demo', 'Dipinjam', '2026-03-10', NULL);`)
	assert.NotContains(t, out, "logs")
}

func TestExportSQLAndXLSXLog(t *testing.T) {
	tests := []struct {
		format  Format
		action  string
		details string
	}{
		{FormatSQL, "Export SQL", "Data exported to SQL format"},
		{FormatXLSX, "Export XLSX", "Data exported to XLSX format"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			service, store := newFixture(t, nil)

			var buf bytes.Buffer
			require.NoError(t, service.Export(context.Background(), admin, tt.format, &buf))
			assert.NotZero(t, buf.Len())

			entry := lastLog(t, store)
			assert.Equal(t, tt.action, entry.Action)
			assert.Equal(t, tt.details, entry.Details)
		})
	}
}

func TestWriteXLSX(t *testing.T) {
	service, _ := newFixture(t, nil)

	var buf bytes.Buffer
	require.NoError(t, service.Export(context.Background(), admin, FormatXLSX, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Assets", "Categories", "Borrows", "Logs"}, f.GetSheetList())

	assets, err := f.GetRows("Assets")
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "Nama", assets[0][1])

	borrows, err := f.GetRows("Borrows")
	require.NoError(t, err)
	require.Len(t, borrows, 2)
	require.GreaterOrEqual(t, len(borrows[1]), 8)
	assert.Equal(t, []string{"BRW001", "EMP001", "Budi", "a1", "3", "Meeting", "Dipinjam", "2026-03-10"}, borrows[1][:8])

	logs, err := f.GetRows("Logs")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "2026-03-10 09:00:00", logs[1][0])
}

const importFile = `{
  "assets": [{"id": "x1", "nama": "Proyektor", "kategori": "AV", "nilai": 5000000, "qty": 1, "status": "Instock"}],
  "categories": [{"id": "k1", "nama": "AV"}],
  "borrows": [{"id": "BRW900", "idPegawai": "EMP009", "namaPegawai": "Rina", "assets": ["x1"], "lamaDipinjam": 2,
    "kebutuhan": "Rapat", "status": "Dikembalikan", "tanggalPinjam": "2026-02-01T00:00:00.000Z", "tanggalKembali": "2026-02-03"}],
  "logs": [{"id": "old", "timestamp": "2026-02-01T08:00:00.000Z", "user": "admin", "action": "Create Asset", "details": "Created new asset: Proyektor"}],
  "exportDate": "2026-02-04T00:00:00.000Z"
}`

func TestImport(t *testing.T) {
	service, store := newFixture(t, nil)
	ctx := context.Background()

	result, err := service.Import(ctx, admin, "backup.json", strings.NewReader(importFile))
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Assets: 1, Categories: 1, Borrows: 1, Logs: 1}, result)

	assets, err := store.ListAssets(ctx, storage.AssetFilter{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "x1", assets[0].ID)

	record, err := store.GetLoan(ctx, "BRW900")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", record.BorrowDate.String())
	require.NotNil(t, record.ReturnDate)
	assert.Equal(t, "2026-02-03", record.ReturnDate.String())

	_, err = store.GetLoan(ctx, "BRW001")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := store.ListLogs(ctx, storage.LogFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Import", entries[0].Action)
	assert.Equal(t, "Data imported from backup.json", entries[0].Details)
	assert.Equal(t, "old", entries[1].ID)
}

func TestImportRejectsIncompleteFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "assets,categories"},
		{"missing logs", `{"assets": [], "categories": [], "borrows": []}`},
		{"null borrows", `{"assets": [], "categories": [], "borrows": null, "logs": []}`},
		{"wrong shape", `{"assets": {}, "categories": [], "borrows": [], "logs": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newFixture(t, nil)

			_, err := service.Import(context.Background(), admin, "bad.json", strings.NewReader(tt.body))
			assert.ErrorIs(t, err, ErrInvalidImport)

			assets, err := store.ListAssets(context.Background(), storage.AssetFilter{})
			require.NoError(t, err)
			assert.Len(t, assets, 2, "existing data is untouched")
		})
	}
}

func TestImportEmptyCollections(t *testing.T) {
	service, store := newFixture(t, nil)

	_, err := service.Import(context.Background(), admin, "empty.json",
		strings.NewReader(`{"assets": [], "categories": [], "borrows": [], "logs": []}`))
	require.NoError(t, err)

	assets, err := store.ListAssets(context.Background(), storage.AssetFilter{})
	require.NoError(t, err)
	assert.Empty(t, assets)

	entries, err := store.ListLogs(context.Background(), storage.LogFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArchive(t *testing.T) {
	archiver := &MockArchiver{}
	service, store := newFixture(t, archiver)

	archiver.On("Upload", mock.Anything, "cimbj-data-2026-03-12.json", mock.MatchedBy(func(data []byte) bool {
		return json.Valid(data)
	}), mock.Anything, "application/json").Return("backups/exports/cimbj-data-2026-03-12.json", nil)

	object, err := service.Archive(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "backups/exports/cimbj-data-2026-03-12.json", object)
	archiver.AssertExpectations(t)

	entry := lastLog(t, store)
	assert.Equal(t, "Archive Export", entry.Action)
	assert.Equal(t, "Data archived to cimbj-data-2026-03-12.json", entry.Details)
}

func TestArchiveErrors(t *testing.T) {
	service, _ := newFixture(t, nil)
	_, err := service.Archive(context.Background(), admin)
	assert.ErrorIs(t, err, ErrArchiveDisabled)

	archiver := &MockArchiver{}
	archiver.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection refused"))
	service, _ = newFixture(t, archiver)
	_, err = service.Archive(context.Background(), admin)
	assert.ErrorContains(t, err, "connection refused")
}

type recordingPutter struct {
	bucket, object, contentType string
	body                        []byte
}

func (p *recordingPutter) PutObject(_ context.Context, bucket, object string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	p.bucket, p.object, p.contentType = bucket, object, opts.ContentType
	p.body, _ = io.ReadAll(reader)
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func TestBucketArchiver(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{"", "cimbj.json"},
		{"exports", "exports/cimbj.json"},
		{"/exports/daily/", "exports/daily/cimbj.json"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			putter := &recordingPutter{}
			archiver := &BucketArchiver{client: putter, bucket: "backups", prefix: tt.prefix}

			object, err := archiver.Upload(context.Background(), "cimbj.json", strings.NewReader("{}"), 2, "application/json")
			require.NoError(t, err)
			assert.Equal(t, "backups/"+tt.expected, object)
			assert.Equal(t, tt.expected, putter.object)
			assert.Equal(t, "application/json", putter.contentType)
			assert.Equal(t, "{}", string(putter.body))
		})
	}
}

func TestNewBucketArchiverDisabled(t *testing.T) {
	archiver, err := NewBucketArchiver(configWithoutEndpoint())
	require.NoError(t, err)
	assert.Nil(t, archiver)
}

func newRouter(service *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", "u1")
		c.Set("username", "admin")
		c.Set("role", string(roles.Admin))
	})
	NewExchangeHandler(service, zap.NewNop()).RegisterRoutes(router)
	return router
}

func TestExchangeHandler(t *testing.T) {
	service, store := newFixture(t, nil)
	router := newRouter(service)

	t.Run("export sql download", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/sql", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "cimbj-database-")
		assert.True(t, strings.HasPrefix(w.Body.String(), "-- CIMBJ Database Export"))
	})

	t.Run("unknown format", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/pdf", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("archive not configured", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exports/archive", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("invalid import", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/imports", strings.NewReader(`{"assets": []}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("multipart import", func(t *testing.T) {
		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		part, err := form.CreateFormFile("file", "cimbj-data-2026-02-04.json")
		require.NoError(t, err)
		_, err = part.Write([]byte(importFile))
		require.NoError(t, err)
		require.NoError(t, form.Close())

		req := httptest.NewRequest(http.MethodPost, "/imports", &body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		entry := lastLog(t, store)
		assert.Equal(t, "Data imported from cimbj-data-2026-02-04.json", entry.Details)
	})
}

func configWithoutEndpoint() config.ArchiveConfig {
	return config.ArchiveConfig{Bucket: "backups"}
}
