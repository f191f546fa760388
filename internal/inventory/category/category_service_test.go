package category

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/internal/storage/memory"
	"github.com/aleciaid/crm-bj/pkg/auditlog"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

var admin = models.Actor{Username: "admin", Role: "admin"}

func newTestService(t *testing.T) (*CategoryService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	inventoryLog := inventorylog.NewInventoryLog(auditlog.NewAuditLog(zap.NewNop()))
	return NewCategoryService(store, inventoryLog), store
}

func TestCreateCategory(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	category, err := service.CreateCategory(ctx, admin, models.CategoryRequest{Name: "  Elektronik "})
	require.NoError(t, err)
	assert.Equal(t, "Elektronik", category.Name)
	assert.NotEmpty(t, category.ID)

	_, err = service.CreateCategory(ctx, admin, models.CategoryRequest{Name: "elektronik"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = service.CreateCategory(ctx, admin, models.CategoryRequest{Name: "   "})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	logs, err := store.ListLogs(ctx, storage.LogFilter{Action: string(metadata.ActionCreateCategory)})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Created new category: Elektronik", logs[0].Details)
}

func TestUpdateCategory_RenamesAssets(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	category, err := service.CreateCategory(ctx, admin, models.CategoryRequest{Name: "Elektronik"})
	require.NoError(t, err)
	require.NoError(t, store.InsertAsset(ctx, &models.Asset{ID: "A1", Name: "Laptop", Category: "Elektronik", Qty: 1, Status: metadata.AssetInStock}))
	require.NoError(t, store.InsertAsset(ctx, &models.Asset{ID: "A2", Name: "Meja", Category: "Furnitur", Qty: 1, Status: metadata.AssetInStock}))

	updated, err := service.UpdateCategory(ctx, admin, category.ID, models.CategoryRequest{Name: "Perangkat IT"})
	require.NoError(t, err)
	assert.Equal(t, "Perangkat IT", updated.Name)

	laptop, err := store.GetAsset(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Perangkat IT", laptop.Category)
	desk, err := store.GetAsset(ctx, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Furnitur", desk.Category)

	_, err = service.UpdateCategory(ctx, admin, "missing", models.CategoryRequest{Name: "X"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestDeleteCategory_BlockedWhileInUse(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	category, err := service.CreateCategory(ctx, admin, models.CategoryRequest{Name: "Elektronik"})
	require.NoError(t, err)
	for _, id := range []string{"A1", "A2"} {
		require.NoError(t, store.InsertAsset(ctx, &models.Asset{ID: id, Name: id, Category: "Elektronik", Qty: 1, Status: metadata.AssetInStock}))
	}

	err = service.DeleteCategory(ctx, admin, category.ID)
	var inUse *InUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 2, inUse.Count)

	require.NoError(t, store.DeleteAsset(ctx, "A1"))
	require.NoError(t, store.DeleteAsset(ctx, "A2"))
	require.NoError(t, service.DeleteCategory(ctx, admin, category.ID))

	categories, err := service.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestCategoryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service, store := newTestService(t)
	ctx := context.Background()
	category, err := service.CreateCategory(ctx, admin, models.CategoryRequest{Name: "Elektronik"})
	require.NoError(t, err)
	require.NoError(t, store.InsertAsset(ctx, &models.Asset{ID: "A1", Name: "Laptop", Category: "Elektronik", Qty: 1, Status: metadata.AssetInStock}))

	router := gin.New()
	NewCategoryHandler(service, zap.NewNop()).RegisterRoutes(router)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"list", http.MethodGet, "/categories", "", http.StatusOK},
		{"create", http.MethodPost, "/categories", `{"nama":"Furnitur"}`, http.StatusCreated},
		{"create duplicate", http.MethodPost, "/categories", `{"nama":"ELEKTRONIK"}`, http.StatusConflict},
		{"create without name", http.MethodPost, "/categories", `{}`, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/categories/nope", `{"nama":"X"}`, http.StatusNotFound},
		{"delete in use", http.MethodDelete, "/categories/" + category.ID, "", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}
