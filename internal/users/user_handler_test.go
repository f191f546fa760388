package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/internal/storage/memory"
	"github.com/aleciaid/crm-bj/pkg/auditlog"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/roles"
	"github.com/aleciaid/crm-bj/pkg/security"
)

func newTestService(t *testing.T) (*UserService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	inventoryLog := inventorylog.NewInventoryLog(auditlog.NewAuditLog(zap.NewNop()))
	return NewUserService(store, inventoryLog, zap.NewNop()), store
}

func seededAdmin(t *testing.T, service *UserService, store storage.Store) models.Actor {
	t.Helper()
	_, err := service.SeedDefaults(context.Background())
	require.NoError(t, err)
	account, err := store.GetAccountByUsername(context.Background(), "admin")
	require.NoError(t, err)
	return models.Actor{UserID: account.ID, Username: account.Username, Role: account.Role}
}

func setupTestContext(actor models.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("userID", actor.UserID)
	c.Set("username", actor.Username)
	c.Set("role", string(actor.Role))
	return c, w
}

func TestSeedDefaults_WarnsOnce(t *testing.T) {
	core, observed := observer.New(zap.WarnLevel)
	inventoryLog := inventorylog.NewInventoryLog(auditlog.NewAuditLog(zap.NewNop()))
	service := NewUserService(memory.NewStore(), inventoryLog, zap.New(core))
	ctx := context.Background()

	_, err := service.SeedDefaults(ctx)
	require.NoError(t, err)
	_, err = service.SeedDefaults(ctx)
	require.NoError(t, err)

	warnings := observed.FilterMessageSnippet("Seeded default accounts").All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "admin/admin")
}

func TestSeedDefaults(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	seeded, err := service.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = service.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.False(t, seeded, "second run must not add accounts")

	accounts, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	admin, err := security.AuthenticateUser(ctx, store, "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, roles.Admin, admin.Role)
	assert.Equal(t, "system", admin.CreatedBy)

	user, err := security.AuthenticateUser(ctx, store, "user", "user")
	require.NoError(t, err)
	assert.Equal(t, roles.User, user.Role)
}

func TestCreateUser(t *testing.T) {
	service, store := newTestService(t)
	actor := seededAdmin(t, service, store)
	ctx := context.Background()

	account, err := service.CreateUser(ctx, actor, models.CreateUserRequest{Username: " budi ", Password: "rahasia", Role: roles.User})
	require.NoError(t, err)
	assert.Equal(t, "budi", account.Username)
	assert.True(t, account.IsActive)
	assert.Equal(t, "admin", account.CreatedBy)
	assert.NotEqual(t, "rahasia", account.PasswordHash)

	_, err = service.CreateUser(ctx, actor, models.CreateUserRequest{Username: "budi", Password: "x", Role: roles.User})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	logs, err := store.ListLogs(ctx, storage.LogFilter{Action: string(metadata.ActionCreateUser)})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Created user account: budi (user)", logs[0].Details)
}

func TestUpdateUser(t *testing.T) {
	service, store := newTestService(t)
	actor := seededAdmin(t, service, store)
	ctx := context.Background()

	account, err := service.CreateUser(ctx, actor, models.CreateUserRequest{Username: "budi", Password: "lama", Role: roles.User})
	require.NoError(t, err)

	newPassword := "baru"
	promoted := roles.Admin
	updated, err := service.UpdateUser(ctx, actor, account.ID, models.UpdateUserRequest{Password: &newPassword, Role: &promoted})
	require.NoError(t, err)
	assert.Equal(t, roles.Admin, updated.Role)

	_, err = security.AuthenticateUser(ctx, store, "budi", "baru")
	require.NoError(t, err)

	empty := ""
	_, err = service.UpdateUser(ctx, actor, account.ID, models.UpdateUserRequest{Password: &empty})
	require.NoError(t, err)
	_, err = security.AuthenticateUser(ctx, store, "budi", "baru")
	assert.NoError(t, err, "empty password keeps the current one")

	taken := "user"
	_, err = service.UpdateUser(ctx, actor, account.ID, models.UpdateUserRequest{Username: &taken})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	inactive := false
	_, err = service.UpdateUser(ctx, actor, actor.UserID, models.UpdateUserRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, ErrSelfModification)
}

func TestRegisterUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		payload        any
		expectedStatus int
	}{
		{"successful registration", models.CreateUserRequest{Username: "testuser", Password: "password123", Role: roles.User}, http.StatusCreated},
		{"duplicate username", models.CreateUserRequest{Username: "user", Password: "password123", Role: roles.User}, http.StatusConflict},
		{"unknown role", models.CreateUserRequest{Username: "mod", Password: "password123", Role: "moderator"}, http.StatusBadRequest},
		{"missing password", gin.H{"username": "nopass", "role": "user"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestService(t)
			handler := NewHandler(service, zap.NewNop())
			c, w := setupTestContext(seededAdmin(t, service, store))

			body, _ := json.Marshal(tt.payload)
			c.Request = httptest.NewRequest(http.MethodPost, "/users", bytes.NewBuffer(body))
			c.Request.Header.Set("Content-Type", "application/json")

			handler.RegisterUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestToggleUserStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service, store := newTestService(t)
	handler := NewHandler(service, zap.NewNop())
	actor := seededAdmin(t, service, store)
	ctx := context.Background()

	user, err := store.GetAccountByUsername(ctx, "user")
	require.NoError(t, err)

	c, w := setupTestContext(actor)
	c.Params = gin.Params{{Key: "id", Value: user.ID}}
	c.Request = httptest.NewRequest(http.MethodPatch, "/users/"+user.ID+"/status", nil)
	handler.ToggleUserStatus(c)
	require.Equal(t, http.StatusOK, w.Code)

	_, err = security.AuthenticateUser(ctx, store, "user", "user")
	assert.ErrorIs(t, err, security.ErrAccountInactive)

	logs, err := store.ListLogs(ctx, storage.LogFilter{Action: string(metadata.ActionToggleUserStatus)})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Deactivated user account: user", logs[0].Details)

	c, w = setupTestContext(actor)
	c.Params = gin.Params{{Key: "id", Value: actor.UserID}}
	c.Request = httptest.NewRequest(http.MethodPatch, "/users/"+actor.UserID+"/status", nil)
	handler.ToggleUserStatus(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service, store := newTestService(t)
	handler := NewHandler(service, zap.NewNop())
	actor := seededAdmin(t, service, store)
	user, err := store.GetAccountByUsername(context.Background(), "user")
	require.NoError(t, err)

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{"self delete", actor.UserID, http.StatusForbidden},
		{"delete other", user.ID, http.StatusOK},
		{"already deleted", user.ID, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTestContext(actor)
			c.Params = gin.Params{{Key: "id", Value: tt.id}}
			c.Request = httptest.NewRequest(http.MethodDelete, "/users/"+tt.id, nil)

			handler.DeleteUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
