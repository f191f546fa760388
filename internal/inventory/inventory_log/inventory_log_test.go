package inventorylog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/internal/storage/memory"
	"github.com/aleciaid/crm-bj/pkg/auditlog"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/roles"
)

func newInventoryLog() (*InventoryLog, *memory.Store) {
	return NewInventoryLog(auditlog.NewAuditLog(zap.NewNop())), memory.NewStore()
}

func onlyEntry(t *testing.T, store *memory.Store) models.LogEntry {
	t.Helper()
	logs, err := store.ListLogs(context.Background(), storage.LogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	return logs[0]
}

func TestCreateBorrowLogEntry(t *testing.T) {
	record := &models.BorrowRecord{ID: "BRW-1", EmployeeID: "EMP001", EmployeeName: "Budi", Assets: []string{"a1", "a2"}}
	assets := []models.Asset{{Name: "Laptop"}, {Name: "Proyektor"}}

	t.Run("staff", func(t *testing.T) {
		l, store := newInventoryLog()
		require.NoError(t, l.CreateBorrowLogEntry(context.Background(), store, models.Actor{Username: "admin"}, record, assets))

		entry := onlyEntry(t, store)
		assert.Equal(t, "Create Borrow", entry.Action)
		assert.Equal(t, "Created borrow record BRW-1 for Budi with assets: Laptop, Proyektor", entry.Details)
	})

	t.Run("guest", func(t *testing.T) {
		l, store := newInventoryLog()
		require.NoError(t, l.CreateBorrowLogEntry(context.Background(), store, models.GuestActor(), record, assets))

		entry := onlyEntry(t, store)
		assert.Equal(t, "Guest", entry.User)
		assert.Equal(t, "Borrow", entry.Action)
		assert.Equal(t, "Guest Budi (EMP001) meminjam 2 asset(s)", entry.Details)
	})
}

func TestCreateWebhookLogEntry(t *testing.T) {
	l, store := newInventoryLog()
	ctx := context.Background()

	l.CreateWebhookLogEntry(ctx, store, models.Actor{Username: "admin"}, models.WebhookReturn, "BRW-1", nil)
	l.CreateWebhookLogEntry(ctx, store, models.Actor{Username: "admin"}, models.WebhookBorrow, "BRW-2", errors.New("timeout"))

	sent, err := store.ListLogs(ctx, storage.LogFilter{Action: string(metadata.ActionWebhookSent)})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "Return webhook sent for BRW-1", sent[0].Details)

	failed, err := store.ListLogs(ctx, storage.LogFilter{Action: string(metadata.ActionWebhookFailed)})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "Failed to send borrow webhook for BRW-2", failed[0].Details)
}

func TestCreateAccountLogEntry_Toggle(t *testing.T) {
	l, store := newInventoryLog()
	account := &models.UserAccount{Username: "budi", Role: roles.User, IsActive: false}

	require.NoError(t, l.CreateAccountLogEntry(context.Background(), store, models.Actor{Username: "admin"}, metadata.ActionToggleUserStatus, account))

	assert.Equal(t, "Deactivated user account: budi", onlyEntry(t, store).Details)
}

func TestCreateWebhookConfigLogEntry(t *testing.T) {
	l, store := newInventoryLog()
	config := &models.WebhookConfig{BorrowWebhook: "https://hooks.example.com/borrow"}

	require.NoError(t, l.CreateWebhookConfigLogEntry(context.Background(), store, models.Actor{Username: "admin"}, config))

	assert.Equal(t, "Updated webhook configuration - Borrow: Set, Return: Empty", onlyEntry(t, store).Details)
}

func TestCreateSessionLogEntry(t *testing.T) {
	l, store := newInventoryLog()

	l.CreateSessionLogEntry(context.Background(), store, models.Actor{Username: "admin", Role: roles.Admin}, metadata.ActionLogin)

	assert.Equal(t, "User admin logged in as admin", onlyEntry(t, store).Details)
}
