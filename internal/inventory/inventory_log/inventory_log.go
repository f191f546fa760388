package inventorylog

import (
	"context"
	"fmt"
	"strings"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/auditlog"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

// InventoryLog composes the human readable details of activity log entries.
type InventoryLog struct {
	a *auditlog.Auditlog
}

func NewInventoryLog(a *auditlog.Auditlog) *InventoryLog {
	return &InventoryLog{a: a}
}

func (s *InventoryLog) CreateBorrowLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, record *models.BorrowRecord, assets []models.Asset) error {
	if actor.Guest {
		return s.append(ctx, q, actor, metadata.ActionGuestBorrow,
			fmt.Sprintf("Guest %s (%s) meminjam %d asset(s)", record.EmployeeName, record.EmployeeID, len(record.Assets)))
	}

	return s.append(ctx, q, actor, metadata.ActionCreateBorrow,
		fmt.Sprintf("Created borrow record %s for %s with assets: %s",
			record.ID, record.EmployeeName, strings.Join(models.AssetNames(assets), ", ")))
}

func (s *InventoryLog) CreateReturnLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, record *models.BorrowRecord, assets []models.Asset) error {
	if actor.Guest {
		return s.append(ctx, q, actor, metadata.ActionGuestReturn,
			fmt.Sprintf("Guest mengembalikan peminjaman %s", record.ID))
	}

	return s.append(ctx, q, actor, metadata.ActionProcessReturn,
		fmt.Sprintf("Processed return for borrow ID %s from %s. Assets returned: %s",
			record.ID, record.EmployeeName, strings.Join(models.AssetNames(assets), ", ")))
}

// CreateWebhookLogEntry records the outcome of a delivery attempt. It never
// fails the caller.
func (s *InventoryLog) CreateWebhookLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, event models.WebhookEvent, borrowID string, deliveryErr error) {
	if deliveryErr != nil {
		s.a.Log(ctx, q, actor.Username, metadata.ActionWebhookFailed,
			fmt.Sprintf("Failed to send %s webhook for %s", event, borrowID))
		return
	}

	s.a.Log(ctx, q, actor.Username, metadata.ActionWebhookSent,
		fmt.Sprintf("%s webhook sent for %s", capitalize(string(event)), borrowID))
}

func (s *InventoryLog) CreateAssetLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, action metadata.Action, asset *models.Asset) error {
	var details string
	switch action {
	case metadata.ActionCreateAsset:
		details = "Created new asset: " + asset.Name
	case metadata.ActionUpdateAsset:
		details = "Updated asset: " + asset.Name
	default:
		details = "Deleted asset: " + asset.Name
	}
	return s.append(ctx, q, actor, action, details)
}

func (s *InventoryLog) CreateCategoryLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, action metadata.Action, category *models.Category) error {
	var details string
	switch action {
	case metadata.ActionCreateCategory:
		details = "Created new category: " + category.Name
	case metadata.ActionUpdateCategory:
		details = "Updated category: " + category.Name
	default:
		details = "Deleted category: " + category.Name
	}
	return s.append(ctx, q, actor, action, details)
}

func (s *InventoryLog) CreateAccountLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, action metadata.Action, account *models.UserAccount) error {
	var details string
	switch action {
	case metadata.ActionCreateUser:
		details = fmt.Sprintf("Created user account: %s (%s)", account.Username, account.Role)
	case metadata.ActionUpdateUser:
		details = fmt.Sprintf("Updated user account: %s (%s)", account.Username, account.Role)
	case metadata.ActionToggleUserStatus:
		verb := "Deactivated"
		if account.IsActive {
			verb = "Activated"
		}
		details = fmt.Sprintf("%s user account: %s", verb, account.Username)
	default:
		details = "Deleted user account: " + account.Username
	}
	return s.append(ctx, q, actor, action, details)
}

func (s *InventoryLog) CreateSessionLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, action metadata.Action) {
	details := fmt.Sprintf("User %s logged out", actor.Username)
	if action == metadata.ActionLogin {
		details = fmt.Sprintf("User %s logged in as %s", actor.Username, actor.Role)
	}
	s.a.Log(ctx, q, actor.Username, action, details)
}

func (s *InventoryLog) CreateWebhookConfigLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, config *models.WebhookConfig) error {
	return s.append(ctx, q, actor, metadata.ActionUpdateWebhook,
		fmt.Sprintf("Updated webhook configuration - Borrow: %s, Return: %s", setOrEmpty(config.BorrowWebhook), setOrEmpty(config.ReturnWebhook)))
}

func (s *InventoryLog) CreateWebhookTestLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, event models.WebhookEvent, url string, testErr error) {
	if testErr != nil {
		s.a.Log(ctx, q, actor.Username, metadata.ActionTestWebhookFail,
			fmt.Sprintf("Failed to test %s webhook: %s - %s", event, url, testErr))
		return
	}

	s.a.Log(ctx, q, actor.Username, metadata.ActionTestWebhook,
		fmt.Sprintf("Successfully tested %s webhook: %s", event, url))
}

// CreateExchangeLogEntry records exports and imports; details name the
// format or the source.
func (s *InventoryLog) CreateExchangeLogEntry(ctx context.Context, q storage.LogQueries, actor models.Actor, action metadata.Action, subject string) error {
	var details string
	switch action {
	case metadata.ActionExport:
		details = "Data exported to JSON"
	case metadata.ActionExportSQL:
		details = "Data exported to SQL format"
	case metadata.ActionExportXLSX:
		details = "Data exported to XLSX format"
	case metadata.ActionArchiveExport:
		details = "Data archived to " + subject
	default:
		details = "Data imported from " + subject
	}
	return s.append(ctx, q, actor, action, details)
}

func (s *InventoryLog) append(ctx context.Context, q storage.LogQueries, actor models.Actor, action metadata.Action, details string) error {
	_, err := s.a.Append(ctx, q, actor.Username, action, details)
	return err
}

func setOrEmpty(url string) string {
	if url == "" {
		return "Empty"
	}
	return "Set"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
