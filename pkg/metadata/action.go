package metadata

import "strings"

// Action is the free-form tag stored on an activity log entry. The constants
// below are the tags the service itself writes; imported or manually edited
// entries may carry anything.
type Action string

const (
	ActionLogin            Action = "Login"
	ActionLogout           Action = "Logout"
	ActionCreateAsset      Action = "Create Asset"
	ActionUpdateAsset      Action = "Update Asset"
	ActionDeleteAsset      Action = "Delete Asset"
	ActionCreateCategory   Action = "Create Category"
	ActionUpdateCategory   Action = "Update Category"
	ActionDeleteCategory   Action = "Delete Category"
	ActionCreateBorrow     Action = "Create Borrow"
	ActionProcessReturn    Action = "Process Return"
	ActionGuestBorrow      Action = "Borrow"
	ActionGuestReturn      Action = "Return"
	ActionWebhookSent      Action = "Webhook Sent"
	ActionWebhookFailed    Action = "Webhook Failed"
	ActionUpdateWebhook    Action = "Update Webhook"
	ActionTestWebhook      Action = "Test Webhook"
	ActionTestWebhookFail  Action = "Test Webhook Failed"
	ActionCreateUser       Action = "Create User"
	ActionUpdateUser       Action = "Update User"
	ActionDeleteUser       Action = "Delete User"
	ActionToggleUserStatus Action = "Toggle User Status"
	ActionExport           Action = "Export"
	ActionExportSQL        Action = "Export SQL"
	ActionExportXLSX       Action = "Export XLSX"
	ActionArchiveExport    Action = "Archive Export"
	ActionImport           Action = "Import"
)

var knownActions = []Action{
	ActionLogin, ActionLogout,
	ActionCreateAsset, ActionUpdateAsset, ActionDeleteAsset,
	ActionCreateCategory, ActionUpdateCategory, ActionDeleteCategory,
	ActionCreateBorrow, ActionProcessReturn, ActionGuestBorrow, ActionGuestReturn,
	ActionWebhookSent, ActionWebhookFailed, ActionUpdateWebhook, ActionTestWebhook, ActionTestWebhookFail,
	ActionCreateUser, ActionUpdateUser, ActionDeleteUser, ActionToggleUserStatus,
	ActionExport, ActionExportSQL, ActionExportXLSX, ActionArchiveExport, ActionImport,
}

// NewAction trims and collapses inner whitespace of a manually entered tag.
func NewAction(value string) Action {
	return Action(strings.Join(strings.Fields(value), " "))
}

func (a Action) IsKnown() bool {
	for _, known := range knownActions {
		if a == known {
			return true
		}
	}
	return false
}

func (a Action) String() string {
	return string(a)
}

// KnownActions lists the tags written by the service, in a stable order.
func KnownActions() []Action {
	out := make([]Action, len(knownActions))
	copy(out, knownActions)
	return out
}
