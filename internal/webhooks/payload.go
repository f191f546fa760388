package webhooks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aleciaid/crm-bj/internal/inventory/loans"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	EventTestBorrow = "test_borrow"
	EventTestReturn = "test_return"
)

type Payload struct {
	Type         string               `json:"type"`
	Timestamp    string               `json:"timestamp"`
	BorrowRecord *models.BorrowRecord `json:"borrowRecord"`
	Assets       []models.Asset       `json:"assets"`
	Summary      any                  `json:"summary"`
}

type BorrowSummary struct {
	BorrowID     string      `json:"borrowId"`
	EmployeeID   string      `json:"employeeId"`
	EmployeeName string      `json:"employeeName"`
	TotalAssets  int         `json:"totalAssets"`
	Duration     int         `json:"duration"`
	Purpose      string      `json:"purpose"`
	BorrowDate   models.Date `json:"borrowDate"`
}

type ReturnSummary struct {
	BorrowID       string      `json:"borrowId"`
	EmployeeID     string      `json:"employeeId"`
	EmployeeName   string      `json:"employeeName"`
	TotalAssets    int         `json:"totalAssets"`
	BorrowDate     models.Date `json:"borrowDate"`
	ReturnDate     models.Date `json:"returnDate"`
	Duration       int         `json:"duration"`
	ActualDuration int         `json:"actualDuration"`
}

// TestPayload is sent by the settings page; it never touches the outbox.
type TestPayload struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	TestData  any    `json:"testData"`
}

func BorrowPayload(record *models.BorrowRecord, assets []models.Asset, at time.Time) Payload {
	return Payload{
		Type:         string(models.WebhookBorrow),
		Timestamp:    formatTimestamp(at),
		BorrowRecord: record,
		Assets:       referencedAssets(record, assets),
		Summary: BorrowSummary{
			BorrowID:     record.ID,
			EmployeeID:   record.EmployeeID,
			EmployeeName: record.EmployeeName,
			TotalAssets:  len(record.Assets),
			Duration:     record.DurationDays,
			Purpose:      record.Purpose,
			BorrowDate:   record.BorrowDate,
		},
	}
}

func ReturnPayload(record *models.BorrowRecord, assets []models.Asset, at time.Time) Payload {
	summary := ReturnSummary{
		BorrowID:     record.ID,
		EmployeeID:   record.EmployeeID,
		EmployeeName: record.EmployeeName,
		TotalAssets:  len(record.Assets),
		BorrowDate:   record.BorrowDate,
		Duration:     record.DurationDays,
	}
	if record.ReturnDate != nil {
		summary.ReturnDate = *record.ReturnDate
		summary.ActualDuration = loans.ActualDuration(record.BorrowDate, *record.ReturnDate)
	}

	return Payload{
		Type:         string(models.WebhookReturn),
		Timestamp:    formatTimestamp(at),
		BorrowRecord: record,
		Assets:       referencedAssets(record, assets),
		Summary:      summary,
	}
}

func NewTestPayload(event models.WebhookEvent, at time.Time) (TestPayload, error) {
	today := models.NewDate(at)

	switch event {
	case models.WebhookBorrow:
		return TestPayload{
			Type:      EventTestBorrow,
			Timestamp: formatTimestamp(at),
			Message:   "Test webhook untuk peminjaman dari CIMBJ Inventory System",
			TestData: BorrowSummary{
				BorrowID:     "BRW-TEST123",
				EmployeeID:   "EMP001",
				EmployeeName: "Test Employee",
				TotalAssets:  2,
				Duration:     7,
				Purpose:      "Testing webhook integration",
				BorrowDate:   today,
			},
		}, nil
	case models.WebhookReturn:
		return TestPayload{
			Type:      EventTestReturn,
			Timestamp: formatTimestamp(at),
			Message:   "Test webhook untuk pengembalian dari CIMBJ Inventory System",
			TestData: ReturnSummary{
				BorrowID:       "BRW-TEST123",
				EmployeeID:     "EMP001",
				EmployeeName:   "Test Employee",
				TotalAssets:    2,
				BorrowDate:     today.AddDays(-7),
				ReturnDate:     today,
				Duration:       7,
				ActualDuration: 7,
			},
		}, nil
	default:
		return TestPayload{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

func encode(payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	return body, nil
}

func referencedAssets(record *models.BorrowRecord, assets []models.Asset) []models.Asset {
	out := make([]models.Asset, 0, len(record.Assets))
	for _, a := range assets {
		if record.HasAsset(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

func formatTimestamp(at time.Time) string {
	return at.UTC().Format(timestampLayout)
}
