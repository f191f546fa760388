package models

import (
	"encoding/json"
	"time"

	"github.com/aleciaid/crm-bj/pkg/metadata"
)

// WebhookConfig holds the outbound URLs; an empty string disables the event.
type WebhookConfig struct {
	BorrowWebhook string `json:"borrowWebhook" validate:"omitempty,url,startswith=http"`
	ReturnWebhook string `json:"returnWebhook" validate:"omitempty,url,startswith=http"`
}

type WebhookEvent string

const (
	WebhookBorrow WebhookEvent = "borrow"
	WebhookReturn WebhookEvent = "return"
)

// WebhookDelivery is one outbox row: a payload waiting to be POSTed.
type WebhookDelivery struct {
	ID            string                  `json:"id"`
	Event         WebhookEvent            `json:"event"`
	BorrowID      string                  `json:"borrowId"`
	URL           string                  `json:"url"`
	Payload       json.RawMessage         `json:"payload"`
	Status        metadata.DeliveryStatus `json:"status"`
	Attempts      int                     `json:"attempts"`
	NextAttemptAt time.Time               `json:"nextAttemptAt"`
	LastError     string                  `json:"lastError,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	DeliveredAt   *time.Time              `json:"deliveredAt,omitempty"`
}

type FlatWebhookDelivery struct {
	ID            string     `db:"id"`
	Event         string     `db:"event"`
	BorrowID      string     `db:"borrow_id"`
	URL           string     `db:"url"`
	Payload       []byte     `db:"payload"`
	Status        string     `db:"status"`
	Attempts      int        `db:"attempts"`
	NextAttemptAt time.Time  `db:"next_attempt_at"`
	LastError     string     `db:"last_error"`
	CreatedAt     time.Time  `db:"created_at"`
	DeliveredAt   *time.Time `db:"delivered_at"`
}

func (f *FlatWebhookDelivery) TransformToDelivery() WebhookDelivery {
	return WebhookDelivery{
		ID:            f.ID,
		Event:         WebhookEvent(f.Event),
		BorrowID:      f.BorrowID,
		URL:           f.URL,
		Payload:       json.RawMessage(f.Payload),
		Status:        metadata.DeliveryStatus(f.Status),
		Attempts:      f.Attempts,
		NextAttemptAt: f.NextAttemptAt,
		LastError:     f.LastError,
		CreatedAt:     f.CreatedAt,
		DeliveredAt:   f.DeliveredAt,
	}
}
