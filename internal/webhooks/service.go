package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

// ConfigService reads and saves the webhook URLs and runs manual tests.
type ConfigService struct {
	store        storage.Store
	sender       *Sender
	inventoryLog *inventorylog.InventoryLog
	validate     *validation.Validator
	now          func() time.Time
}

func NewConfigService(store storage.Store, sender *Sender, inventoryLog *inventorylog.InventoryLog) *ConfigService {
	return &ConfigService{
		store:        store,
		sender:       sender,
		inventoryLog: inventoryLog,
		validate:     validation.New(),
		now:          time.Now,
	}
}

func (s *ConfigService) Get(ctx context.Context) (*models.WebhookConfig, error) {
	return s.store.GetWebhookConfig(ctx)
}

func (s *ConfigService) Save(ctx context.Context, actor models.Actor, config models.WebhookConfig) (*models.WebhookConfig, error) {
	config.BorrowWebhook = strings.TrimSpace(config.BorrowWebhook)
	config.ReturnWebhook = strings.TrimSpace(config.ReturnWebhook)
	if err := s.validate.Struct(config); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		if err := q.SaveWebhookConfig(ctx, &config); err != nil {
			return err
		}
		return s.inventoryLog.CreateWebhookConfigLogEntry(ctx, q, actor, &config)
	})
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// Test posts a sample payload straight to url and logs the outcome.
func (s *ConfigService) Test(ctx context.Context, actor models.Actor, event models.WebhookEvent, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return validation.Field("url", "required")
	}
	if err := s.validate.Struct(models.WebhookConfig{BorrowWebhook: url}); err != nil {
		return validation.Field("url", "url")
	}

	payload, err := NewTestPayload(event, s.now())
	if err != nil {
		return validation.Field("type", "oneof")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode test payload: %w", err)
	}

	sendErr := s.sender.Send(ctx, url, body)
	s.inventoryLog.CreateWebhookTestLogEntry(ctx, s.store, actor, event, url, sendErr)
	return sendErr
}
