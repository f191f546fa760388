package memory

import (
	"context"
	"sort"
	"time"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

func (q *queries) GetWebhookConfig(_ context.Context) (*models.WebhookConfig, error) {
	d, release := q.acquire()
	defer release()

	config := d.webhook
	return &config, nil
}

func (q *queries) SaveWebhookConfig(_ context.Context, config *models.WebhookConfig) error {
	d, release := q.acquire()
	defer release()

	d.webhook = *config
	return nil
}

func (q *queries) EnqueueDelivery(_ context.Context, delivery *models.WebhookDelivery) error {
	d, release := q.acquire()
	defer release()

	if _, ok := d.deliveries[delivery.ID]; ok {
		return storage.ErrConflict
	}
	d.deliveries[delivery.ID] = cloneDelivery(*delivery)
	return nil
}

func (q *queries) GetDelivery(_ context.Context, id string) (*models.WebhookDelivery, error) {
	d, release := q.acquire()
	defer release()

	delivery, ok := d.deliveries[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delivery = cloneDelivery(delivery)
	return &delivery, nil
}

func (q *queries) ListDeliveries(_ context.Context, filter storage.DeliveryFilter) ([]models.WebhookDelivery, error) {
	d, release := q.acquire()
	defer release()

	deliveries := make([]models.WebhookDelivery, 0, len(d.deliveries))
	for _, delivery := range d.deliveries {
		if filter.Matches(&delivery) {
			deliveries = append(deliveries, cloneDelivery(delivery))
		}
	}
	sort.Slice(deliveries, func(i, j int) bool {
		if deliveries[i].CreatedAt.Equal(deliveries[j].CreatedAt) {
			return deliveries[i].ID < deliveries[j].ID
		}
		return deliveries[i].CreatedAt.Before(deliveries[j].CreatedAt)
	})
	if filter.Limit > 0 && len(deliveries) > filter.Limit {
		deliveries = deliveries[:filter.Limit]
	}
	return deliveries, nil
}

func (q *queries) ClaimDelivery(_ context.Context, id string, dueBefore, leaseUntil time.Time) (bool, error) {
	d, release := q.acquire()
	defer release()

	delivery, ok := d.deliveries[id]
	if !ok || delivery.Status != metadata.DeliveryPending || delivery.NextAttemptAt.After(dueBefore) {
		return false, nil
	}
	delivery.NextAttemptAt = leaseUntil
	d.deliveries[id] = delivery
	return true, nil
}

func (q *queries) UpdateDelivery(_ context.Context, delivery *models.WebhookDelivery) error {
	d, release := q.acquire()
	defer release()

	current, ok := d.deliveries[delivery.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if current.Status != metadata.DeliveryPending {
		return storage.ErrConflict
	}
	d.deliveries[delivery.ID] = cloneDelivery(*delivery)
	return nil
}
