package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const (
	webhookConfigTable = "webhook_config"
	deliveriesTable    = "webhook_deliveries"
	webhookConfigRowID = 1
)

type flatWebhookConfig struct {
	ID            int    `db:"id"`
	BorrowWebhook string `db:"borrow_webhook"`
	ReturnWebhook string `db:"return_webhook"`
}

func (q *queries) GetWebhookConfig(ctx context.Context) (*models.WebhookConfig, error) {
	var flat flatWebhookConfig
	_, err := q.db.From(webhookConfigTable).Where(goqu.Ex{"id": webhookConfigRowID}).ScanStructContext(ctx, &flat)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch webhook config: %w", err)
	}

	return &models.WebhookConfig{
		BorrowWebhook: flat.BorrowWebhook,
		ReturnWebhook: flat.ReturnWebhook,
	}, nil
}

func (q *queries) SaveWebhookConfig(ctx context.Context, config *models.WebhookConfig) error {
	_, err := q.db.Insert(webhookConfigTable).
		Rows(goqu.Record{
			"id":             webhookConfigRowID,
			"borrow_webhook": config.BorrowWebhook,
			"return_webhook": config.ReturnWebhook,
		}).
		OnConflict(
			goqu.DoUpdate(
				"id",
				goqu.Record{
					"borrow_webhook": goqu.L("EXCLUDED.borrow_webhook"),
					"return_webhook": goqu.L("EXCLUDED.return_webhook"),
				},
			),
		).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to save webhook config: %w", err)
	}

	return nil
}

func deliveryRecord(d *models.WebhookDelivery) goqu.Record {
	record := goqu.Record{
		"id":              d.ID,
		"event":           string(d.Event),
		"borrow_id":       d.BorrowID,
		"url":             d.URL,
		"payload":         string(d.Payload),
		"status":          string(d.Status),
		"attempts":        d.Attempts,
		"next_attempt_at": d.NextAttemptAt,
		"last_error":      d.LastError,
		"created_at":      d.CreatedAt,
		"delivered_at":    nil,
	}
	if d.DeliveredAt != nil {
		record["delivered_at"] = *d.DeliveredAt
	}
	return record
}

func (q *queries) EnqueueDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	_, err := q.db.Insert(deliveriesTable).Rows(deliveryRecord(delivery)).Executor().ExecContext(ctx)
	return mapError(err, "failed to enqueue webhook delivery")
}

func (q *queries) GetDelivery(ctx context.Context, id string) (*models.WebhookDelivery, error) {
	var flat models.FlatWebhookDelivery
	found, err := q.db.From(deliveriesTable).Where(goqu.Ex{"id": id}).ScanStructContext(ctx, &flat)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch webhook delivery: %w", err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	delivery := flat.TransformToDelivery()
	return &delivery, nil
}

func (q *queries) ListDeliveries(ctx context.Context, filter storage.DeliveryFilter) ([]models.WebhookDelivery, error) {
	builder := NewQueryBuilder()
	builder.AddCondition("status", string(filter.Status))

	query := q.db.From(deliveriesTable).
		Where(builder.BuildConditions(nil)).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
	if filter.DueBefore != nil {
		query = query.Where(goqu.C("next_attempt_at").Lte(*filter.DueBefore))
	}
	if filter.Limit > 0 {
		query = query.Limit(uint(filter.Limit))
	}

	var flat []models.FlatWebhookDelivery
	if err := query.ScanStructsContext(ctx, &flat); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	deliveries := make([]models.WebhookDelivery, 0, len(flat))
	for i := range flat {
		deliveries = append(deliveries, flat[i].TransformToDelivery())
	}

	return deliveries, nil
}

func claimDeliveryQuery(db queryRunner, id string, dueBefore, leaseUntil time.Time) *goqu.UpdateDataset {
	return db.Update(deliveriesTable).
		Set(goqu.Record{"next_attempt_at": leaseUntil}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("status").Eq(string(metadata.DeliveryPending)),
			goqu.C("next_attempt_at").Lte(dueBefore),
		)
}

func (q *queries) ClaimDelivery(ctx context.Context, id string, dueBefore, leaseUntil time.Time) (bool, error) {
	result, err := claimDeliveryQuery(q.db, id, dueBefore, leaseUntil).Executor().ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook delivery: %w", err)
	}

	claimed, err := rowsAffected(result, "failed to claim webhook delivery")
	return claimed == 1, err
}

func updateDeliveryQuery(db queryRunner, delivery *models.WebhookDelivery) *goqu.UpdateDataset {
	record := deliveryRecord(delivery)
	delete(record, "id")

	return db.Update(deliveriesTable).
		Set(record).
		Where(
			goqu.C("id").Eq(delivery.ID),
			goqu.C("status").Eq(string(metadata.DeliveryPending)),
		)
}

func (q *queries) UpdateDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	result, err := updateDeliveryQuery(q.db, delivery).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update webhook delivery: %w", err)
	}

	updated, err := rowsAffected(result, "failed to update webhook delivery")
	if err != nil {
		return err
	}
	if updated == 0 {
		return fmt.Errorf("webhook delivery %s is no longer pending: %w", delivery.ID, storage.ErrConflict)
	}
	return nil
}
