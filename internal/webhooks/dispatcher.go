package webhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

const (
	defaultBatchSize = 50
	defaultLease     = time.Minute
)

// errSettled means another worker recorded the outcome of this delivery first.
var errSettled = errors.New("webhook delivery settled elsewhere")

type Options struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	BatchSize   int
	// Lease is how long an attempt owns a delivery before DispatchDue may
	// pick it up again. Defaults to twice the sender timeout.
	Lease time.Duration
}

// Dispatcher owns the webhook outbox: it enqueues deliveries inside the
// caller's transaction and retries pending ones with capped exponential
// backoff until they succeed or run out of attempts.
type Dispatcher struct {
	store        storage.Store
	sender       *Sender
	inventoryLog *inventorylog.InventoryLog
	opts         Options
	logger       *zap.Logger
	now          func() time.Time
}

func NewDispatcher(store storage.Store, sender *Sender, inventoryLog *inventorylog.InventoryLog, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Lease <= 0 {
		opts.Lease = 2 * sender.Timeout()
		if opts.Lease <= 0 {
			opts.Lease = defaultLease
		}
	}
	return &Dispatcher{
		store:        store,
		sender:       sender,
		inventoryLog: inventoryLog,
		opts:         opts,
		logger:       logger,
		now:          time.Now,
	}
}

func (d *Dispatcher) Enqueue(ctx context.Context, q storage.Queries, event models.WebhookEvent, record *models.BorrowRecord, assets []models.Asset) (*models.WebhookDelivery, error) {
	config, err := q.GetWebhookConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load webhook config: %w", err)
	}

	var url string
	var payload Payload
	now := d.now()
	switch event {
	case models.WebhookBorrow:
		url = config.BorrowWebhook
		payload = BorrowPayload(record, assets, now)
	case models.WebhookReturn:
		url = config.ReturnWebhook
		payload = ReturnPayload(record, assets, now)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	if url == "" {
		return nil, nil
	}

	body, err := encode(payload)
	if err != nil {
		return nil, err
	}

	delivery := &models.WebhookDelivery{
		ID:            uuid.New().String(),
		Event:         event,
		BorrowID:      record.ID,
		URL:           url,
		Payload:       body,
		Status:        metadata.DeliveryPending,
		NextAttemptAt: now.Add(d.opts.Lease),
		CreatedAt:     now,
	}
	if err := q.EnqueueDelivery(ctx, delivery); err != nil {
		return nil, fmt.Errorf("failed to enqueue webhook delivery: %w", err)
	}
	return delivery, nil
}

// DeliverNow makes the first attempt right after the domain change commits.
// Enqueue leased the row to this attempt, so DispatchDue leaves it alone.
func (d *Dispatcher) DeliverNow(ctx context.Context, delivery *models.WebhookDelivery) error {
	if err := d.attempt(ctx, delivery); !errors.Is(err, errSettled) {
		return err
	}
	return nil
}

// DispatchDue retries every pending delivery whose next attempt is due and
// returns how many were delivered.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := d.now()
	due, err := d.store.ListDeliveries(ctx, storage.DeliveryFilter{
		Status:    metadata.DeliveryPending,
		DueBefore: &now,
		Limit:     d.opts.BatchSize,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list due deliveries: %w", err)
	}

	delivered := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		delivery := &due[i]
		claimed, err := d.store.ClaimDelivery(ctx, delivery.ID, now, d.now().Add(d.opts.Lease))
		if err != nil {
			return delivered, fmt.Errorf("failed to claim webhook delivery: %w", err)
		}
		if !claimed {
			continue
		}

		err = d.attempt(ctx, delivery)
		switch {
		case errors.Is(err, errSettled):
			continue
		case err == nil:
			delivered++
			d.inventoryLog.CreateWebhookLogEntry(ctx, d.store, models.SystemActor(), delivery.Event, delivery.BorrowID, nil)
		case delivery.Status == metadata.DeliveryFailed:
			d.logger.Error("Webhook delivery gave up",
				zap.String("delivery_id", delivery.ID),
				zap.String("borrow_id", delivery.BorrowID),
				zap.Int("attempts", delivery.Attempts),
				zap.Error(err),
			)
			d.inventoryLog.CreateWebhookLogEntry(ctx, d.store, models.SystemActor(), delivery.Event, delivery.BorrowID, err)
		default:
			d.logger.Warn("Webhook delivery failed, rescheduled",
				zap.String("delivery_id", delivery.ID),
				zap.Time("next_attempt_at", delivery.NextAttemptAt),
				zap.Error(err),
			)
		}
	}

	return delivered, nil
}

func (d *Dispatcher) ListDeliveries(ctx context.Context, filter storage.DeliveryFilter) ([]models.WebhookDelivery, error) {
	return d.store.ListDeliveries(ctx, filter)
}

func (d *Dispatcher) attempt(ctx context.Context, delivery *models.WebhookDelivery) error {
	sendErr := d.sender.Send(ctx, delivery.URL, delivery.Payload)

	now := d.now()
	delivery.Attempts++
	if sendErr == nil {
		delivery.Status = metadata.DeliveryDelivered
		delivery.DeliveredAt = &now
		delivery.LastError = ""
	} else {
		delivery.LastError = sendErr.Error()
		if delivery.Attempts >= d.opts.MaxAttempts {
			delivery.Status = metadata.DeliveryFailed
		} else {
			delivery.NextAttemptAt = now.Add(d.backoff(delivery.Attempts))
		}
	}

	if err := d.store.UpdateDelivery(ctx, delivery); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			d.logger.Warn("Webhook delivery already settled, attempt discarded",
				zap.String("delivery_id", delivery.ID),
				zap.Error(sendErr),
			)
			return errSettled
		}
		return errors.Join(sendErr, fmt.Errorf("failed to record delivery attempt: %w", err))
	}
	return sendErr
}

// backoff is the wait after the given number of failed attempts.
func (d *Dispatcher) backoff(attempts int) time.Duration {
	if d.opts.BackoffBase <= 0 {
		return 0
	}

	b := retry.NewExponential(d.opts.BackoffBase)
	if d.opts.BackoffCap > 0 {
		b = retry.WithCappedDuration(d.opts.BackoffCap, b)
	}

	var delay time.Duration
	for i := 0; i < attempts; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		delay = next
	}
	return delay
}
