package loans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	inventorylog "github.com/aleciaid/crm-bj/internal/inventory/inventory_log"
	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
	"github.com/aleciaid/crm-bj/pkg/validation"
)

// Notifier turns borrow and return events into outbox deliveries.
type Notifier interface {
	// Enqueue stores a pending delivery through q. It returns nil when no URL
	// is configured for the event.
	Enqueue(ctx context.Context, q storage.Queries, event models.WebhookEvent, record *models.BorrowRecord, assets []models.Asset) (*models.WebhookDelivery, error)
	// DeliverNow makes one delivery attempt and records its outcome.
	DeliverNow(ctx context.Context, delivery *models.WebhookDelivery) error
}

type LoanService struct {
	store        storage.Store
	inventoryLog *inventorylog.InventoryLog
	notifier     Notifier
	ids          *IDGenerator
	validate     *validation.Validator
	logger       *zap.Logger
	now          func() time.Time
}

func NewLoanService(store storage.Store, inventoryLog *inventorylog.InventoryLog, notifier Notifier, logger *zap.Logger, now func() time.Time) *LoanService {
	if now == nil {
		now = time.Now
	}
	return &LoanService{
		store:        store,
		inventoryLog: inventoryLog,
		notifier:     notifier,
		ids:          NewIDGenerator(now),
		validate:     validation.New(),
		logger:       logger,
		now:          now,
	}
}

// CreateLoan lends every requested asset or none of them.
func (s *LoanService) CreateLoan(ctx context.Context, actor models.Actor, req models.BorrowRequest) (*models.BorrowRecord, error) {
	req = normalizeRequest(req)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	record := &models.BorrowRecord{
		ID:           s.ids.Next(),
		EmployeeID:   req.EmployeeID,
		EmployeeName: req.EmployeeName,
		Assets:       req.Assets,
		DurationDays: req.DurationDays,
		Purpose:      req.Purpose,
		Status:       metadata.LoanBorrowed,
		BorrowDate:   models.NewDate(s.now()),
	}

	var delivery *models.WebhookDelivery
	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		assets, err := q.GetAssets(ctx, record.Assets)
		if err != nil {
			return err
		}
		assets = orderAssets(record.Assets, assets)

		if missing := missingAssets(record.Assets, assets); len(missing) > 0 {
			return &AssetError{Err: ErrAssetNotFound, AssetIDs: missing}
		}
		var unavailable []string
		for _, a := range assets {
			if !a.IsAvailable() {
				unavailable = append(unavailable, a.ID)
			}
		}
		if len(unavailable) > 0 {
			return &AssetError{Err: ErrAssetUnavailable, AssetIDs: unavailable}
		}

		moved, err := q.SetAssetStatus(ctx, record.Assets, metadata.AssetInStock, metadata.AssetBorrowed)
		if err != nil {
			return err
		}
		if moved != int64(len(record.Assets)) {
			return &AssetError{Err: ErrAssetUnavailable, AssetIDs: record.Assets}
		}
		for i := range assets {
			assets[i].Status = metadata.AssetBorrowed
		}

		if err := q.InsertLoan(ctx, record); err != nil {
			return fmt.Errorf("failed to insert borrow record: %w", err)
		}
		if err := s.inventoryLog.CreateBorrowLogEntry(ctx, q, actor, record, assets); err != nil {
			return err
		}

		delivery, err = s.notifier.Enqueue(ctx, q, models.WebhookBorrow, record, assets)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Borrow record created",
		zap.String("borrow_id", record.ID),
		zap.String("employee_id", record.EmployeeID),
		zap.Int("assets", len(record.Assets)),
	)
	s.deliver(ctx, actor, delivery)

	return record, nil
}

// ReturnLoan closes an active record and puts its assets back in stock.
// Unknown and already returned ids both yield ErrLoanNotFound.
func (s *LoanService) ReturnLoan(ctx context.Context, actor models.Actor, borrowID string) (*models.BorrowRecord, error) {
	borrowID = strings.TrimSpace(borrowID)
	if borrowID == "" {
		return nil, validation.Field("borrowId", "required")
	}

	returnDate := models.NewDate(s.now())
	var record *models.BorrowRecord
	var delivery *models.WebhookDelivery

	err := s.store.WithinTx(ctx, func(q storage.Queries) error {
		var err error
		record, err = q.GetLoan(ctx, borrowID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrLoanNotFound, borrowID)
		}
		if err != nil {
			return err
		}
		if !record.IsActive() {
			return fmt.Errorf("%w: %s was already returned", ErrLoanNotFound, record.ID)
		}

		closed, err := q.CloseLoan(ctx, record.ID, returnDate)
		if err != nil {
			return err
		}
		if closed == 0 {
			return fmt.Errorf("%w: %s was already returned", ErrLoanNotFound, record.ID)
		}
		record.Status = metadata.LoanReturned
		record.ReturnDate = &returnDate

		if _, err := q.SetAssetStatus(ctx, record.Assets, metadata.AssetBorrowed, metadata.AssetInStock); err != nil {
			return err
		}

		assets, err := q.GetAssets(ctx, record.Assets)
		if err != nil {
			return err
		}
		assets = orderAssets(record.Assets, assets)

		if err := s.inventoryLog.CreateReturnLogEntry(ctx, q, actor, record, assets); err != nil {
			return err
		}

		delivery, err = s.notifier.Enqueue(ctx, q, models.WebhookReturn, record, assets)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Borrow record returned",
		zap.String("borrow_id", record.ID),
		zap.Int("actual_duration", ActualDuration(record.BorrowDate, returnDate)),
	)
	s.deliver(ctx, actor, delivery)

	return record, nil
}

// deliver runs after commit; its outcome never changes the loan.
func (s *LoanService) deliver(ctx context.Context, actor models.Actor, delivery *models.WebhookDelivery) {
	if delivery == nil {
		return
	}

	err := s.notifier.DeliverNow(ctx, delivery)
	if err != nil {
		s.logger.Warn("Webhook delivery failed, left for retry",
			zap.String("delivery_id", delivery.ID),
			zap.String("borrow_id", delivery.BorrowID),
			zap.Error(err),
		)
	}
	s.inventoryLog.CreateWebhookLogEntry(ctx, s.store, actor, delivery.Event, delivery.BorrowID, err)
}

func (s *LoanService) GetLoan(ctx context.Context, borrowID string) (*LoanView, error) {
	record, err := s.store.GetLoan(ctx, strings.TrimSpace(borrowID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrLoanNotFound, borrowID)
	}
	if err != nil {
		return nil, err
	}

	view := NewLoanView(*record, s.now())
	return &view, nil
}

func (s *LoanService) ListLoans(ctx context.Context, filter storage.LoanFilter) ([]LoanView, error) {
	records, err := s.store.ListLoans(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]LoanView, 0, len(records))
	for _, r := range records {
		views = append(views, NewLoanView(r, now))
	}
	return views, nil
}

// ListOverdue returns active records past their due date, most late first.
func (s *LoanService) ListOverdue(ctx context.Context) ([]LoanView, error) {
	active, err := s.ListLoans(ctx, storage.LoanFilter{Status: metadata.LoanBorrowed})
	if err != nil {
		return nil, err
	}

	overdue := make([]LoanView, 0)
	for _, v := range active {
		if v.Overdue {
			overdue = append(overdue, v)
		}
	}
	sortByLateness(overdue)
	return overdue, nil
}

// AssetsOf returns the assets a record refers to, skipping deleted ones.
func (s *LoanService) AssetsOf(ctx context.Context, record *models.BorrowRecord) ([]models.Asset, error) {
	assets, err := s.store.GetAssets(ctx, record.Assets)
	if err != nil {
		return nil, err
	}
	return orderAssets(record.Assets, assets), nil
}

func normalizeRequest(req models.BorrowRequest) models.BorrowRequest {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.EmployeeName = strings.TrimSpace(req.EmployeeName)
	req.Purpose = strings.TrimSpace(req.Purpose)

	seen := make(map[string]bool, len(req.Assets))
	assets := make([]string, 0, len(req.Assets))
	for _, id := range req.Assets {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		assets = append(assets, id)
	}
	req.Assets = assets
	return req
}

func orderAssets(ids []string, assets []models.Asset) []models.Asset {
	byID := make(map[string]models.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	ordered := make([]models.Asset, 0, len(assets))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered
}

func missingAssets(ids []string, found []models.Asset) []string {
	present := make(map[string]bool, len(found))
	for _, a := range found {
		present[a.ID] = true
	}

	var missing []string
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
