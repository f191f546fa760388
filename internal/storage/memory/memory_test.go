package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
	"github.com/aleciaid/crm-bj/pkg/models"
)

func seedAssets(t *testing.T, s *Store, assets ...models.Asset) {
	t.Helper()
	for i := range assets {
		require.NoError(t, s.InsertAsset(context.Background(), &assets[i]))
	}
}

func TestWithinTx_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAssets(t, s, models.Asset{ID: "a1", Name: "Laptop", Category: "IT", Qty: 1, Status: metadata.AssetInStock})

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(q storage.Queries) error {
		moved, err := q.SetAssetStatus(ctx, []string{"a1"}, metadata.AssetInStock, metadata.AssetBorrowed)
		require.NoError(t, err)
		require.EqualValues(t, 1, moved)
		require.NoError(t, q.AppendLog(ctx, &models.LogEntry{ID: "l1", Timestamp: time.Now()}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	asset, err := s.GetAsset(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, metadata.AssetInStock, asset.Status)

	logs, err := s.ListLogs(ctx, storage.LogFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestWithinTx_CommitPublishesWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.WithinTx(ctx, func(q storage.Queries) error {
		return q.InsertCategory(ctx, &models.Category{ID: "c1", Name: "IT"})
	})
	require.NoError(t, err)

	category, err := s.GetCategoryByName(ctx, "it")
	require.NoError(t, err)
	assert.Equal(t, "c1", category.ID)
}

func TestSetAssetStatus_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAssets(t, s,
		models.Asset{ID: "a1", Name: "Laptop", Qty: 1, Status: metadata.AssetInStock},
		models.Asset{ID: "a2", Name: "Proyektor", Qty: 1, Status: metadata.AssetBorrowed},
		models.Asset{ID: "a3", Name: "Kabel", Qty: 0, Status: metadata.AssetInStock},
	)

	moved, err := s.SetAssetStatus(ctx, []string{"a1", "a2", "a3", "missing"}, metadata.AssetInStock, metadata.AssetBorrowed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moved)

	moved, err = s.SetAssetStatus(ctx, []string{"a1", "a2"}, metadata.AssetBorrowed, metadata.AssetInStock)
	require.NoError(t, err)
	assert.EqualValues(t, 2, moved)
}

func TestConcurrentTransactionsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAssets(t, s, models.Asset{ID: "a1", Name: "Laptop", Qty: 1, Status: metadata.AssetInStock})

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithinTx(ctx, func(q storage.Queries) error {
				moved, err := q.SetAssetStatus(ctx, []string{"a1"}, metadata.AssetInStock, metadata.AssetBorrowed)
				if err != nil || moved != 1 {
					return errors.New("unavailable")
				}
				mu.Lock()
				winners++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestLoans_CaseInsensitiveLookupAndClose(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	borrowed := models.NewDate(time.Now())
	require.NoError(t, s.InsertLoan(ctx, &models.BorrowRecord{
		ID: "BRW-1700000000000", Assets: []string{"a1"}, Status: metadata.LoanBorrowed, BorrowDate: borrowed,
	}))

	record, err := s.GetLoan(ctx, "brw-1700000000000")
	require.NoError(t, err)
	assert.Equal(t, "BRW-1700000000000", record.ID)

	record.Assets[0] = "mutated"
	again, err := s.GetLoan(ctx, "BRW-1700000000000")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, again.Assets)

	closed, err := s.CloseLoan(ctx, "brw-1700000000000", borrowed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, closed)

	closed, err = s.CloseLoan(ctx, "BRW-1700000000000", borrowed)
	require.NoError(t, err)
	assert.EqualValues(t, 0, closed)

	_, err = s.GetLoan(ctx, "BRW-404")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.InsertCategory(ctx, &models.Category{ID: "c1", Name: "Elektronik"}))
	assert.ErrorIs(t, s.InsertCategory(ctx, &models.Category{ID: "c2", Name: "elektronik"}), storage.ErrConflict)

	require.NoError(t, s.InsertAccount(ctx, &models.UserAccount{ID: "u1", Username: "admin"}))
	assert.ErrorIs(t, s.InsertAccount(ctx, &models.UserAccount{ID: "u2", Username: "admin"}), storage.ErrConflict)
	assert.ErrorIs(t, s.UpdateAccount(ctx, &models.UserAccount{ID: "u9", Username: "x"}), storage.ErrNotFound)
}

func TestListLogs_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2025, 9, 30, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"l1", "l2", "l3"} {
		require.NoError(t, s.AppendLog(ctx, &models.LogEntry{ID: id, Timestamp: base.Add(time.Duration(i) * time.Hour), User: "admin"}))
	}

	logs, err := s.ListLogs(ctx, storage.LogFilter{User: "admin"})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "l3", logs[0].ID)
	assert.Equal(t, "l1", logs[2].ID)

	cleared, err := s.ClearLogs(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, cleared)
}

func TestListDeliveries_DueAndLimit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()
	for i, id := range []string{"d1", "d2", "d3"} {
		require.NoError(t, s.EnqueueDelivery(ctx, &models.WebhookDelivery{
			ID:            id,
			Status:        metadata.DeliveryPending,
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
			NextAttemptAt: now.Add(time.Duration(i-1) * time.Minute),
		}))
	}

	due, err := s.ListDeliveries(ctx, storage.DeliveryFilter{Status: metadata.DeliveryPending, DueBefore: &now})
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "d1", due[0].ID)

	limited, err := s.ListDeliveries(ctx, storage.DeliveryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestClaimDelivery_SingleOwner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()
	require.NoError(t, s.EnqueueDelivery(ctx, &models.WebhookDelivery{
		ID:            "d1",
		Status:        metadata.DeliveryPending,
		NextAttemptAt: now.Add(-time.Second),
	}))
	require.NoError(t, s.EnqueueDelivery(ctx, &models.WebhookDelivery{
		ID:            "d2",
		Status:        metadata.DeliveryPending,
		NextAttemptAt: now.Add(time.Minute),
	}))

	claimed, err := s.ClaimDelivery(ctx, "d1", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = s.ClaimDelivery(ctx, "d1", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed, "leased rows are not due")

	claimed, err = s.ClaimDelivery(ctx, "d2", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = s.ClaimDelivery(ctx, "missing", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed)

	stored, err := s.GetDelivery(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, stored.NextAttemptAt.Equal(now.Add(time.Minute)))
}

func TestUpdateDelivery_SettledRowsAreFinal(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	delivery := &models.WebhookDelivery{ID: "d1", Status: metadata.DeliveryPending, NextAttemptAt: time.Now()}
	require.NoError(t, s.EnqueueDelivery(ctx, delivery))

	delivered := *delivery
	delivered.Status = metadata.DeliveryDelivered
	delivered.Attempts = 1
	require.NoError(t, s.UpdateDelivery(ctx, &delivered))

	failed := *delivery
	failed.Status = metadata.DeliveryFailed
	failed.Attempts = 1
	assert.ErrorIs(t, s.UpdateDelivery(ctx, &failed), storage.ErrConflict)
	assert.ErrorIs(t, s.UpdateDelivery(ctx, &models.WebhookDelivery{ID: "missing"}), storage.ErrNotFound)

	stored, err := s.GetDelivery(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, metadata.DeliveryDelivered, stored.Status)
}
