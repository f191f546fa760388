package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aleciaid/crm-bj/internal/inventory/loans"
	"github.com/aleciaid/crm-bj/pkg/models"
)

func noop(context.Context) error { return nil }

func TestAdd(t *testing.T) {
	s := New(zap.NewNop(), time.Minute)

	require.NoError(t, s.Add("dispatch", "@every 30s", noop))
	require.NoError(t, s.Add("disabled", "", noop))

	assert.ErrorContains(t, s.Add("dispatch", "@every 1m", noop), "already registered")
	assert.ErrorContains(t, s.Add("broken", "every day", noop), "invalid schedule")

	_, ok := s.Next("disabled")
	assert.False(t, ok)
	_, ok = s.Next("dispatch")
	assert.True(t, ok)
}

func TestRunsJobs(t *testing.T) {
	s := New(zap.NewNop(), time.Minute)

	var runs atomic.Int32
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		runs.Add(1)
		return nil
	}))

	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestSkipsOverlappingRuns(t *testing.T) {
	s := New(zap.NewNop(), 0)

	release := make(chan struct{})
	var started atomic.Int32
	require.NoError(t, s.Add("slow", "@every 1s", func(ctx context.Context) error {
		started.Add(1)
		<-release
		return nil
	}))

	s.Start()
	require.Eventually(t, func() bool { return started.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int32(1), started.Load())

	close(release)
	require.NoError(t, s.Stop(context.Background()))
}

func TestStopHonoursContext(t *testing.T) {
	s := New(zap.NewNop(), 0)

	release := make(chan struct{})
	defer close(release)
	running := make(chan struct{}, 1)
	require.NoError(t, s.Add("stuck", "@every 1s", func(ctx context.Context) error {
		running <- struct{}{}
		<-release
		return nil
	}))

	s.Start()
	select {
	case <-running:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}

func TestFailedRunIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(zap.New(core), time.Minute)

	s.run("broken", func(context.Context) error { return errors.New("database unreachable") })

	entries := logs.FilterMessage("Scheduled job failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "broken", entries[0].ContextMap()["job"])
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestWebhookDispatchJob(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := &MockDispatcher{}
	dispatcher.On("DispatchDue", mock.Anything).Return(2, nil).Once()
	dispatcher.On("DispatchDue", mock.Anything).Return(0, errors.New("store closed")).Once()

	job := WebhookDispatchJob(dispatcher, zap.New(core))

	require.NoError(t, job(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("Webhook deliveries sent").Len())

	assert.ErrorContains(t, job(context.Background()), "store closed")
	dispatcher.AssertExpectations(t)
}

type overdueFunc func(ctx context.Context) ([]loans.LoanView, error)

func (f overdueFunc) ListOverdue(ctx context.Context) ([]loans.LoanView, error) {
	return f(ctx)
}

func TestOverdueScanJob(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	due := models.NewDate(time.Date(2026, 3, 11, 0, 0, 0, 0, time.Local))
	lister := overdueFunc(func(context.Context) ([]loans.LoanView, error) {
		return []loans.LoanView{
			{BorrowRecord: models.BorrowRecord{ID: "BRW-1", EmployeeID: "EMP001", EmployeeName: "Budi"}, DueDate: due, Overdue: true, DaysOverdue: 4},
			{BorrowRecord: models.BorrowRecord{ID: "BRW-2", EmployeeID: "EMP002", EmployeeName: "Sari"}, DueDate: due, Overdue: true, DaysOverdue: 1},
		}, nil
	})

	require.NoError(t, OverdueScanJob(lister, zap.New(core))(context.Background()))

	overdue := logs.FilterMessage("Loan overdue").All()
	require.Len(t, overdue, 2)
	assert.Equal(t, "BRW-1", overdue[0].ContextMap()["borrowId"])
	assert.Equal(t, int64(4), overdue[0].ContextMap()["daysOverdue"])
	assert.Equal(t, "2026-03-11", overdue[0].ContextMap()["dueDate"])

	summary := logs.FilterMessage("Overdue scan finished").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(2), summary[0].ContextMap()["overdue"])
}
