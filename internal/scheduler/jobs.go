package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/aleciaid/crm-bj/internal/inventory/loans"
)

const (
	JobWebhookDispatch = "webhook-dispatch"
	JobOverdueScan     = "overdue-scan"
)

type dueDispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}

type overdueLister interface {
	ListOverdue(ctx context.Context) ([]loans.LoanView, error)
}

// WebhookDispatchJob retries pending webhook deliveries whose time has come.
func WebhookDispatchJob(dispatcher dueDispatcher, logger *zap.Logger) Job {
	return func(ctx context.Context) error {
		delivered, err := dispatcher.DispatchDue(ctx)
		if delivered > 0 {
			logger.Info("Webhook deliveries sent", zap.Int("delivered", delivered))
		}
		return err
	}
}

// OverdueScanJob reports every loan past its due date.
func OverdueScanJob(lister overdueLister, logger *zap.Logger) Job {
	return func(ctx context.Context) error {
		overdue, err := lister.ListOverdue(ctx)
		if err != nil {
			return err
		}

		for _, v := range overdue {
			logger.Warn("Loan overdue",
				zap.String("borrowId", v.ID),
				zap.String("employeeId", v.EmployeeID),
				zap.String("employeeName", v.EmployeeName),
				zap.String("dueDate", v.DueDate.String()),
				zap.Int("daysOverdue", v.DaysOverdue),
			)
		}
		logger.Info("Overdue scan finished", zap.Int("overdue", len(overdue)))
		return nil
	}
}
