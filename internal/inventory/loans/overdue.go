package loans

import (
	"math"
	"time"

	"github.com/aleciaid/crm-bj/pkg/models"
)

// DueDate is the day the assets are expected back.
func DueDate(borrowDate models.Date, durationDays int) models.Date {
	return borrowDate.AddDays(durationDays)
}

// IsOverdue reports whether now is past midnight of the due date.
func IsOverdue(borrowDate models.Date, durationDays int, now time.Time) bool {
	return now.After(DueDate(borrowDate, durationDays).Time)
}

// DaysOverdue counts started days past the due date; 0 when not overdue.
func DaysOverdue(borrowDate models.Date, durationDays int, now time.Time) int {
	if !IsOverdue(borrowDate, durationDays, now) {
		return 0
	}
	late := now.Sub(DueDate(borrowDate, durationDays).Time)
	return int(math.Ceil(late.Hours() / 24))
}

// ActualDuration is the number of calendar days between borrowing and
// returning.
func ActualDuration(borrowDate, returnDate models.Date) int {
	return borrowDate.DaysUntil(returnDate)
}

// LoanView is a borrow record with its due date and lateness worked out.
type LoanView struct {
	models.BorrowRecord
	DueDate     models.Date `json:"dueDate"`
	Overdue     bool        `json:"overdue"`
	DaysOverdue int         `json:"daysOverdue"`
}

func NewLoanView(record models.BorrowRecord, now time.Time) LoanView {
	view := LoanView{
		BorrowRecord: record,
		DueDate:      DueDate(record.BorrowDate, record.DurationDays),
	}
	if record.IsActive() {
		view.Overdue = IsOverdue(record.BorrowDate, record.DurationDays, now)
		view.DaysOverdue = DaysOverdue(record.BorrowDate, record.DurationDays, now)
	}
	return view
}
