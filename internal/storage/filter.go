package storage

import (
	"strings"
	"time"

	"github.com/aleciaid/crm-bj/pkg/models"
)

func (f AssetFilter) Matches(asset *models.Asset) bool {
	if f.Status != "" && asset.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(asset.Category, f.Category) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		return containsFold(asset.Name, needle) || containsFold(asset.SKU, needle) || containsFold(asset.Description, needle)
	}
	return true
}

func (f LoanFilter) Matches(record *models.BorrowRecord) bool {
	if f.Status != "" && record.Status != f.Status {
		return false
	}
	if f.EmployeeID != "" && record.EmployeeID != f.EmployeeID {
		return false
	}
	return true
}

func (f LogFilter) Matches(entry *models.LogEntry) bool {
	if f.Action != "" && entry.Action != f.Action {
		return false
	}
	if f.User != "" && entry.User != f.User {
		return false
	}
	if f.Date != "" && !strings.HasPrefix(entry.Timestamp.UTC().Format(time.RFC3339), f.Date) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		return containsFold(entry.Details, needle) || containsFold(entry.Action, needle) || containsFold(entry.User, needle)
	}
	return true
}

func (f DeliveryFilter) Matches(delivery *models.WebhookDelivery) bool {
	if f.Status != "" && delivery.Status != f.Status {
		return false
	}
	if f.DueBefore != nil && delivery.NextAttemptAt.After(*f.DueBefore) {
		return false
	}
	return true
}

// DayRange returns the UTC bounds [start, end) of a YYYY-MM-DD filter value.
func (f LogFilter) DayRange() (time.Time, time.Time, bool) {
	day, err := time.Parse(models.DateLayout, f.Date)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return day, day.AddDate(0, 0, 1), true
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}
