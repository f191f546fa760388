package loans

import (
	"context"
	"sort"

	"github.com/aleciaid/crm-bj/internal/storage"
	"github.com/aleciaid/crm-bj/pkg/metadata"
)

// Summary is the dashboard snapshot.
type Summary struct {
	TotalAssets    int `json:"totalAssets"`
	InStockAssets  int `json:"inStockAssets"`
	BorrowedAssets int `json:"borrowedAssets"`
	ActiveLoans    int `json:"activeLoans"`
	OverdueLoans   int `json:"overdueLoans"`
	ReturnedLoans  int `json:"returnedLoans"`
}

func (s *LoanService) Summary(ctx context.Context) (*Summary, error) {
	assets, err := s.store.ListAssets(ctx, storage.AssetFilter{})
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListLoans(ctx, storage.LoanFilter{})
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalAssets: len(assets)}
	for _, a := range assets {
		if a.Status == metadata.AssetBorrowed {
			summary.BorrowedAssets++
		} else {
			summary.InStockAssets++
		}
	}

	now := s.now()
	for _, r := range records {
		if !r.IsActive() {
			summary.ReturnedLoans++
			continue
		}
		summary.ActiveLoans++
		if IsOverdue(r.BorrowDate, r.DurationDays, now) {
			summary.OverdueLoans++
		}
	}

	return summary, nil
}

func sortByLateness(views []LoanView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].DaysOverdue > views[j].DaysOverdue
	})
}
