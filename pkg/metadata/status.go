package metadata

import "fmt"

// AssetStatus is the availability of a single asset.
type AssetStatus string

const (
	AssetInStock  AssetStatus = "Instock"
	AssetBorrowed AssetStatus = "Dipinjam"
)

func NewAssetStatus(value string) (AssetStatus, error) {
	status := AssetStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid asset status: %s", value)
	}
	return status, nil
}

func (s AssetStatus) IsValid() bool {
	switch s {
	case AssetInStock, AssetBorrowed:
		return true
	default:
		return false
	}
}

// LoanStatus is the state of a borrow record. The only legal transition is
// LoanBorrowed -> LoanReturned.
type LoanStatus string

const (
	LoanBorrowed LoanStatus = "Dipinjam"
	LoanReturned LoanStatus = "Dikembalikan"
)

func NewLoanStatus(value string) (LoanStatus, error) {
	status := LoanStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid loan status: %s", value)
	}
	return status, nil
}

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanBorrowed, LoanReturned:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a record in status s may move to next.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	return s == LoanBorrowed && next == LoanReturned
}

// DeliveryStatus tracks a webhook outbox row.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)
