package loans

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrAssetUnavailable = errors.New("asset is not available for borrowing")
	ErrLoanNotFound     = errors.New("borrow record not found")
)

// AssetError names the assets that made a borrow request fail.
type AssetError struct {
	Err      error
	AssetIDs []string
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, strings.Join(e.AssetIDs, ", "))
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
