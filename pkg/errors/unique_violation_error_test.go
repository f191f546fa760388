package custom_error

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapDBError(t *testing.T) {
	err := WrapDBError("duplicate username", UniqueViolationCode)

	var unique *UniqueViolationError
	assert.True(t, errors.As(err, &unique))
	assert.Equal(t, "duplicate username (code: 23505)", err.Error())

	err = WrapDBError("category", ForeignKeyViolationCode)
	var fk *ForeignKeyViolationError
	assert.True(t, errors.As(err, &fk))

	err = WrapDBError("boom", "42P01")
	assert.Contains(t, err.Error(), "uncategorized error occurred with code 42P01")
}
