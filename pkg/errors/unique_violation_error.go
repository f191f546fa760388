package custom_error

import "fmt"

// PostgreSQL SQLSTATE codes mapped by WrapDBError.
const (
	UniqueViolationCode     = "23505"
	ForeignKeyViolationCode = "23503"
)

type CustomError interface {
	Error() string
}

type UniqueViolationError struct {
	message string
	code    string
}

type ForeignKeyViolationError struct {
	message string
	code    string
}

func (f *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", f.message, f.code)
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

func (e *UniqueViolationError) Code() string {
	return e.code
}

func WrapDBError(message, code string) CustomError {
	switch code {
	case UniqueViolationCode:
		return &UniqueViolationError{
			message: message,
			code:    code,
		}
	case ForeignKeyViolationCode:
		return &ForeignKeyViolationError{
			message: "value is referenced by other records: " + message,
			code:    code,
		}
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}
