package dataset

// errors.go defines the sentinel errors shared across the service. The
// split matters at the HTTP boundary: parse/column/operator/pagination
// errors map to 400, ownership to 403, missing datasets to 404, and
// backend failures to 500. Wrap with fmt.Errorf("...: %w", Err...) so
// errors.Is keeps working through the call chain.

import "errors"

var (
	// ErrParse means the uploaded file could not be read as CSV.
	ErrParse = errors.New("invalid csv")

	// ErrInvalidColumn means a filter, sort or rename referenced a column
	// the dataset does not have.
	ErrInvalidColumn = errors.New("unknown column")

	// ErrUnsupportedOperator means a filter operator is not valid for the
	// target column's type, e.g. a range comparison on a string column.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrInvalidPagination means page or limit is out of range.
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrNotFound means the dataset does not exist.
	ErrNotFound = errors.New("dataset not found")

	// ErrAccessDenied means the dataset exists but belongs to another user.
	ErrAccessDenied = errors.New("access denied")

	// ErrBackend wraps storage failures. Not retried at this layer.
	ErrBackend = errors.New("storage error")
)
