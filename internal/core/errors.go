package core

// User-facing error messages with codes for support reference. Codes are
// grouped by category: CSV0xx for file problems, QRY0xx for query problems,
// DS0xx for dataset access, ERR000 as the fallback.

import (
	"errors"

	"github.com/csvgrid/csvgrid/internal/dataset"
)

// UserMessage provides user-friendly error information with actionable
// guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorMapping struct {
	sentinel error
	msg      UserMessage
}

// Order matters only for readability; sentinels are disjoint.
var errorMappings = []errorMapping{
	{
		sentinel: dataset.ErrParse,
		msg: UserMessage{
			Message: "The file could not be read as CSV",
			Action:  "Ensure the file is comma-separated, UTF-8 encoded and within the size limit",
			Code:    "CSV001",
		},
	},
	{
		sentinel: dataset.ErrInvalidColumn,
		msg: UserMessage{
			Message: "The request names a column this dataset does not have",
			Action:  "Check the column name against the dataset schema",
			Code:    "QRY001",
		},
	},
	{
		sentinel: dataset.ErrUnsupportedOperator,
		msg: UserMessage{
			Message: "The filter operator cannot be used on this column",
			Action:  "Range comparisons need numeric or date columns; text matching needs string columns",
			Code:    "QRY002",
		},
	},
	{
		sentinel: dataset.ErrInvalidPagination,
		msg: UserMessage{
			Message: "Invalid page or limit",
			Action:  "Page starts at 1; limit must be positive and within the allowed maximum",
			Code:    "QRY003",
		},
	},
	{
		sentinel: dataset.ErrNotFound,
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "It may have been deleted; check the dataset list",
			Code:    "DS001",
		},
	},
	{
		sentinel: dataset.ErrAccessDenied,
		msg: UserMessage{
			Message: "You do not have access to this dataset",
			Code:    "DS002",
		},
	},
	{
		sentinel: dataset.ErrBackend,
		msg: UserMessage{
			Message: "A storage error occurred",
			Action:  "Please try again in a few moments",
			Code:    "ERR001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to its user-facing message. Unknown errors map
// to the ERR000 fallback; support staff should check the logs for those.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return m.msg
		}
	}
	return defaultMessage
}

// IsUserFacing reports whether the error maps to a specific message rather
// than the generic fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
