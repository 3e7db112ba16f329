package schema

// coerce.go converts raw cell text to native Go values for a known column
// type. This is the one conversion path shared by filter values, cell edits
// and the in-memory query evaluator; stored rows themselves are never
// rewritten.

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// maxExactInt is the largest integer float64 represents exactly (2^53).
const maxExactInt = 1 << 53

// Coerce converts a raw cell to a native value for the given column type.
//
// Empty cells (per IsNullValue) coerce to (nil, true) for every type.
// Unparseable non-empty cells return (nil, false); callers decide whether
// that drops a filter condition or rejects an edit.
//
// Native types: integer -> int64, float -> float64, boolean -> bool,
// date/timestamp -> time.Time, string -> trimmed string.
func Coerce(value *string, t ColumnType) (any, bool) {
	if IsNullValue(value) {
		return nil, true
	}
	s := strings.TrimSpace(*value)

	switch t {
	case TypeInteger:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		// Exponent and decimal spellings go through float64, which holds
		// integers exactly only up to 2^53. Values beyond that are rejected
		// rather than silently rounded.
		if !numberPattern.MatchString(s) {
			return nil, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
			return nil, false
		}
		return int64(f), true

	case TypeFloat:
		if !numberPattern.MatchString(s) {
			return nil, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true

	case TypeBoolean:
		switch strings.ToLower(s) {
		case "true", "t", "yes", "y", "1":
			return true, true
		case "false", "f", "no", "n", "0":
			return false, true
		}
		return nil, false

	case TypeDate, TypeTimestamp:
		if ts, ok := ParseDate(s); ok {
			return ts, true
		}
		return nil, false

	default:
		return s, true
	}
}

// ParseDate parses a cell against the canonical pattern list, first match
// wins. The parsed value must survive a round trip through the ISO form
// yyyy-MM-dd, which rejects layouts that matched on digits but produced an
// impossible calendar date.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range datePatterns {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		iso := t.Format("2006-01-02")
		if _, err := time.Parse("2006-01-02", iso); err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// FormatValue renders a native value as canonical text. Dates use the ISO
// form; everything else uses its Go default.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		if val.Hour() != 0 || val.Minute() != 0 || val.Second() != 0 {
			return val.Format("2006-01-02 15:04:05")
		}
		return val.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return ""
	}
}
