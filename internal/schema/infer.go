package schema

// infer.go is the single home of the cell classifier and the canonical date
// pattern list. All call sites (ingestion, filter coercion, the in-memory
// evaluator) go through this file so the pattern priority can never drift.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberPattern accepts integers, decimals and scientific notation, and
// nothing else. strconv.ParseFloat alone is too permissive here: it takes
// hex floats, "Inf" and "NaN", none of which belong in a numeric column.
var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// datePatterns is the normative parse priority for date-like cells.
// Day-first layouts come before year-first ones; the first layout that
// yields a valid calendar date wins. Ambiguous values such as "03/04/2023"
// are therefore always read day-first. Do not reorder.
var datePatterns = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"January 2, 2006",
	"Mon Jan 2 2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Infer classifies a single cell and merges the result into the current
// column type. It is meant to be folded left to right over all rows of a
// column, seeded with TypeUnknown, then resolved with Finalize.
//
// Empty cells (nil, blank, or the literal "null") never change the running
// type, so sparse columns keep the type of their populated cells. Inference
// never fails: mixed data resolves to string.
func Infer(value *string, current ColumnType) ColumnType {
	if current == TypeString {
		// String is absorbing; no cell can promote away from it.
		return TypeString
	}

	if IsNullValue(value) {
		return current
	}

	return promote(current, classify(strings.TrimSpace(*value)))
}

// IsNullValue reports whether a cell carries no value: a nil pointer, a
// blank string, or the literal text "null" in any case. All three are the
// same "no value" concept throughout the system.
func IsNullValue(value *string) bool {
	if value == nil {
		return true
	}
	s := strings.TrimSpace(*value)
	return s == "" || strings.EqualFold(s, "null")
}

// classify maps one non-empty cell to its type class.
// Priority: boolean, numeric, date/timestamp, then string.
func classify(s string) ColumnType {
	if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") {
		return TypeBoolean
	}

	if numberPattern.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			// "1.0" is a float even though numerically integral.
			if strings.Contains(s, ".") || f != math.Trunc(f) {
				return TypeFloat
			}
			return TypeInteger
		}
	}

	if _, ok := ParseDate(s); ok {
		if looksLikeTimestamp(s) {
			return TypeTimestamp
		}
		return TypeDate
	}

	return TypeString
}

// looksLikeTimestamp reports whether a date-like cell carries a time
// component: a ':', 'T' or 'Z' anywhere in the original text, or a length
// of at least 19 characters (the width of "yyyy-MM-dd HH:mm:ss").
func looksLikeTimestamp(s string) bool {
	return strings.ContainsAny(s, ":TZ") || len(s) >= 19
}
