// Package query translates declarative filter/sort/pagination requests into
// a backend-agnostic plan. Backends only see coerced, validated conditions;
// all request validation lives here.
package query

import (
	"strings"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/schema"
)

// Operator is a filter comparison operator.
type Operator string

const (
	OpEquals    Operator = "eq"
	OpNotEquals Operator = "neq"
	OpGreater   Operator = "gt"
	OpLess      Operator = "lt"
	OpGreaterEq Operator = "gte"
	OpLessEq    Operator = "lte"
	OpContains  Operator = "contains"
	OpStarts    Operator = "starts"
	OpEnds      Operator = "ends"
	OpIsNull    Operator = "isnull"
	OpIsNotNull Operator = "isnotnull"
)

// operatorAliases maps every accepted request spelling to its canonical
// operator. Symbolic forms and the JSON-ish names are both accepted.
var operatorAliases = map[string]Operator{
	"=":           OpEquals,
	"==":          OpEquals,
	"eq":          OpEquals,
	"!=":          OpNotEquals,
	"<>":          OpNotEquals,
	"ne":          OpNotEquals,
	"neq":         OpNotEquals,
	">":           OpGreater,
	"gt":          OpGreater,
	"<":           OpLess,
	"lt":          OpLess,
	">=":          OpGreaterEq,
	"gte":         OpGreaterEq,
	"<=":          OpLessEq,
	"lte":         OpLessEq,
	"like":        OpContains,
	"contains":    OpContains,
	"starts":      OpStarts,
	"startswith":  OpStarts,
	"ends":        OpEnds,
	"endswith":    OpEnds,
	"isnull":      OpIsNull,
	"is_null":     OpIsNull,
	"isnotnull":   OpIsNotNull,
	"is_not_null": OpIsNotNull,
}

// ParseOperator resolves a request operator string. The zero Operator and
// false are returned for unknown spellings.
func ParseOperator(s string) (Operator, bool) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]
	return op, ok
}

// ValidFor reports whether the operator can be applied to a column of the
// given type. Equality and null checks work everywhere; range comparisons
// need an ordered type; text matching needs a string column.
func (op Operator) ValidFor(t schema.ColumnType) bool {
	switch op {
	case OpEquals, OpNotEquals, OpIsNull, OpIsNotNull:
		return true
	case OpGreater, OpLess, OpGreaterEq, OpLessEq:
		return t.Ordered()
	case OpContains, OpStarts, OpEnds:
		return t == schema.TypeString
	}
	return false
}

// NeedsValue reports whether the operator takes a comparison value.
func (op Operator) NeedsValue() bool {
	return op != OpIsNull && op != OpIsNotNull
}

// FilterInput is one raw condition as it arrives from the request layer:
// operator and value still textual, not yet validated.
type FilterInput struct {
	Column   string  `json:"column,omitempty"`
	Operator string  `json:"operator"`
	Value    *string `json:"value"`
}

// OrKey is the reserved filter key whose conditions are OR-ed together and
// AND-ed with the rest of the filter set. It powers "any column is null"
// style queries.
const OrKey = "_or_conditions"

// Filters is the declarative filter set for one request: per-column AND
// groups plus the optional OR group.
type Filters struct {
	Columns map[string][]FilterInput
	Or      []FilterInput
}

// NullScan returns the filter set matching rows where any of the given
// columns has no value.
func NullScan(columns []string) Filters {
	or := make([]FilterInput, len(columns))
	for i, c := range columns {
		or[i] = FilterInput{Column: c, Operator: string(OpIsNull)}
	}
	return Filters{Or: or}
}

// SortInput is one raw sort request entry.
type SortInput struct {
	Column    string
	Direction string // "asc" or "desc", case-insensitive; default asc
}

// Request is a full declarative query against one dataset.
type Request struct {
	Page    int
	Limit   int
	Sort    []SortInput
	Filters Filters
}

// Condition is one validated, coerced filter condition.
type Condition struct {
	Column string
	Op     Operator
	Value  any // native value per schema.Coerce; nil for null checks
	Type   schema.ColumnType
}

// SortKey is one validated sort entry.
type SortKey struct {
	Column string
	Type   schema.ColumnType
	Desc   bool
}

// Plan is the backend-agnostic output of Build: every condition validated
// and coerced, sort keys resolved against the schema, offsets computed.
type Plan struct {
	And    []Condition
	Or     []Condition
	Sort   []SortKey
	Page   int
	Limit  int
	Offset int
}

// Result is the uniform paginated envelope returned to callers.
type Result struct {
	Data            []dataset.Row `json:"data"`
	TotalRows       int64         `json:"totalRows"`
	RowsPerPage     int           `json:"rowsPerPage"`
	CurrentPage     int           `json:"currentPage"`
	TotalPages      int           `json:"totalPages"`
	HasNextPage     bool          `json:"hasNextPage"`
	HasPreviousPage bool          `json:"hasPreviousPage"`
}
