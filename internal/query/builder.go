package query

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/schema"
)

// DefaultLimit is the page size used when a request does not set one.
const DefaultLimit = 50

// MaxLimit caps the page size for normal data views.
const MaxLimit = 1000

// Options tunes Build for special call sites.
type Options struct {
	// MaxLimit overrides the page-size cap. Bulk scans (the null-row
	// data-quality view) pass a larger cap than interactive paging.
	MaxLimit int
}

// Build validates a request against a dataset's column types and produces
// an executable plan.
//
// Hard failures: unknown filter or sort columns (ErrInvalidColumn),
// operators that do not fit the column type (ErrUnsupportedOperator), and
// out-of-range page/limit (ErrInvalidPagination). Soft failures: condition
// values that do not parse as the column's type are dropped with a warning
// and the query proceeds with the remaining conditions.
func Build(types map[string]schema.ColumnType, req Request, opts ...Options) (*Plan, error) {
	maxLimit := MaxLimit
	if len(opts) > 0 && opts[0].MaxLimit > 0 {
		maxLimit = opts[0].MaxLimit
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page %d", dataset.ErrInvalidPagination, page)
	}
	if limit < 1 || limit > maxLimit {
		return nil, fmt.Errorf("%w: limit %d (max %d)", dataset.ErrInvalidPagination, limit, maxLimit)
	}

	plan := &Plan{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	for column, inputs := range req.Filters.Columns {
		for _, in := range inputs {
			cond, ok, err := buildCondition(types, column, in)
			if err != nil {
				return nil, err
			}
			if ok {
				plan.And = append(plan.And, cond)
			}
		}
	}

	for _, in := range req.Filters.Or {
		cond, ok, err := buildCondition(types, in.Column, in)
		if err != nil {
			return nil, err
		}
		if ok {
			plan.Or = append(plan.Or, cond)
		}
	}

	sort, err := buildSort(types, req.Sort)
	if err != nil {
		return nil, err
	}
	plan.Sort = sort

	return plan, nil
}

// buildCondition validates and coerces a single condition. The middle
// return value is false when the condition was dropped (unparseable value).
func buildCondition(types map[string]schema.ColumnType, column string, in FilterInput) (Condition, bool, error) {
	typ, ok := types[column]
	if !ok {
		return Condition{}, false, fmt.Errorf("%w: %q", dataset.ErrInvalidColumn, column)
	}

	op, ok := ParseOperator(in.Operator)
	if !ok {
		return Condition{}, false, fmt.Errorf("%w: %q", dataset.ErrUnsupportedOperator, in.Operator)
	}
	if !op.ValidFor(typ) {
		return Condition{}, false, fmt.Errorf("%w: %q on %s column %q",
			dataset.ErrUnsupportedOperator, in.Operator, typ, column)
	}

	cond := Condition{Column: column, Op: op, Type: typ}
	if !op.NeedsValue() {
		return cond, true, nil
	}

	value, ok := schema.Coerce(in.Value, typ)
	if !ok || value == nil {
		// A condition with an unusable value is dropped, not fatal: the
		// rest of the filter set still applies.
		slog.Warn("dropping filter condition with unparseable value",
			"column", column,
			"operator", string(op),
			"type", string(typ),
		)
		return Condition{}, false, nil
	}
	if typ == schema.TypeString {
		// Text matching is case-insensitive throughout.
		value = strings.ToLower(value.(string))
	}
	cond.Value = value

	return cond, true, nil
}

// buildSort validates sort entries against the schema. An empty request
// sorts by row number, which backends apply implicitly when Sort is empty.
func buildSort(types map[string]schema.ColumnType, inputs []SortInput) ([]SortKey, error) {
	var keys []SortKey
	for _, in := range inputs {
		column := strings.TrimSpace(in.Column)
		if column == "" {
			continue
		}
		typ, ok := types[column]
		if !ok {
			return nil, fmt.Errorf("%w: sort column %q", dataset.ErrInvalidColumn, column)
		}
		keys = append(keys, SortKey{
			Column: column,
			Type:   typ,
			Desc:   strings.EqualFold(strings.TrimSpace(in.Direction), "desc"),
		})
	}
	return keys, nil
}
