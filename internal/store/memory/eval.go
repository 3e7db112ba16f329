package memory

// eval.go applies a query plan to in-memory rows. Cells stay as raw text;
// every comparison goes through schema.Coerce so filters and sorting see
// the same values a relational backend would.

import (
	"sort"
	"strings"
	"time"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/query"
	"github.com/csvgrid/csvgrid/internal/schema"
)

// matches reports whether a row satisfies the plan: every AND condition,
// and at least one OR condition when the OR group is non-empty.
func matches(row dataset.Row, plan *query.Plan) bool {
	for _, cond := range plan.And {
		if !matchCondition(row, cond) {
			return false
		}
	}
	if len(plan.Or) > 0 {
		any := false
		for _, cond := range plan.Or {
			if matchCondition(row, cond) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}

func matchCondition(row dataset.Row, cond query.Condition) bool {
	cell := row.Cell(cond.Column)

	switch cond.Op {
	case query.OpIsNull:
		return schema.IsNullValue(cell)
	case query.OpIsNotNull:
		return !schema.IsNullValue(cell)
	}

	// Null cells never match a value comparison, equality included.
	native, ok := schema.Coerce(cell, cond.Type)
	if !ok || native == nil {
		return false
	}

	switch cond.Op {
	case query.OpEquals:
		return equal(native, cond.Value, cond.Type)
	case query.OpNotEquals:
		return !equal(native, cond.Value, cond.Type)
	case query.OpGreater, query.OpLess, query.OpGreaterEq, query.OpLessEq:
		c, ok := compare(native, cond.Value, cond.Type)
		if !ok {
			return false
		}
		switch cond.Op {
		case query.OpGreater:
			return c > 0
		case query.OpLess:
			return c < 0
		case query.OpGreaterEq:
			return c >= 0
		default:
			return c <= 0
		}
	case query.OpContains, query.OpStarts, query.OpEnds:
		have, _ := native.(string)
		want, _ := cond.Value.(string)
		have = strings.ToLower(have)
		switch cond.Op {
		case query.OpContains:
			return strings.Contains(have, want)
		case query.OpStarts:
			return strings.HasPrefix(have, want)
		default:
			return strings.HasSuffix(have, want)
		}
	}
	return false
}

func equal(a, b any, t schema.ColumnType) bool {
	if t == schema.TypeString {
		as, _ := a.(string)
		bs, _ := b.(string)
		return strings.EqualFold(as, bs)
	}
	c, ok := compare(a, b, t)
	return ok && c == 0
}

// compare orders two coerced values of the same column type. The second
// return is false when either side has an unexpected dynamic type.
func compare(a, b any, t schema.ColumnType) (int, bool) {
	switch t {
	case schema.TypeInteger:
		ai, aok := a.(int64)
		bi, bok := b.(int64)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case ai < bi:
			return -1, true
		case ai > bi:
			return 1, true
		}
		return 0, true

	case schema.TypeFloat:
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true

	case schema.TypeBoolean:
		ab, aok := a.(bool)
		bb, bok := b.(bool)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case !ab && bb:
			return -1, true
		case ab && !bb:
			return 1, true
		}
		return 0, true

	case schema.TypeDate, schema.TypeTimestamp:
		at, aok := a.(time.Time)
		bt, bok := b.(time.Time)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true

	default:
		as, aok := a.(string)
		bs, bok := b.(string)
		if !aok || !bok {
			return 0, false
		}
		return strings.Compare(strings.ToLower(as), strings.ToLower(bs)), true
	}
}

// toFloat widens int64 to float64, so integer-typed filter values compare
// cleanly against float cells and vice versa.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// sortRows orders rows by the plan's sort keys. Null cells sort last
// regardless of direction; ties fall back to row number, which also keeps
// unsorted queries in insertion order.
func sortRows(rows []dataset.Row, keys []query.SortKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			c := compareCells(rows[i], rows[j], key)
			if c != 0 {
				return c < 0
			}
		}
		return rows[i].Num < rows[j].Num
	})
}

func compareCells(a, b dataset.Row, key query.SortKey) int {
	av, aok := coerceCell(a, key)
	bv, bok := coerceCell(b, key)

	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	c, ok := compare(av, bv, key.Type)
	if !ok {
		return 0
	}
	if key.Desc {
		return -c
	}
	return c
}

// coerceCell returns the cell's native value for sorting. Null and
// unparseable cells both report false and are pushed to the end.
func coerceCell(row dataset.Row, key query.SortKey) (any, bool) {
	cell := row.Cell(key.Column)
	if schema.IsNullValue(cell) {
		return nil, false
	}
	v, ok := schema.Coerce(cell, key.Type)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
