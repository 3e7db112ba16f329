package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/schema"
)

func ptr(s string) *string { return &s }

func testTypes() map[string]schema.ColumnType {
	return map[string]schema.ColumnType{
		"Name":   schema.TypeString,
		"Age":    schema.TypeInteger,
		"Score":  schema.TypeFloat,
		"Active": schema.TypeBoolean,
		"Born":   schema.TypeDate,
	}
}

func TestBuildSimpleFilter(t *testing.T) {
	plan, err := Build(testTypes(), Request{
		Filters: Filters{Columns: map[string][]FilterInput{
			"Age": {{Operator: ">", Value: ptr("25")}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, plan.And, 1)
	cond := plan.And[0]
	assert.Equal(t, "Age", cond.Column)
	assert.Equal(t, OpGreater, cond.Op)
	assert.Equal(t, int64(25), cond.Value)
	assert.Equal(t, schema.TypeInteger, cond.Type)

	assert.Equal(t, 1, plan.Page)
	assert.Equal(t, DefaultLimit, plan.Limit)
	assert.Equal(t, 0, plan.Offset)
	assert.Empty(t, plan.Sort)
}

func TestBuildCoercesByColumnType(t *testing.T) {
	plan, err := Build(testTypes(), Request{
		Filters: Filters{Columns: map[string][]FilterInput{
			"Score":  {{Operator: "<=", Value: ptr("9.5")}},
			"Active": {{Operator: "=", Value: ptr("yes")}},
			"Born":   {{Operator: ">=", Value: ptr("13/06/1999")}},
			"Name":   {{Operator: "like", Value: ptr("ALICE")}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, plan.And, 4)

	byCol := map[string]Condition{}
	for _, c := range plan.And {
		byCol[c.Column] = c
	}
	assert.Equal(t, 9.5, byCol["Score"].Value)
	assert.Equal(t, true, byCol["Active"].Value)
	assert.Equal(t, "alice", byCol["Name"].Value, "text matching is case-insensitive")

	born, ok := byCol["Born"].Value.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 1999, born.Year())
	assert.Equal(t, time.June, born.Month())
	assert.Equal(t, 13, born.Day())
}

func TestBuildUnknownColumn(t *testing.T) {
	_, err := Build(testTypes(), Request{
		Filters: Filters{Columns: map[string][]FilterInput{
			"Missing": {{Operator: "=", Value: ptr("x")}},
		}},
	})
	assert.ErrorIs(t, err, dataset.ErrInvalidColumn)

	_, err = Build(testTypes(), Request{Sort: []SortInput{{Column: "Missing"}}})
	assert.ErrorIs(t, err, dataset.ErrInvalidColumn)
}

func TestBuildUnsupportedOperator(t *testing.T) {
	// Range comparison on a string column.
	_, err := Build(testTypes(), Request{
		Filters: Filters{Columns: map[string][]FilterInput{
			"Name": {{Operator: ">", Value: ptr("a")}},
		}},
	})
	assert.ErrorIs(t, err, dataset.ErrUnsupportedOperator)

	// Text matching on a numeric column.
	_, err = Build(testTypes(), Request{
		Filters: Filters{Columns: map[string][]FilterInput{
			"Age": {{Operator: "contains", Value: ptr("2")}},
		}},
	})
	assert.ErrorIs(t, err, dataset.ErrUnsupportedOperator)

	// Unknown operator spelling.
	_, err = Build(testTypes(), Request{
		Filters: Filters{Columns: map[string][]FilterInput{
			"Age": {{Operator: "~~", Value: ptr("2")}},
		}},
	})
	assert.ErrorIs(t, err, dataset.ErrUnsupportedOperator)
}

func TestBuildInvalidPagination(t *testing.T) {
	_, err := Build(testTypes(), Request{Page: -1})
	assert.ErrorIs(t, err, dataset.ErrInvalidPagination)

	_, err = Build(testTypes(), Request{Limit: MaxLimit + 1})
	assert.ErrorIs(t, err, dataset.ErrInvalidPagination)

	// A larger cap can be granted for bulk scans.
	plan, err := Build(testTypes(), Request{Limit: 5000}, Options{MaxLimit: 10000})
	require.NoError(t, err)
	assert.Equal(t, 5000, plan.Limit)
}

func TestBuildDropsUnparseableCondition(t *testing.T) {
	plan, err := Build(testTypes(), Request{
		Filters: Filters{Columns: map[string][]FilterInput{
			"Age": {
				{Operator: ">", Value: ptr("not-a-number")},
				{Operator: "<", Value: ptr("65")},
			},
		}},
	})
	require.NoError(t, err, "unparseable values drop the condition, not the query")
	require.Len(t, plan.And, 1)
	assert.Equal(t, OpLess, plan.And[0].Op)
	assert.Equal(t, int64(65), plan.And[0].Value)
}

func TestBuildOrGroup(t *testing.T) {
	plan, err := Build(testTypes(), Request{
		Filters: NullScan([]string{"Name", "Age", "Score"}),
	})
	require.NoError(t, err)

	assert.Empty(t, plan.And)
	require.Len(t, plan.Or, 3)
	for _, cond := range plan.Or {
		assert.Equal(t, OpIsNull, cond.Op)
		assert.Nil(t, cond.Value)
	}
}

func TestBuildSort(t *testing.T) {
	plan, err := Build(testTypes(), Request{
		Sort: []SortInput{
			{Column: "Born", Direction: "DESC"},
			{Column: "Name"},
		},
	})
	require.NoError(t, err)

	require.Len(t, plan.Sort, 2)
	assert.Equal(t, SortKey{Column: "Born", Type: schema.TypeDate, Desc: true}, plan.Sort[0])
	assert.Equal(t, SortKey{Column: "Name", Type: schema.TypeString, Desc: false}, plan.Sort[1])
}

func TestBuildOffsets(t *testing.T) {
	plan, err := Build(testTypes(), Request{Page: 3, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 40, plan.Offset)
}

func TestParseOperatorAliases(t *testing.T) {
	for spelling, want := range map[string]Operator{
		"=": OpEquals, "eq": OpEquals, "!=": OpNotEquals, "<>": OpNotEquals,
		">": OpGreater, ">=": OpGreaterEq, "<": OpLess, "<=": OpLessEq,
		"like": OpContains, "contains": OpContains,
		"starts": OpStarts, "ends": OpEnds,
		"isNull": OpIsNull, "isNotNull": OpIsNotNull,
	} {
		op, ok := ParseOperator(spelling)
		require.True(t, ok, spelling)
		assert.Equal(t, want, op, spelling)
	}

	_, ok := ParseOperator("between")
	assert.False(t, ok)
}
