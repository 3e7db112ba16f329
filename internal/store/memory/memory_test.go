package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/query"
	"github.com/csvgrid/csvgrid/internal/schema"
)

func ptr(s string) *string { return &s }

// seed ingests a CSV and stores it under a fresh id.
func seed(t *testing.T, s *Store, ownerID, name, csvData string) *dataset.Dataset {
	t.Helper()

	res, err := dataset.IngestCSV([]byte(csvData))
	require.NoError(t, err)

	ds := &dataset.Dataset{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		Columns:   res.Columns,
		RowCount:  res.RowCount,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateDataset(context.Background(), ds, res.Rows))
	return ds
}

func buildPlan(t *testing.T, ds *dataset.Dataset, req query.Request) *query.Plan {
	t.Helper()
	plan, err := query.Build(ds.ColumnTypes(), req)
	require.NoError(t, err)
	return plan
}

const peopleCSV = "Name,Age,City\n" +
	"Alice,30,Oslo\n" +
	"Bob,22,Bergen\n" +
	"Carol,41,\n" +
	"Dave,25,Oslo\n"

func TestSelectFilter(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "people", peopleCSV)

	plan := buildPlan(t, ds, query.Request{
		Filters: query.Filters{Columns: map[string][]query.FilterInput{
			"Age": {{Operator: ">", Value: ptr("25")}},
		}},
	})

	rows, total, err := s.Select(context.Background(), ds, plan)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", *rows[0].Cell("Name"))
	assert.Equal(t, "Carol", *rows[1].Cell("Name"))
}

// Equality on integers past float64's exact range must not collapse
// neighboring values.
func TestSelectLargeIntegerEquality(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "big", "Label,Val\n"+
		"even,9007199254740992\n"+
		"odd,9007199254740993\n")

	plan := buildPlan(t, ds, query.Request{
		Filters: query.Filters{Columns: map[string][]query.FilterInput{
			"Val": {{Operator: "=", Value: ptr("9007199254740993")}},
		}},
	})

	rows, total, err := s.Select(context.Background(), ds, plan)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "odd", *rows[0].Cell("Label"))
}

func TestSelectTextOperators(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "people", peopleCSV)

	tests := []struct {
		name     string
		operator string
		value    string
		want     []string
	}{
		{"contains ignores case", "contains", "OS", []string{"Alice", "Dave"}},
		{"starts", "starts", "ber", []string{"Bob"}},
		{"ends", "ends", "lo", []string{"Alice", "Dave"}},
		{"equality ignores case", "=", "OSLO", []string{"Alice", "Dave"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := buildPlan(t, ds, query.Request{
				Filters: query.Filters{Columns: map[string][]query.FilterInput{
					"City": {{Operator: tt.operator, Value: ptr(tt.value)}},
				}},
			})
			rows, _, err := s.Select(context.Background(), ds, plan)
			require.NoError(t, err)

			var got []string
			for _, r := range rows {
				got = append(got, *r.Cell("Name"))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectNullScan(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "gaps", "A,B,C\n"+
		"1,x,ok\n"+
		"2,,ok\n"+
		"3,y,\n"+
		"4,null,ok\n"+
		"5,z,ok\n")

	plan := buildPlan(t, ds, query.Request{
		Filters: query.NullScan(ds.ColumnNames()),
	})

	rows, total, err := s.Select(context.Background(), ds, plan)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	var nums []int
	for _, r := range rows {
		nums = append(nums, r.Num)
	}
	assert.Equal(t, []int{2, 3, 4}, nums, `empty, missing and literal "null" all count`)
}

func TestSelectNotNullFiltersLiteralNull(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "gaps", "A,B\n1,x\n2,null\n3, \n4,y\n")

	plan := buildPlan(t, ds, query.Request{
		Filters: query.Filters{Columns: map[string][]query.FilterInput{
			"B": {{Operator: "isNotNull"}},
		}},
	})

	rows, total, err := s.Select(context.Background(), ds, plan)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, 1, rows[0].Num)
	assert.Equal(t, 4, rows[1].Num)
}

// Dates stored as dd/MM/yyyy must sort chronologically, not lexically.
func TestSortDatesChronologically(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "events", "Event,When\n"+
		"c,02/01/2021\n"+
		"b,15/06/2020\n"+
		"a,01/12/2019\n")

	col, ok := ds.Column("When")
	require.True(t, ok)
	require.Equal(t, schema.TypeDate, col.Type)

	plan := buildPlan(t, ds, query.Request{
		Sort: []query.SortInput{{Column: "When"}},
	})

	rows, _, err := s.Select(context.Background(), ds, plan)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Lexical order would be 01/12/2019, 02/01/2021, 15/06/2020.
	assert.Equal(t, "a", *rows[0].Cell("Event"))
	assert.Equal(t, "b", *rows[1].Cell("Event"))
	assert.Equal(t, "c", *rows[2].Cell("Event"))
}

func TestSortNullsLastAndDescending(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "scores", "Name,Score\n"+
		"a,1.5\n"+
		"b,\n"+
		"c,9.25\n"+
		"d,4\n")

	plan := buildPlan(t, ds, query.Request{
		Sort: []query.SortInput{{Column: "Score", Direction: "desc"}},
	})

	rows, _, err := s.Select(context.Background(), ds, plan)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	var names []string
	for _, r := range rows {
		names = append(names, *r.Cell("Name"))
	}
	assert.Equal(t, []string{"c", "d", "a", "b"}, names, "null cell sorts last even descending")
}

func TestSortMultiKey(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "multi", "City,Age\n"+
		"Oslo,30\n"+
		"Bergen,22\n"+
		"Oslo,25\n")

	plan := buildPlan(t, ds, query.Request{
		Sort: []query.SortInput{
			{Column: "City"},
			{Column: "Age", Direction: "desc"},
		},
	})

	rows, _, err := s.Select(context.Background(), ds, plan)
	require.NoError(t, err)

	var ages []string
	for _, r := range rows {
		ages = append(ages, *r.Cell("Age"))
	}
	assert.Equal(t, []string{"22", "30", "25"}, ages)
}

func TestSelectPagination(t *testing.T) {
	s := New()

	csvData := "N\n"
	for i := 1; i <= 23; i++ {
		csvData += string(rune('0'+i/10)) + string(rune('0'+i%10)) + "\n"
	}
	ds := seed(t, s, "u1", "numbers", csvData)

	seen := map[int]bool{}
	for page := 1; page <= 5; page++ {
		plan := buildPlan(t, ds, query.Request{Page: page, Limit: 5})
		rows, total, err := s.Select(context.Background(), ds, plan)
		require.NoError(t, err)
		assert.Equal(t, int64(23), total)
		for _, r := range rows {
			assert.False(t, seen[r.Num], "row %d served twice", r.Num)
			seen[r.Num] = true
		}
	}
	assert.Len(t, seen, 23)

	// Past the last page: empty data, same total.
	plan := buildPlan(t, ds, query.Request{Page: 9, Limit: 5})
	rows, total, err := s.Select(context.Background(), ds, plan)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int64(23), total)
}

func TestRenameColumnRewritesRows(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "people", peopleCSV)
	ctx := context.Background()

	require.NoError(t, s.RenameColumn(ctx, ds, "Age", "Years"))

	got, err := s.GetDataset(ctx, ds.ID)
	require.NoError(t, err)

	col, ok := got.Column("Years")
	require.True(t, ok)
	assert.Equal(t, schema.TypeInteger, col.Type)
	assert.Equal(t, 2, col.Position)
	_, ok = got.Column("Age")
	assert.False(t, ok)

	// The renamed column is immediately queryable.
	plan := buildPlan(t, got, query.Request{
		Filters: query.Filters{Columns: map[string][]query.FilterInput{
			"Years": {{Operator: ">=", Value: ptr("30")}},
		}},
	})
	rows, total, err := s.Select(ctx, got, plan)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, r := range rows {
		assert.NotNil(t, r.Cell("Years"))
		assert.Nil(t, r.Cell("Age"))
	}
}

func TestRenameUnknownColumn(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "people", peopleCSV)

	err := s.RenameColumn(context.Background(), ds, "Nope", "X")
	assert.ErrorIs(t, err, dataset.ErrInvalidColumn)
}

func TestSelectAllRowOrder(t *testing.T) {
	s := New()
	ds := seed(t, s, "u1", "people", peopleCSV)

	rows, err := s.SelectAll(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Num)
	}
}

func TestListDatasetsOwnershipAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := seed(t, s, "u1", "first", "A\n1\n")
	time.Sleep(2 * time.Millisecond)
	b := seed(t, s, "u1", "second", "A\n1\n")
	seed(t, s, "u2", "other", "A\n1\n")

	list, err := s.ListDatasets(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "newest first")
	assert.Equal(t, a.ID, list[1].ID)
}

func TestNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()
	missing := &dataset.Dataset{ID: uuid.New()}

	_, err := s.GetDataset(ctx, missing.ID)
	assert.ErrorIs(t, err, dataset.ErrNotFound)

	_, _, err = s.Select(ctx, missing, &query.Plan{Limit: 10})
	assert.ErrorIs(t, err, dataset.ErrNotFound)

	err = s.DeleteDataset(ctx, missing.ID)
	assert.ErrorIs(t, err, dataset.ErrNotFound)
}

func TestDeleteDataset(t *testing.T) {
	s := New()
	ctx := context.Background()
	ds := seed(t, s, "u1", "people", peopleCSV)

	require.NoError(t, s.DeleteDataset(ctx, ds.ID))
	_, err := s.GetDataset(ctx, ds.ID)
	assert.ErrorIs(t, err, dataset.ErrNotFound)
}
