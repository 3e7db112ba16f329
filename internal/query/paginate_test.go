package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/csvgrid/csvgrid/internal/dataset"
)

func TestNewResultInvariants(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		page       int
		limit      int
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{name: "first of many", total: 95, page: 1, limit: 10, totalPages: 10, hasNext: true, hasPrev: false},
		{name: "middle page", total: 95, page: 5, limit: 10, totalPages: 10, hasNext: true, hasPrev: true},
		{name: "last page", total: 95, page: 10, limit: 10, totalPages: 10, hasNext: false, hasPrev: true},
		{name: "exact fit", total: 100, page: 10, limit: 10, totalPages: 10, hasNext: false, hasPrev: true},
		{name: "single page", total: 3, page: 1, limit: 10, totalPages: 1, hasNext: false, hasPrev: false},
		// Zero matching rows still reports one page.
		{name: "empty result", total: 0, page: 1, limit: 10, totalPages: 1, hasNext: false, hasPrev: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResult(nil, tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.totalPages, res.TotalPages)
			assert.Equal(t, tt.hasNext, res.HasNextPage)
			assert.Equal(t, tt.hasPrev, res.HasPreviousPage)
			assert.Equal(t, tt.total, res.TotalRows)
			assert.Equal(t, tt.page, res.CurrentPage)
			assert.Equal(t, tt.limit, res.RowsPerPage)
			assert.NotNil(t, res.Data, "Data must marshal as [], not null")
		})
	}
}

// Paging through a fixed set must yield every row exactly once.
func TestPagesCoverAllRows(t *testing.T) {
	const total, limit = 23, 5

	rows := make([]dataset.Row, total)
	for i := range rows {
		rows[i] = dataset.Row{Num: i + 1}
	}

	seen := 0
	for page := 1; ; page++ {
		start := (page - 1) * limit
		end := start + limit
		if end > total {
			end = total
		}
		res := NewResult(rows[start:end], total, page, limit)
		seen += len(res.Data)
		if !res.HasNextPage {
			assert.Equal(t, res.TotalPages, page)
			break
		}
	}
	assert.Equal(t, total, seen)
}
