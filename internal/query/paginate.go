package query

import "github.com/csvgrid/csvgrid/internal/dataset"

// NewResult assembles the paginated envelope from a page of rows and the
// filtered total. totalRows counts rows matching the filter, not the whole
// dataset, so hasNextPage stays correct under filtering.
//
// An empty result still reports one page; clients rely on totalPages >= 1.
func NewResult(rows []dataset.Row, totalRows int64, page, limit int) *Result {
	if rows == nil {
		rows = []dataset.Row{}
	}

	totalPages := int((totalRows + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &Result{
		Data:            rows,
		TotalRows:       totalRows,
		RowsPerPage:     limit,
		CurrentPage:     page,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
