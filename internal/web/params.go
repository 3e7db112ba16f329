package web

// params.go parses the declarative query parameters of GET /data requests:
//
//	page=2&limit=50
//	sort=Joined,Name&dir=desc,asc
//	filters={"Age":[{"operator":">","value":"25"}],
//	         "_or_conditions":[{"column":"A","operator":"isNull"}]}

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/query"
)

func parseQueryRequest(r *http.Request) (query.Request, error) {
	page, limit, err := parsePagination(r)
	if err != nil {
		return query.Request{}, err
	}

	req := query.Request{
		Page:  page,
		Limit: limit,
		Sort:  parseSort(r),
	}

	req.Filters, err = parseFilters(r.URL.Query().Get("filters"))
	if err != nil {
		return query.Request{}, err
	}
	return req, nil
}

func parsePagination(r *http.Request) (page, limit int, err error) {
	if page, err = intParam(r, "page"); err != nil {
		return 0, 0, fmt.Errorf("%w: page: %v", dataset.ErrInvalidPagination, err)
	}
	if limit, err = intParam(r, "limit"); err != nil {
		return 0, 0, fmt.Errorf("%w: limit: %v", dataset.ErrInvalidPagination, err)
	}
	return page, limit, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// parseSort pairs the sort and dir lists positionally. A missing or short
// dir list defaults the remaining columns to ascending.
func parseSort(r *http.Request) []query.SortInput {
	cols := splitList(r.URL.Query().Get("sort"))
	dirs := splitList(r.URL.Query().Get("dir"))

	sorts := make([]query.SortInput, 0, len(cols))
	for i, col := range cols {
		in := query.SortInput{Column: col}
		if i < len(dirs) {
			in.Direction = dirs[i]
		}
		sorts = append(sorts, in)
	}
	return sorts
}

// parseFilters decodes the filters JSON object: column names map to
// condition lists, with query.OrKey holding the OR group.
func parseFilters(raw string) (query.Filters, error) {
	if raw == "" {
		return query.Filters{}, nil
	}

	var decoded map[string][]query.FilterInput
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return query.Filters{}, fmt.Errorf("%w: filters must be a JSON object of condition lists: %v",
			dataset.ErrInvalidColumn, err)
	}

	f := query.Filters{Columns: make(map[string][]query.FilterInput, len(decoded))}
	for col, conds := range decoded {
		if col == query.OrKey {
			f.Or = conds
			continue
		}
		f.Columns[col] = conds
	}
	return f, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
