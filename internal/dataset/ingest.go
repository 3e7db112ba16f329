package dataset

// ingest.go turns raw CSV bytes into typed dataset material: it tokenizes
// the file, folds the schema inference over every cell, and produces rows
// that keep the original text untouched. The whole scan is a single pass
// in file order; column types depend on the cumulative history of values.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/csvgrid/csvgrid/internal/schema"
)

// Result is the outcome of ingesting one CSV file.
type Result struct {
	Columns  []schema.Column
	Rows     []Row
	RowCount int
}

// ParseCSV tokenizes raw CSV bytes into an ordered header list and one
// name-to-value map per data row. Cell text is cleaned of common CSV
// artifacts; empty cells become nil. Returns ErrParse for files that are
// structurally not CSV, and for empty files.
func ParseCSV(data []byte) ([]string, []map[string]*string, error) {
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrParse)
	}

	headers := headerNames(records[0])

	rows := make([]map[string]*string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}
		row := make(map[string]*string, len(headers))
		for i, raw := range record {
			// Cells beyond the header line get synthetic names so no
			// data is silently dropped.
			if i >= len(headers) {
				headers = append(headers, fmt.Sprintf("column_%d", i+1))
			}
			cell := cleanCell(raw)
			if cell == "" {
				row[headers[i]] = nil
			} else {
				v := cell
				row[headers[i]] = &v
			}
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

// Ingest folds type inference over already-tokenized records and assigns
// 1-based row numbers. The column set is the union of the header list and
// every key observed in the records; columns first seen on later records
// are appended after the declared headers, keeping positions stable.
func Ingest(headers []string, records []map[string]*string) *Result {
	type state struct {
		index int
		typ   schema.ColumnType
	}

	order := make([]string, 0, len(headers))
	seen := make(map[string]*state, len(headers))

	add := func(name string) *state {
		st := &state{index: len(order), typ: schema.TypeUnknown}
		seen[name] = st
		order = append(order, name)
		return st
	}

	for _, h := range headers {
		if _, ok := seen[h]; !ok {
			add(h)
		}
	}

	rows := make([]Row, 0, len(records))
	for i, record := range records {
		// Keys not in the header line are appended in name order so the
		// result does not depend on map iteration order.
		var late []string
		for name := range record {
			if _, ok := seen[name]; !ok {
				late = append(late, name)
			}
		}
		sort.Strings(late)
		for _, name := range late {
			add(name)
		}

		for name, st := range seen {
			st.typ = schema.Infer(record[name], st.typ)
		}

		rows = append(rows, Row{Num: i + 1, Cells: record})
	}

	columns := make([]schema.Column, len(order))
	for i, name := range order {
		columns[i] = schema.Column{
			Name:     name,
			Type:     schema.Finalize(seen[name].typ),
			Position: i + 1,
		}
	}

	return &Result{Columns: columns, Rows: rows, RowCount: len(rows)}
}

// IngestCSV is the full pipeline from raw bytes to a Result.
func IngestCSV(data []byte) (*Result, error) {
	headers, records, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}
	return Ingest(headers, records), nil
}

// headerNames cleans the header record and guarantees non-empty, unique
// column names.
func headerNames(record []string) []string {
	names := make([]string, 0, len(record))
	used := make(map[string]bool, len(record))
	for i, raw := range record {
		name := cleanCell(raw)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true
		names = append(names, name)
	}
	return names
}

// cleanCell strips common CSV artifacts: surrounding whitespace, Excel
// formula prefixes (="value"), and stray surrounding quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// sanitizeUTF8 replaces invalid byte sequences so the CSV reader and the
// database never see broken UTF-8.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
