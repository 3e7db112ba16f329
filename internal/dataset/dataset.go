// Package dataset defines the data model produced by CSV ingestion: a
// dataset with an inferred column schema and its raw rows. The package has
// no storage or HTTP dependencies and is shared by every backend.
package dataset

import (
	"time"

	"github.com/google/uuid"

	"github.com/csvgrid/csvgrid/internal/schema"
)

// Dataset is one uploaded CSV: an ordered column schema plus a row count.
// Rows live in the storage backend, not on the struct.
type Dataset struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Name      string          `json:"name"`
	Columns   []schema.Column `json:"columns"`
	RowCount  int             `json:"rowCount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Column returns the column with the given name, or false if the dataset
// has no such column.
func (d *Dataset) Column(name string) (schema.Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return schema.Column{}, false
}

// ColumnTypes returns the name-to-type map consumed by the query builder.
func (d *Dataset) ColumnTypes() map[string]schema.ColumnType {
	types := make(map[string]schema.ColumnType, len(d.Columns))
	for _, c := range d.Columns {
		types[c.Name] = c.Type
	}
	return types
}

// ColumnNames returns the column names in schema order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// RenameColumn updates the schema entry for old to carry the new name.
// Type and position are preserved. Returns false if old is not a column.
// Callers are responsible for propagating the rename to stored rows.
func (d *Dataset) RenameColumn(old, new string) bool {
	for i := range d.Columns {
		if d.Columns[i].Name == old {
			d.Columns[i].Name = new
			return true
		}
	}
	return false
}

// Row is one ingested CSV record. Cells map column names to the original
// cell text; a nil value is an empty or missing cell. Num is 1-based and
// unique within the dataset.
type Row struct {
	Num   int                `json:"rowNumber"`
	Cells map[string]*string `json:"cells"`
}

// Cell returns the raw value for a column. Missing keys and nil values are
// both reported as nil.
func (r Row) Cell(column string) *string {
	return r.Cells[column]
}
