// Package schema implements column type inference for raw CSV data.
//
// A column's type is discovered by folding Infer over every cell in file
// order, starting from TypeUnknown. The fold only ever moves "down" a small
// lattice: integer may widen to float, and any class conflict collapses to
// string. Once a column is string it stays string.
package schema

// ColumnType is the inferred data type of a dataset column.
type ColumnType string

const (
	// TypeUnknown is the inference seed. It never appears in a frozen
	// schema: Finalize resolves it to TypeString.
	TypeUnknown   ColumnType = "unknown"
	TypeString    ColumnType = "string"
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
)

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeUnknown, TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDate, TypeTimestamp:
		return true
	}
	return false
}

// Numeric reports whether t is integer or float.
func (t ColumnType) Numeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// Temporal reports whether t is date or timestamp.
func (t ColumnType) Temporal() bool {
	return t == TypeDate || t == TypeTimestamp
}

// Ordered reports whether values of this type have a natural ordering
// beyond plain text comparison (used to validate range operators).
func (t ColumnType) Ordered() bool {
	return t.Numeric() || t.Temporal()
}

// Column describes one column of a dataset.
type Column struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Position int        `json:"position"` // 1-based, stable insertion order
}

// promote merges an observed cell class into the current column type.
// It encodes the full lattice: unknown accepts anything, integer widens to
// float, identical classes are stable, and every other combination is a
// conflict that resolves to string.
func promote(current, observed ColumnType) ColumnType {
	if current == TypeUnknown {
		return observed
	}
	if current == observed {
		return current
	}
	if current == TypeInteger && observed == TypeFloat {
		return TypeFloat
	}
	if current == TypeFloat && observed == TypeInteger {
		return TypeFloat
	}
	return TypeString
}

// Finalize resolves the post-scan type of a column. Columns that never saw
// a definite value (all cells empty) become string.
func Finalize(t ColumnType) ColumnType {
	if t == TypeUnknown {
		return TypeString
	}
	return t
}
