// Package store defines the storage contract behind the query translator.
//
// The filter/sort model in internal/query is backend-agnostic; only the
// final plan-to-native-query step differs per backend. Two implementations
// ship: postgres (rows as JSONB) and memory (an in-process document store).
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/query"
)

// Backend persists datasets and executes query plans against them.
//
// Implementations must report dataset.ErrNotFound for unknown ids and wrap
// infrastructure failures in dataset.ErrBackend. Ownership checks happen
// above this layer.
type Backend interface {
	// CreateDataset persists the dataset, its column schema and all rows
	// as a single unit. On any failure nothing is visible afterwards.
	CreateDataset(ctx context.Context, ds *dataset.Dataset, rows []dataset.Row) error

	// GetDataset loads a dataset's metadata (schema, row count, owner).
	GetDataset(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error)

	// ListDatasets returns all datasets owned by a user, newest first.
	ListDatasets(ctx context.Context, ownerID string) ([]*dataset.Dataset, error)

	// Select executes a plan and returns one page of rows plus the total
	// number of rows matching the plan's conditions (not the dataset size).
	Select(ctx context.Context, ds *dataset.Dataset, plan *query.Plan) ([]dataset.Row, int64, error)

	// SelectAll returns every row in row-number order, for full extracts.
	SelectAll(ctx context.Context, ds *dataset.Dataset) ([]dataset.Row, error)

	// RenameColumn renames a column in the schema and in every stored
	// row's key set, atomically from the caller's point of view.
	RenameColumn(ctx context.Context, ds *dataset.Dataset, old, new string) error

	// DeleteDataset removes the dataset and all of its rows.
	DeleteDataset(ctx context.Context, id uuid.UUID) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}
