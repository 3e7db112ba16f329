// Package core provides the business logic for dataset uploads and queries:
// ingestion, ownership checks, query building and extracts. It talks to a
// store.Backend and knows nothing about HTTP.
package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/query"
	"github.com/csvgrid/csvgrid/internal/store"
)

// Limits bounds what the service will accept and return.
type Limits struct {
	MaxFileSize   int64 // upload size ceiling in bytes
	NullScanLimit int   // page cap for null-row scans, above the normal max
}

// Service implements the dataset operations on top of a storage backend.
type Service struct {
	store  store.Backend
	limits Limits
}

// NewService creates a Service over the given backend.
func NewService(backend store.Backend, limits Limits) *Service {
	return &Service{store: backend, limits: limits}
}

// UploadCSV ingests a CSV file into a new dataset owned by ownerID. The
// whole file is stored or nothing is.
func (s *Service) UploadCSV(ctx context.Context, ownerID, name string, data []byte) (*dataset.Dataset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", dataset.ErrParse)
	}
	if s.limits.MaxFileSize > 0 && int64(len(data)) > s.limits.MaxFileSize {
		return nil, fmt.Errorf("%w: file too large (limit %d bytes)", dataset.ErrParse, s.limits.MaxFileSize)
	}

	res, err := dataset.IngestCSV(data)
	if err != nil {
		return nil, err
	}

	ds := &dataset.Dataset{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      datasetName(name),
		Columns:   res.Columns,
		RowCount:  res.RowCount,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateDataset(ctx, ds, res.Rows); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "dataset created",
		"dataset_id", ds.ID,
		"owner_id", ownerID,
		"columns", len(ds.Columns),
		"rows", ds.RowCount,
	)
	return ds, nil
}

// Dataset loads a dataset's metadata, enforcing ownership.
func (s *Service) Dataset(ctx context.Context, ownerID string, id uuid.UUID) (*dataset.Dataset, error) {
	ds, err := s.store.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if ds.OwnerID != ownerID {
		return nil, dataset.ErrAccessDenied
	}
	return ds, nil
}

// ListDatasets returns the caller's datasets, newest first.
func (s *Service) ListDatasets(ctx context.Context, ownerID string) ([]*dataset.Dataset, error) {
	return s.store.ListDatasets(ctx, ownerID)
}

// Data runs a filtered, sorted, paginated query against a dataset.
func (s *Service) Data(ctx context.Context, ownerID string, id uuid.UUID, req query.Request) (*query.Result, error) {
	ds, err := s.Dataset(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	plan, err := query.Build(ds.ColumnTypes(), req)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.store.Select(ctx, ds, plan)
	if err != nil {
		return nil, err
	}
	return query.NewResult(rows, total, plan.Page, plan.Limit), nil
}

// NullRows pages through rows where any column has no value. The page cap
// is raised to the null-scan limit so audits can cover large datasets.
func (s *Service) NullRows(ctx context.Context, ownerID string, id uuid.UUID, page, limit int) (*query.Result, error) {
	ds, err := s.Dataset(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	req := query.Request{
		Page:    page,
		Limit:   limit,
		Filters: query.NullScan(ds.ColumnNames()),
	}
	plan, err := query.Build(ds.ColumnTypes(), req, query.Options{MaxLimit: s.limits.NullScanLimit})
	if err != nil {
		return nil, err
	}

	rows, total, err := s.store.Select(ctx, ds, plan)
	if err != nil {
		return nil, err
	}
	return query.NewResult(rows, total, plan.Page, plan.Limit), nil
}

// Export writes the full dataset as CSV: header line in schema order, rows
// in row-number order, empty cells rendered as empty fields.
func (s *Service) Export(ctx context.Context, ownerID string, id uuid.UUID, w io.Writer) error {
	ds, err := s.Dataset(ctx, ownerID, id)
	if err != nil {
		return err
	}

	rows, err := s.store.SelectAll(ctx, ds)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	names := ds.ColumnNames()
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(names))
	for _, row := range rows {
		for i, name := range names {
			if cell := row.Cell(name); cell != nil {
				record[i] = *cell
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row.Num, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenameColumn renames a column across the schema and every stored row.
// The type and position carry over unchanged.
func (s *Service) RenameColumn(ctx context.Context, ownerID string, id uuid.UUID, old, new string) (*dataset.Dataset, error) {
	ds, err := s.Dataset(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	new = strings.TrimSpace(new)
	if new == "" {
		return nil, fmt.Errorf("%w: new name is empty", dataset.ErrInvalidColumn)
	}
	if _, ok := ds.Column(old); !ok {
		return nil, fmt.Errorf("%w: %q", dataset.ErrInvalidColumn, old)
	}
	if _, ok := ds.Column(new); ok && new != old {
		return nil, fmt.Errorf("%w: %q already exists", dataset.ErrInvalidColumn, new)
	}
	if new == old {
		return ds, nil
	}

	if err := s.store.RenameColumn(ctx, ds, old, new); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "column renamed",
		"dataset_id", ds.ID, "from", old, "to", new)

	return s.store.GetDataset(ctx, id)
}

// DeleteDataset removes a dataset and all of its rows.
func (s *Service) DeleteDataset(ctx context.Context, ownerID string, id uuid.UUID) error {
	if _, err := s.Dataset(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteDataset(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "dataset deleted", "dataset_id", id, "owner_id", ownerID)
	return nil
}

// Ping reports backend health.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func datasetName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	return name
}
