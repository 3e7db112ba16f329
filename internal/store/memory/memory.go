// Package memory is the document-store backend: datasets and rows held in
// process, query plans evaluated directly over the row maps. It backs
// tests and single-node deployments where durability is not needed, and
// doubles as the reference implementation of the condition semantics.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/query"
)

// Store is an in-memory store.Backend. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	datasets map[uuid.UUID]*entry
}

type entry struct {
	ds   dataset.Dataset
	rows []dataset.Row
}

// New creates an empty store.
func New() *Store {
	return &Store{datasets: make(map[uuid.UUID]*entry)}
}

// CreateDataset stores a deep-enough copy of the dataset and rows so later
// mutations by the caller cannot leak in.
func (s *Store) CreateDataset(_ context.Context, ds *dataset.Dataset, rows []dataset.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := entry{ds: *ds}
	stored.ds.Columns = append(stored.ds.Columns[:0:0], ds.Columns...)
	stored.rows = make([]dataset.Row, len(rows))
	for i, r := range rows {
		cells := make(map[string]*string, len(r.Cells))
		for k, v := range r.Cells {
			cells[k] = v
		}
		stored.rows[i] = dataset.Row{Num: r.Num, Cells: cells}
	}

	s.datasets[ds.ID] = &stored
	return nil
}

// GetDataset returns a copy of the dataset metadata.
func (s *Store) GetDataset(_ context.Context, id uuid.UUID) (*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.datasets[id]
	if !ok {
		return nil, dataset.ErrNotFound
	}
	cp := e.ds
	cp.Columns = append(cp.Columns[:0:0], e.ds.Columns...)
	return &cp, nil
}

// ListDatasets returns datasets owned by ownerID, newest first.
func (s *Store) ListDatasets(_ context.Context, ownerID string) ([]*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*dataset.Dataset
	for _, e := range s.datasets {
		if e.ds.OwnerID != ownerID {
			continue
		}
		cp := e.ds
		cp.Columns = append(cp.Columns[:0:0], e.ds.Columns...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Select filters, sorts and pages rows per the plan.
func (s *Store) Select(_ context.Context, ds *dataset.Dataset, plan *query.Plan) ([]dataset.Row, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.datasets[ds.ID]
	if !ok {
		return nil, 0, dataset.ErrNotFound
	}

	var matched []dataset.Row
	for _, row := range e.rows {
		if matches(row, plan) {
			matched = append(matched, row)
		}
	}

	sortRows(matched, plan.Sort)

	total := int64(len(matched))
	start := plan.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + plan.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]dataset.Row, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

// SelectAll returns every row in row-number order.
func (s *Store) SelectAll(_ context.Context, ds *dataset.Dataset) ([]dataset.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.datasets[ds.ID]
	if !ok {
		return nil, dataset.ErrNotFound
	}

	out := make([]dataset.Row, len(e.rows))
	copy(out, e.rows)
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })
	return out, nil
}

// RenameColumn rewrites the schema entry and the key in every row map.
func (s *Store) RenameColumn(_ context.Context, ds *dataset.Dataset, old, new string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.datasets[ds.ID]
	if !ok {
		return dataset.ErrNotFound
	}
	if !e.ds.RenameColumn(old, new) {
		return fmt.Errorf("%w: %q", dataset.ErrInvalidColumn, old)
	}

	for _, row := range e.rows {
		if v, ok := row.Cells[old]; ok {
			row.Cells[new] = v
			delete(row.Cells, old)
		}
	}
	return nil
}

// DeleteDataset removes the dataset and its rows.
func (s *Store) DeleteDataset(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return dataset.ErrNotFound
	}
	delete(s.datasets, id)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}
