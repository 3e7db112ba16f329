// Package postgres is the durable store.Backend. Each dataset keeps its
// schema in dataset_columns and its rows as JSONB documents in
// dataset_rows, one document per CSV record, cell text stored verbatim
// alongside a norm document of castable date renderings.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/query"
	"github.com/csvgrid/csvgrid/internal/schema"
)

//go:embed schema.sql
var schemaSQL string

// insertBatchSize bounds the number of row inserts queued per round trip.
const insertBatchSize = 500

// Store is a postgres-backed store.Backend.
type Store struct {
	pool *pgxpool.Pool
}

// New connects, verifies the connection and ensures the schema exists.
func New(ctx context.Context, cfg *pgxpool.Config) (*Store, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", dataset.ErrBackend, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", dataset.ErrBackend, err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", dataset.ErrBackend, err)
	}
	return &Store{pool: pool}, nil
}

// CreateDataset writes the dataset, its columns and all rows in one
// transaction. Row inserts are batched.
func (s *Store) CreateDataset(ctx context.Context, ds *dataset.Dataset, rows []dataset.Row) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", dataset.ErrBackend, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO datasets (id, owner_id, name, row_count, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ds.ID.String(), ds.OwnerID, ds.Name, ds.RowCount, ds.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert dataset: %v", dataset.ErrBackend, err)
	}

	for _, col := range ds.Columns {
		_, err = tx.Exec(ctx,
			`INSERT INTO dataset_columns (dataset_id, name, type, position)
			 VALUES ($1, $2, $3, $4)`,
			ds.ID.String(), col.Name, string(col.Type), col.Position)
		if err != nil {
			return fmt.Errorf("%w: insert column %q: %v", dataset.ErrBackend, col.Name, err)
		}
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		batch := &pgx.Batch{}
		for _, row := range rows[start:end] {
			batch.Queue(
				`INSERT INTO dataset_rows (dataset_id, row_num, data, norm)
				 VALUES ($1, $2, $3, $4)`,
				ds.ID.String(), row.Num, row.Cells, normCells(ds.Columns, row))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%w: insert rows: %v", dataset.ErrBackend, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", dataset.ErrBackend, err)
	}
	return nil
}

// normCells renders every date and timestamp cell of a row in the ISO form
// Postgres can cast, keyed by column name. The raw layouts users upload
// (day-first, dotted) are not castable under the server's DateStyle, so
// queries cast the norm document while data keeps the original text for
// display and export. Cells that are empty or do not parse are left out.
func normCells(cols []schema.Column, row dataset.Row) map[string]string {
	norm := make(map[string]string)
	for _, col := range cols {
		if col.Type != schema.TypeDate && col.Type != schema.TypeTimestamp {
			continue
		}
		v, ok := schema.Coerce(row.Cell(col.Name), col.Type)
		if !ok || v == nil {
			continue
		}
		norm[col.Name] = schema.FormatValue(v)
	}
	return norm
}

// GetDataset loads dataset metadata and its column schema.
func (s *Store) GetDataset(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error) {
	ds := &dataset.Dataset{ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT owner_id, name, row_count, created_at FROM datasets WHERE id = $1`,
		id.String()).Scan(&ds.OwnerID, &ds.Name, &ds.RowCount, &ds.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dataset.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get dataset: %v", dataset.ErrBackend, err)
	}

	ds.Columns, err = s.columns(ctx, id)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *Store) columns(ctx context.Context, id uuid.UUID) ([]schema.Column, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, type, position FROM dataset_columns
		 WHERE dataset_id = $1 ORDER BY position`,
		id.String())
	if err != nil {
		return nil, fmt.Errorf("%w: load columns: %v", dataset.ErrBackend, err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var c schema.Column
		var typ string
		if err := rows.Scan(&c.Name, &typ, &c.Position); err != nil {
			return nil, fmt.Errorf("%w: scan column: %v", dataset.ErrBackend, err)
		}
		c.Type = schema.ColumnType(typ)
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load columns: %v", dataset.ErrBackend, err)
	}
	return cols, nil
}

// ListDatasets returns a user's datasets, newest first, schemas included.
func (s *Store) ListDatasets(ctx context.Context, ownerID string) ([]*dataset.Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, row_count, created_at FROM datasets
		 WHERE owner_id = $1 ORDER BY created_at DESC, id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list datasets: %v", dataset.ErrBackend, err)
	}
	defer rows.Close()

	var out []*dataset.Dataset
	for rows.Next() {
		ds := &dataset.Dataset{OwnerID: ownerID}
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.RowCount, &ds.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan dataset: %v", dataset.ErrBackend, err)
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list datasets: %v", dataset.ErrBackend, err)
	}

	for _, ds := range out {
		if ds.Columns, err = s.columns(ctx, ds.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Select runs the translated plan: one count query for the filtered total,
// one page query for the rows.
func (s *Store) Select(ctx context.Context, ds *dataset.Dataset, plan *query.Plan) ([]dataset.Row, int64, error) {
	stmt := translate(ds.ID.String(), plan)

	var total int64
	if err := s.pool.QueryRow(ctx, stmt.CountSQL, stmt.CountArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count rows: %v", dataset.ErrBackend, err)
	}

	rows, err := s.pool.Query(ctx, stmt.SelectSQL, stmt.SelectArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: select rows: %v", dataset.ErrBackend, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SelectAll streams every row in row-number order.
func (s *Store) SelectAll(ctx context.Context, ds *dataset.Dataset) ([]dataset.Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row_num, data FROM dataset_rows
		 WHERE dataset_id = $1 ORDER BY row_num`,
		ds.ID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: select rows: %v", dataset.ErrBackend, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]dataset.Row, error) {
	var out []dataset.Row
	for rows.Next() {
		var r dataset.Row
		if err := rows.Scan(&r.Num, &r.Cells); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", dataset.ErrBackend, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", dataset.ErrBackend, err)
	}
	return out, nil
}

// RenameColumn updates the schema row and moves the key in every row
// document, in one transaction.
func (s *Store) RenameColumn(ctx context.Context, ds *dataset.Dataset, old, new string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", dataset.ErrBackend, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE dataset_columns SET name = $3 WHERE dataset_id = $1 AND name = $2`,
		ds.ID.String(), old, new)
	if err != nil {
		return fmt.Errorf("%w: rename column: %v", dataset.ErrBackend, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", dataset.ErrInvalidColumn, old)
	}

	_, err = tx.Exec(ctx,
		`UPDATE dataset_rows
		 SET data = (data - $2::text) || jsonb_build_object($3::text, data -> $2::text),
		     norm = CASE WHEN norm ? $2::text
		                 THEN (norm - $2::text) || jsonb_build_object($3::text, norm -> $2::text)
		                 ELSE norm END
		 WHERE dataset_id = $1 AND (data ? $2::text OR norm ? $2::text)`,
		ds.ID.String(), old, new)
	if err != nil {
		return fmt.Errorf("%w: rewrite rows: %v", dataset.ErrBackend, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", dataset.ErrBackend, err)
	}
	return nil
}

// DeleteDataset removes the dataset; columns and rows cascade.
func (s *Store) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("%w: delete dataset: %v", dataset.ErrBackend, err)
	}
	if tag.RowsAffected() == 0 {
		return dataset.ErrNotFound
	}
	return nil
}

// Ping checks pool health.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", dataset.ErrBackend, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
