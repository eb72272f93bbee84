package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/corpus"
)

// Compile-time interface verification.
var _ corpus.DatasetStore = (*DatasetStore)(nil)

// DatasetStore implements corpus.DatasetStore using SQLite.
//
// The first Persist into an empty database (or one holding a table of a
// different shape) writes every row. Later calls upsert only the rows
// reported by Dataset.Changed, inside a single transaction.
type DatasetStore struct {
	db     *DB
	schema corpus.Schema
	seed   corpus.DatasetStore
}

// NewDatasetStore creates a new DatasetStore. When the database is empty,
// Load reads from seed instead; seed may be nil.
func NewDatasetStore(db *DB, schema corpus.Schema, seed corpus.DatasetStore) *DatasetStore {
	return &DatasetStore{db: db, schema: schema, seed: seed}
}

// hashContent computes xxHash of content and returns a hex string.
func hashContent(content string) string {
	if content == "" {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// Load reads the stored table, or the seed table if none is stored.
// Returns ENOTFOUND if neither exists.
func (s *DatasetStore) Load(ctx context.Context) (*corpus.Dataset, error) {
	header, err := s.header(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		if s.seed == nil {
			return nil, corpus.Errorf(corpus.ENOTFOUND, "dataset not found")
		}
		return s.seed.Load(ctx)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT position, cells FROM dataset_rows ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table [][]string
	for rows.Next() {
		var position int
		var cells string
		if err := rows.Scan(&position, &cells); err != nil {
			return nil, err
		}
		if position != len(table) {
			return nil, corpus.Errorf(corpus.EINTERNAL, "row positions not contiguous at %d", position)
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", position, err)
		}
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return corpus.NewDataset(s.schema, header, table)
}

// Persist writes ds. A failed Persist leaves the previous snapshot intact.
func (s *DatasetStore) Persist(ctx context.Context, ds *corpus.Dataset) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	header, err := s.header(ctx, tx)
	if err != nil {
		return err
	}
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM dataset_rows`).Scan(&count); err != nil {
		return err
	}

	positions := ds.Changed()
	if !slices.Equal(header, ds.Header()) || count != ds.Len() {
		if err := s.replaceHeader(ctx, tx, ds.Header()); err != nil {
			return err
		}
		positions = make([]int, ds.Len())
		for i := range positions {
			positions[i] = i
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dataset_rows (position, url, status, content_hash, cells, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(position) DO UPDATE SET
			url = excluded.url,
			status = excluded.status,
			content_hash = excluded.content_hash,
			cells = excluded.cells,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, i := range positions {
		cells, err := json.Marshal(ds.Row(i))
		if err != nil {
			return err
		}
		rec := ds.Record(i)
		if _, err := stmt.ExecContext(ctx, i, rec.URL, rec.Status.Cell(), hashContent(rec.Content), string(cells), now); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_rows WHERE position >= ?`, ds.Len()); err != nil {
		return err
	}

	return tx.Commit()
}

// CountByStatus returns the number of stored rows per persisted status cell.
// Pending rows are counted under corpus.StatusPending.
func (s *DatasetStore) CountByStatus(ctx context.Context) (map[corpus.TransformStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM dataset_rows GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[corpus.TransformStatus]int)
	for rows.Next() {
		var cell string
		var n int
		if err := rows.Scan(&cell, &n); err != nil {
			return nil, err
		}
		status, err := corpus.ParseTransformStatus(cell)
		if err != nil {
			return nil, err
		}
		counts[status] += n
	}
	return counts, rows.Err()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *DatasetStore) header(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM dataset_columns ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		header = append(header, name)
	}
	return header, rows.Err()
}

func (s *DatasetStore) replaceHeader(ctx context.Context, tx *sql.Tx, header []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_columns`); err != nil {
		return err
	}
	for i, name := range header {
		if _, err := tx.ExecContext(ctx, `INSERT INTO dataset_columns (position, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("failed to write column %q: %w", name, err)
		}
	}
	return nil
}
