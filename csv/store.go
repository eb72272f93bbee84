// Package csv implements corpus.DatasetStore over CSV files.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/corpus"
	"github.com/fwojciec/corpus/fs"
)

// Ensure Store implements corpus.DatasetStore at compile time.
var _ corpus.DatasetStore = (*Store)(nil)

// Store reads the original table from InputPath and persists snapshots to
// Path. Once a snapshot exists at Path, Load resumes from it.
type Store struct {
	InputPath string
	Path      string
	Schema    corpus.Schema
}

// NewStore creates a new Store. If path is empty, snapshots are written back
// to the input path.
func NewStore(inputPath, path string, schema corpus.Schema) *Store {
	if path == "" {
		path = inputPath
	}
	return &Store{
		InputPath: inputPath,
		Path:      path,
		Schema:    schema,
	}
}

// Load reads the snapshot at Path if it exists, else the table at InputPath.
// Returns ENOTFOUND if neither file exists.
func (s *Store) Load(ctx context.Context) (*corpus.Dataset, error) {
	for _, path := range []string{s.Path, s.InputPath} {
		if path == "" {
			continue
		}
		ds, err := s.loadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return ds, err
	}
	return nil, corpus.Errorf(corpus.ENOTFOUND, "dataset not found: %s", s.InputPath)
}

func (s *Store) loadFile(path string) (*corpus.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return corpus.NewDataset(s.Schema, header, rows)
}

// Persist writes the full table to Path atomically.
func (s *Store) Persist(ctx context.Context, ds *corpus.Dataset) error {
	if s.Path == "" {
		return corpus.Errorf(corpus.EINVALID, "no output path configured")
	}
	return fs.WriteFileAtomic(s.Path, func(w io.Writer) error {
		return Write(w, ds)
	})
}

// Read parses a CSV table whose first record is the header.
// Returns EINVALID for an empty table or a malformed record.
func Read(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err = cr.Read()
	if err == io.EOF {
		return nil, nil, corpus.Errorf(corpus.EINVALID, "empty table: missing header row")
	}
	if err != nil {
		return nil, nil, corpus.Errorf(corpus.EINVALID, "parse header: %v", err)
	}
	// Drop a UTF-8 byte order mark left by spreadsheet exports.
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, corpus.Errorf(corpus.EINVALID, "parse row %d: %v", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// Write renders ds as CSV with a header row.
func Write(w io.Writer, ds *corpus.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Header()); err != nil {
		return err
	}
	for i := range ds.Len() {
		if err := cw.Write(ds.Row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
