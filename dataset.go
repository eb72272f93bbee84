package corpus

import (
	"context"
	"slices"
	"strings"
)

// Default column names added to datasets that lack them.
const (
	DefaultURLColumn         = "URL"
	DefaultContentColumn     = "content"
	DefaultTransformedColumn = "transformed_content"
	DefaultStatusColumn      = "transform_status"
)

// LegacyFailureMarker starts the transformed cell of rows whose translation
// failed in tables that predate the status column.
const LegacyFailureMarker = "[Erreur traduction]"

// Schema names the dataset columns the pipeline reads and writes.
// All other columns are carried through untouched.
type Schema struct {
	URLColumn         string
	TitleColumn       string // optional; empty means no title column
	ContentColumn     string
	TransformedColumn string
	StatusColumn      string
}

// DefaultSchema returns the schema used when no column names are configured.
func DefaultSchema() Schema {
	return Schema{
		URLColumn:         DefaultURLColumn,
		ContentColumn:     DefaultContentColumn,
		TransformedColumn: DefaultTransformedColumn,
		StatusColumn:      DefaultStatusColumn,
	}
}

func (s Schema) withDefaults() Schema {
	def := DefaultSchema()
	if s.URLColumn == "" {
		s.URLColumn = def.URLColumn
	}
	if s.ContentColumn == "" {
		s.ContentColumn = def.ContentColumn
	}
	if s.TransformedColumn == "" {
		s.TransformedColumn = def.TransformedColumn
	}
	if s.StatusColumn == "" {
		s.StatusColumn = def.StatusColumn
	}
	return s
}

// Dataset is the in-memory working table.
// Row order is fixed at load; columns may be added but are never removed.
// A Dataset is not safe for concurrent use.
type Dataset struct {
	schema Schema
	header []string
	rows   [][]string

	url, title, content, transformed, status int

	changed map[int]struct{}
}

// NewDataset builds a Dataset from a header and rows.
// The URL column (and title column, if named) must exist. Missing content,
// transformed and status columns are appended with unset cells.
// Rows shorter than the header are padded; longer rows are rejected.
func NewDataset(schema Schema, header []string, rows [][]string) (*Dataset, error) {
	schema = schema.withDefaults()
	d := &Dataset{
		schema:  schema,
		header:  slices.Clone(header),
		title:   -1,
		changed: make(map[int]struct{}),
	}

	if d.url = slices.Index(d.header, schema.URLColumn); d.url < 0 {
		return nil, Errorf(EINVALID, "missing URL column %q", schema.URLColumn)
	}
	if schema.TitleColumn != "" {
		if d.title = slices.Index(d.header, schema.TitleColumn); d.title < 0 {
			return nil, Errorf(EINVALID, "missing title column %q", schema.TitleColumn)
		}
	}

	width := len(d.header)
	hadStatus := slices.Contains(d.header, schema.StatusColumn)
	d.content = d.ensureColumn(schema.ContentColumn)
	d.transformed = d.ensureColumn(schema.TransformedColumn)
	d.status = d.ensureColumn(schema.StatusColumn)

	d.rows = make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > width {
			return nil, Errorf(EINVALID, "row %d has %d fields, header has %d", i, len(row), width)
		}
		r := make([]string, len(d.header))
		copy(r, row)

		if _, err := ParseTransformStatus(r[d.status]); err != nil {
			return nil, Errorf(EINVALID, "row %d: %s", i, ErrorMessage(err))
		}
		// Tables written before the status column existed: a filled
		// transformed cell is a finished row unless it holds the failure
		// marker, which is cleared so the row is retried.
		if !hadStatus && r[d.transformed] != "" {
			if strings.HasPrefix(r[d.transformed], LegacyFailureMarker) {
				r[d.transformed] = ""
				r[d.status] = StatusFailed.Cell()
			} else {
				r[d.status] = StatusDone.Cell()
			}
		}
		d.rows[i] = r
	}

	return d, nil
}

func (d *Dataset) ensureColumn(name string) int {
	if i := slices.Index(d.header, name); i >= 0 {
		return i
	}
	d.header = append(d.header, name)
	return len(d.header) - 1
}

// Schema returns the dataset's resolved schema.
func (d *Dataset) Schema() Schema {
	return d.schema
}

// Header returns a copy of the column names in order.
func (d *Dataset) Header() []string {
	return slices.Clone(d.header)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Row returns a copy of the cells of row i.
func (d *Dataset) Row(i int) []string {
	return slices.Clone(d.rows[i])
}

// Record returns the record view of row i.
func (d *Dataset) Record(i int) Record {
	row := d.rows[i]
	status, _ := ParseTransformStatus(row[d.status])
	rec := Record{
		ID:          i,
		URL:         row[d.url],
		Content:     row[d.content],
		Transformed: row[d.transformed],
		Status:      status,
	}
	if d.title >= 0 {
		rec.Title = row[d.title]
	}
	return rec
}

// Pending returns, in row order, the records with an incomplete stage.
func (d *Dataset) Pending(transform bool) []Record {
	var recs []Record
	for i := range d.rows {
		rec := d.Record(i)
		if rec.NeedsWork(transform) {
			recs = append(recs, rec)
		}
	}
	return recs
}

// Apply writes the content, transformed and status fields of recs back into
// their rows. Every record is validated before any row is modified.
// Returns EINVALID for unknown IDs, URL mismatches or invalid records.
func (d *Dataset) Apply(recs ...Record) error {
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return err
		}
		if rec.ID >= len(d.rows) {
			return Errorf(EINVALID, "record %d out of range (%d rows)", rec.ID, len(d.rows))
		}
		if got := d.rows[rec.ID][d.url]; got != rec.URL {
			return Errorf(EINVALID, "record %d: URL %q does not match row URL %q", rec.ID, rec.URL, got)
		}
	}

	for _, rec := range recs {
		row := d.rows[rec.ID]
		next := [3]string{rec.Content, rec.Transformed, rec.Status.Cell()}
		if row[d.content] == next[0] && row[d.transformed] == next[1] && row[d.status] == next[2] {
			continue
		}
		row[d.content], row[d.transformed], row[d.status] = next[0], next[1], next[2]
		d.changed[rec.ID] = struct{}{}
	}
	return nil
}

// Changed returns the sorted IDs of rows modified by Apply since the last
// call to ResetChanged.
func (d *Dataset) Changed() []int {
	ids := make([]int, 0, len(d.changed))
	for id := range d.changed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ResetChanged clears the set of changed rows.
func (d *Dataset) ResetChanged() {
	clear(d.changed)
}

// Stats summarizes dataset progress.
type Stats struct {
	Total       int
	WithContent int
	Done        int
	Failed      int
	Pending     int // rows that still need work
}

// Stats computes progress counts. Pending honors the transform setting the
// same way as Pending.
func (d *Dataset) Stats(transform bool) Stats {
	s := Stats{Total: len(d.rows)}
	for i := range d.rows {
		rec := d.Record(i)
		if rec.HasContent() {
			s.WithContent++
		}
		switch rec.Status {
		case StatusDone:
			s.Done++
		case StatusFailed:
			s.Failed++
		}
		if rec.NeedsWork(transform) {
			s.Pending++
		}
	}
	return s
}

// DatasetStore loads and persists datasets.
type DatasetStore interface {
	// Load returns the most recent persisted snapshot, falling back to the
	// original input table when no snapshot exists.
	// Returns ENOTFOUND if neither exists.
	Load(ctx context.Context) (*Dataset, error)

	// Persist writes the full current table. A reader never observes a
	// partially written snapshot.
	Persist(ctx context.Context, ds *Dataset) error
}
