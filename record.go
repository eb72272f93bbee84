package corpus

// TransformStatus tracks the transform stage of a record.
type TransformStatus string

// TransformStatus values. Pending is persisted as an empty cell.
const (
	StatusPending TransformStatus = "pending"
	StatusDone    TransformStatus = "done"
	StatusFailed  TransformStatus = "failed"
)

// ParseTransformStatus parses a persisted status cell.
// An empty cell is pending. Returns EINVALID for unknown values.
func ParseTransformStatus(s string) (TransformStatus, error) {
	switch TransformStatus(s) {
	case "", StatusPending:
		return StatusPending, nil
	case StatusDone:
		return StatusDone, nil
	case StatusFailed:
		return StatusFailed, nil
	}
	return "", Errorf(EINVALID, "unknown transform status %q", s)
}

// Cell returns the persisted form of the status.
func (s TransformStatus) Cell() string {
	if s == StatusPending || s == "" {
		return ""
	}
	return string(s)
}

// Record is one row of the working dataset.
// Empty Content and Transformed mean "unset".
type Record struct {
	ID          int // row position in the dataset
	URL         string
	Title       string
	Content     string
	Transformed string
	Status      TransformStatus
}

// HasContent reports whether the content stage has completed.
func (r *Record) HasContent() bool {
	return r.Content != ""
}

// NeedsWork reports whether any required stage of the record is incomplete.
// With transform enabled, failed rows are retried; done rows never are.
func (r *Record) NeedsWork(transform bool) bool {
	if !r.HasContent() {
		return true
	}
	return transform && r.Status != StatusDone
}

// Validate returns an error if the record violates the dataset invariants.
func (r *Record) Validate() error {
	if r.ID < 0 {
		return Errorf(EINVALID, "record ID must not be negative")
	}
	if r.Transformed != "" && r.Content == "" {
		return Errorf(EINVALID, "record %d: transformed content without content", r.ID)
	}
	if r.Status == StatusDone && r.Transformed == "" {
		return Errorf(EINVALID, "record %d: done without transformed content", r.ID)
	}
	if _, err := ParseTransformStatus(string(r.Status)); err != nil {
		return err
	}
	return nil
}

// Outcome tags what happened to a record during one processing pass.
type Outcome string

// Outcome values.
const (
	OutcomeUnchanged           Outcome = "unchanged"
	OutcomeExtracted           Outcome = "extracted"
	OutcomeTransformed         Outcome = "transformed"
	OutcomeSkipNoContent       Outcome = "skip_no_content"
	OutcomeSkipExtractionEmpty Outcome = "skip_extraction_empty"
	OutcomeTransformFailed     Outcome = "transform_failed"
	OutcomeCanceled            Outcome = "canceled"
)

// ContentSource records where a processed record's content came from.
type ContentSource string

// ContentSource values.
const (
	SourceNone    ContentSource = ""
	SourceDataset ContentSource = "dataset"
	SourceCache   ContentSource = "cache"
	SourceNetwork ContentSource = "network"
)
