package main

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/corpus"
	"github.com/fwojciec/corpus/pipeline"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	// Checkpoint is the store runs resume from.
	Checkpoint corpus.DatasetStore
	Runner     *pipeline.Runner

	// StatusCounter is set when the checkpoint store can count rows by
	// status without loading the table.
	StatusCounter StatusCounter
}

// StatusCounter counts persisted rows by transform status.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[corpus.TransformStatus]int, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Run    RunCmd    `cmd:"" help:"Fetch, extract and optionally translate every pending row"`
	Status StatusCmd `cmd:"" help:"Show dataset progress"`
	Key    KeyCmd    `cmd:"" help:"Print the cache file path for a URL"`
}

// DatasetFlags select the dataset files and columns. Shared by run and
// status.
type DatasetFlags struct {
	Input      string `short:"i" required:"" help:"Input CSV with a header row and a URL column"`
	Output     string `short:"o" help:"Final output CSV (default: <input>_processed.csv)"`
	Checkpoint string `help:"Checkpoint CSV written after every batch (default: output)"`
	Store      string `default:"csv" enum:"csv,sqlite" help:"Checkpoint store (${enum})"`
	DB         string `name:"db" default:"corpus.db" help:"SQLite database path for --store=sqlite"`

	URLColumn         string `default:"URL" help:"URL column name"`
	TitleColumn       string `help:"Optional title column name"`
	ContentColumn     string `default:"content" help:"Extracted content column name"`
	TransformedColumn string `default:"transformed_content" help:"Transformed content column name"`
	StatusColumn      string `default:"transform_status" help:"Transform status column name"`
}

// Schema returns the configured column names.
func (f *DatasetFlags) Schema() corpus.Schema {
	return corpus.Schema{
		URLColumn:         f.URLColumn,
		TitleColumn:       f.TitleColumn,
		ContentColumn:     f.ContentColumn,
		TransformedColumn: f.TransformedColumn,
		StatusColumn:      f.StatusColumn,
	}
}

// OutputPath returns the final output path.
func (f *DatasetFlags) OutputPath() string {
	if f.Output != "" {
		return f.Output
	}
	return strings.TrimSuffix(f.Input, filepath.Ext(f.Input)) + "_processed.csv"
}

// CheckpointPath returns the checkpoint path.
func (f *DatasetFlags) CheckpointPath() string {
	if f.Checkpoint != "" {
		return f.Checkpoint
	}
	return f.OutputPath()
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	DatasetFlags `embed:""`

	CacheDir     string            `default:"cache_html" help:"Directory of cached HTML pages"`
	IndexSize    uint              `default:"100000" help:"Expected cache entries for the in-memory index (0 disables it)"`
	BatchSize    int               `short:"b" default:"50" help:"Rows per checkpoint"`
	Workers      int               `short:"w" default:"16" help:"Rows processed in parallel"`
	Retries      int               `default:"3" help:"Retries after the first attempt"`
	Timeout      time.Duration     `default:"15s" help:"Per-request timeout"`
	InitialDelay time.Duration     `default:"2s" help:"First wait after HTTP 429, doubled each time"`
	Grace        time.Duration     `default:"10s" help:"How long in-flight rows may finish after an interrupt"`
	RPS          float64           `name:"rps" default:"0" help:"Requests per second per host (0 = unlimited)"`
	UserAgent    string            `help:"User-Agent header"`
	Header       map[string]string `help:"Extra request header as KEY=VALUE (repeatable)"`
	Charset      string            `help:"Characters kept by normalization, as a regexp class body (default: letters, digits, whitespace, basic punctuation)"`

	Extractor string `short:"e" default:"trafilatura" enum:"trafilatura,readability,goquery" help:"Text extractor (${enum})"`
	Selector  string `help:"CSS selector of text blocks for --extractor=goquery"`

	Transform  string `short:"t" default:"none" enum:"none,gemini" help:"Text transform (${enum})"`
	Language   string `short:"l" help:"Target language for --transform=gemini"`
	Model      string `help:"Gemini model (default: ${default_model})"`
	TokenLimit int    `help:"Skip prompts above this many tokens (0 = no limit)"`

	Debug bool `help:"Log every fetch, transform and store operation"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct {
	DatasetFlags `embed:""`
}

// KeyCmd is the "key" subcommand.
type KeyCmd struct {
	URL      string `arg:"" help:"Source URL"`
	CacheDir string `default:"cache_html" help:"Directory of cached HTML pages"`
}
