package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/corpus"
)

// Ensure LoggingDatasetStore implements corpus.DatasetStore.
var _ corpus.DatasetStore = (*LoggingDatasetStore)(nil)

// LoggingDatasetStore wraps a DatasetStore with logging.
type LoggingDatasetStore struct {
	next   corpus.DatasetStore
	name   string
	logger *slog.Logger
}

// NewLoggingDatasetStore creates a new LoggingDatasetStore. name labels the
// store in log records, e.g. "checkpoint" or "output".
func NewLoggingDatasetStore(next corpus.DatasetStore, name string, logger *slog.Logger) *LoggingDatasetStore {
	return &LoggingDatasetStore{next: next, name: name, logger: logger}
}

// Load delegates to the wrapped store and logs the operation.
func (s *LoggingDatasetStore) Load(ctx context.Context) (ds *corpus.Dataset, err error) {
	defer func(begin time.Time) {
		rows := 0
		if ds != nil {
			rows = ds.Len()
		}
		s.logger.Info("dataset load",
			"store", s.name,
			"rows", rows,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Load(ctx)
}

// Persist delegates to the wrapped store and logs the operation.
func (s *LoggingDatasetStore) Persist(ctx context.Context, ds *corpus.Dataset) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("dataset persist",
			"store", s.name,
			"rows", ds.Len(),
			"changed", len(ds.Changed()),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Persist(ctx, ds)
}
