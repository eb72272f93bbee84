package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/corpus"
)

// Ensure LoggingTransformer implements corpus.Transformer.
var _ corpus.Transformer = (*LoggingTransformer)(nil)

// LoggingTransformer wraps a Transformer with logging.
type LoggingTransformer struct {
	next   corpus.Transformer
	logger *slog.Logger
}

// NewLoggingTransformer creates a new LoggingTransformer.
func NewLoggingTransformer(next corpus.Transformer, logger *slog.Logger) *LoggingTransformer {
	return &LoggingTransformer{next: next, logger: logger}
}

// Transform delegates to the wrapped transformer and logs the operation.
func (t *LoggingTransformer) Transform(ctx context.Context, req corpus.TransformRequest) (out string, err error) {
	defer func(begin time.Time) {
		t.logger.Info("transform",
			"title", req.Title,
			"in", len(req.Text),
			"out", len(out),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return t.next.Transform(ctx, req)
}
