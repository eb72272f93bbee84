package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/corpus"
	"golang.org/x/sync/errgroup"
)

// Runner defaults.
const (
	DefaultBatchSize   = 50
	DefaultParallelism = 16
	DefaultGracePeriod = 10 * time.Second
)

// Runner drives a Processor over the pending records of a dataset in
// sequential batches, persisting a checkpoint after every batch.
type Runner struct {
	Processor  *Processor
	Checkpoint corpus.DatasetStore
	// Output receives the final table after a run that was not interrupted.
	// Optional.
	Output corpus.DatasetStore

	BatchSize   int
	Parallelism int
	// GracePeriod bounds how long in-flight records may keep running after
	// ctx ends. Records still running then are canceled.
	GracePeriod time.Duration

	Progress ProgressFunc
}

// Summary counts what happened during a run.
type Summary struct {
	Pending         int // records needing work at start
	Batches         int // batches completed and persisted
	Processed       int
	Fetched         int
	Cached          int
	Extracted       int
	ExtractionEmpty int
	NoContent       int
	Transformed     int
	TransformFailed int
	Canceled        int
	Interrupted     bool
}

func (s *Summary) add(res Result) {
	s.Processed++
	switch res.Source {
	case corpus.SourceNetwork:
		s.Fetched++
	case corpus.SourceCache:
		s.Cached++
	}
	if res.Source != corpus.SourceDataset && res.Record.HasContent() {
		s.Extracted++
	}
	switch res.Outcome {
	case corpus.OutcomeSkipExtractionEmpty:
		s.ExtractionEmpty++
	case corpus.OutcomeSkipNoContent:
		s.NoContent++
	case corpus.OutcomeTransformed:
		s.Transformed++
	case corpus.OutcomeTransformFailed:
		s.TransformFailed++
	case corpus.OutcomeCanceled:
		s.Canceled++
	}
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressRecord
	ProgressBatch
	ProgressFinished
)

// ProgressEvent reports progress during a run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int // records processed so far
	Total     int // records pending at start
	Batch     int // 1-based batch number
	Batches   int
	Result    Result // set for ProgressRecord
	Summary   Summary
}

// ProgressFunc is a callback for reporting run progress. Calls are
// serialized.
type ProgressFunc func(event ProgressEvent)

// Run processes every pending record of ds. Records are merged back into ds
// by ID, so row order never changes.
//
// When ctx ends, no further records or batches start; the batch in flight
// is merged and checkpointed, Summary.Interrupted is set, the final Output
// is not written and Run returns without error. A failed checkpoint or
// output write is returned as an error.
func (r *Runner) Run(ctx context.Context, ds *corpus.Dataset) (*Summary, error) {
	if r.Processor == nil || r.Checkpoint == nil {
		return nil, corpus.Errorf(corpus.EINVALID, "runner requires a processor and a checkpoint store")
	}
	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	parallelism := r.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	grace := r.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	// In-flight records run on workCtx, which outlives ctx by the grace
	// period. Persistence uses persistCtx so an interrupt can still save.
	persistCtx := context.WithoutCancel(ctx)
	workCtx, cancelWork := context.WithCancel(persistCtx)
	defer cancelWork()
	stop := context.AfterFunc(ctx, func() {
		time.AfterFunc(grace, cancelWork)
	})
	defer stop()

	pending := ds.Pending(r.Processor.Transforms())
	batches := (len(pending) + batchSize - 1) / batchSize
	summary := &Summary{Pending: len(pending)}

	p := &progress{fn: r.Progress, summary: summary, total: len(pending), batches: batches}
	p.emit(ProgressEvent{Type: ProgressStarted})

	for n := 0; n < batches; n++ {
		if ctx.Err() != nil {
			break
		}
		start := n * batchSize
		batch := pending[start:min(start+batchSize, len(pending))]

		recs := r.runBatch(ctx, workCtx, batch, parallelism, p)
		if err := ds.Apply(recs...); err != nil {
			return summary, fmt.Errorf("merge batch %d: %w", n+1, err)
		}
		if err := r.Checkpoint.Persist(persistCtx, ds); err != nil {
			return summary, fmt.Errorf("persist checkpoint after batch %d: %w", n+1, err)
		}
		ds.ResetChanged()

		summary.Batches++
		p.emit(ProgressEvent{Type: ProgressBatch, Batch: n + 1})
	}

	summary.Interrupted = ctx.Err() != nil
	if !summary.Interrupted && r.Output != nil {
		if err := r.Output.Persist(persistCtx, ds); err != nil {
			return summary, fmt.Errorf("persist output: %w", err)
		}
	}

	p.emit(ProgressEvent{Type: ProgressFinished})
	return summary, nil
}

// runBatch processes batch with bounded parallelism and returns the
// updated records of every record that was started, in batch order.
func (r *Runner) runBatch(ctx, workCtx context.Context, batch []corpus.Record, parallelism int, p *progress) []corpus.Record {
	results := make([]Result, len(batch))
	started := make([]bool, len(batch))

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, rec := range batch {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The slot may have freed up after an interrupt.
			if ctx.Err() != nil {
				return nil
			}
			started[i] = true
			results[i] = r.Processor.Process(workCtx, rec)
			p.record(results[i])
			return nil
		})
	}
	_ = g.Wait()

	recs := make([]corpus.Record, 0, len(batch))
	for i, res := range results {
		if started[i] {
			recs = append(recs, res.Record)
		}
	}
	return recs
}

// progress serializes summary updates and progress callbacks.
type progress struct {
	mu      sync.Mutex
	fn      ProgressFunc
	summary *Summary
	total   int
	batches int
}

func (p *progress) record(res Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary.add(res)
	p.send(ProgressEvent{Type: ProgressRecord, Result: res})
}

func (p *progress) emit(event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send(event)
}

func (p *progress) send(event ProgressEvent) {
	if p.fn == nil {
		return
	}
	event.Completed = p.summary.Processed
	event.Total = p.total
	event.Batches = p.batches
	event.Summary = *p.summary
	p.fn(event)
}
