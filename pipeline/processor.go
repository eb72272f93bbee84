// Package pipeline turns a dataset of URLs into extracted, normalized and
// optionally transformed text, in resumable batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fwojciec/corpus"
)

// errEmptyTransform is reported when a transformer returns blank output.
var errEmptyTransform = errors.New("transformer returned empty text")

// Processor brings a single record as far through the stages as it can.
// Transformer and RateLimiter are optional.
type Processor struct {
	Cache       corpus.Cache
	Fetcher     corpus.Fetcher
	Extractor   corpus.Extractor
	Normalizer  *corpus.Normalizer
	Transformer corpus.Transformer
	RateLimiter corpus.DomainLimiter
}

// Result is the outcome of processing one record.
type Result struct {
	// Record is the updated record. For skips and cancellations it equals
	// the input except for work completed before the stop.
	Record  corpus.Record
	Outcome corpus.Outcome
	Source  corpus.ContentSource
	// Bytes is the size of the HTML read from the cache or network.
	Bytes int
	// Err is the cause of a skip or failure. It may also be set alongside a
	// successful outcome when a cache write failed.
	Err error
}

// Transforms reports whether a transformer is configured.
func (p *Processor) Transforms() bool {
	return p.Transformer != nil
}

// Process runs the content and transform stages for rec. Errors are
// reported in the Result, never returned or panicked.
func (p *Processor) Process(ctx context.Context, rec corpus.Record) (res Result) {
	res = Result{Record: rec, Outcome: corpus.OutcomeUnchanged}

	// Outcome reported if the current stage panics.
	stage := corpus.OutcomeSkipNoContent
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
			res.Outcome = stage
			if stage == corpus.OutcomeTransformFailed {
				res.Record.Transformed = ""
				res.Record.Status = corpus.StatusFailed
			} else {
				res.Record = rec
			}
		}
	}()

	work := rec
	if work.HasContent() {
		res.Source = corpus.SourceDataset
	} else {
		html, source, err := p.load(ctx, rec.URL, &res)
		if err != nil {
			res.Err = err
			res.Outcome = corpus.OutcomeSkipNoContent
			if ctx.Err() != nil {
				res.Outcome = corpus.OutcomeCanceled
			}
			return res
		}
		res.Source = source
		res.Bytes = len(html)

		stage = corpus.OutcomeSkipExtractionEmpty
		text, err := p.Extractor.Extract(string(html))
		if err != nil {
			res.Err = err
			res.Outcome = corpus.OutcomeSkipExtractionEmpty
			return res
		}
		if p.Normalizer != nil {
			text = p.Normalizer.Normalize(text)
		}
		if text == "" {
			res.Outcome = corpus.OutcomeSkipExtractionEmpty
			return res
		}

		work.Content = text
		res.Record = work
		res.Outcome = corpus.OutcomeExtracted
	}

	if p.Transformer == nil || work.Status == corpus.StatusDone {
		return res
	}

	stage = corpus.OutcomeTransformFailed
	out, err := p.Transformer.Transform(ctx, corpus.TransformRequest{Title: work.Title, Text: work.Content})
	out = strings.TrimSpace(out)
	switch {
	case err != nil && ctx.Err() != nil:
		res.Err = err
		res.Outcome = corpus.OutcomeCanceled
	case err != nil || out == "":
		if err == nil {
			err = errEmptyTransform
		}
		work.Transformed = ""
		work.Status = corpus.StatusFailed
		res.Record = work
		res.Err = err
		res.Outcome = corpus.OutcomeTransformFailed
	default:
		work.Transformed = out
		work.Status = corpus.StatusDone
		res.Record = work
		res.Outcome = corpus.OutcomeTransformed
	}
	return res
}

// load returns the HTML for rawURL from the cache, or from the network,
// storing it in the cache before returning. A failed cache write is
// recorded in res.Err and does not fail the load.
func (p *Processor) load(ctx context.Context, rawURL string, res *Result) ([]byte, corpus.ContentSource, error) {
	if html, err := p.Cache.Load(rawURL); err == nil {
		return html, corpus.SourceCache, nil
	}

	if p.RateLimiter != nil {
		if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
			if err := p.RateLimiter.Wait(ctx, u.Host); err != nil {
				return nil, corpus.SourceNone, err
			}
		}
	}

	html, err := p.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, corpus.SourceNone, err
	}

	if err := p.Cache.Store(rawURL, html); err != nil {
		res.Err = fmt.Errorf("cache store: %w", err)
	}
	return html, corpus.SourceNetwork, nil
}
