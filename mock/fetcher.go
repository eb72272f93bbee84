package mock

import (
	"context"

	"github.com/fwojciec/corpus"
)

var _ corpus.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of corpus.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) ([]byte, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.FetchFn(ctx, url)
}

var _ corpus.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of corpus.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
