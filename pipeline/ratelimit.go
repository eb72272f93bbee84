package pipeline

import (
	"context"
	"sync"

	"github.com/fwojciec/corpus"
	"golang.org/x/time/rate"
)

var _ corpus.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter throttles fetches per host with one token bucket per host.
// Workers fetching from different hosts never wait on each other.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// to each host with a burst of 1. A non-positive rps disables throttling.
func NewDomainLimiter(rps float64) *DomainLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    1,
	}
}

// Wait blocks until a request to domain is allowed.
// Returns the context error if ctx ends first.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(d.limit, d.burst)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
