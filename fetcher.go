package corpus

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher retrieves raw page bytes from URLs.
// Implementations own the retry policy: transient failures are retried
// internally, so a returned error means no content is available for this call.
type Fetcher interface {
	// Fetch returns the body of the resource at url.
	// The context controls cancellation of the request and of any backoff wait.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchReason classifies why a fetch produced no content.
type FetchReason string

// Fetch failure reasons.
const (
	// FetchTerminal is a non-retryable failure: an HTTP status other than
	// 200 and 429, an invalid URL or an oversized body.
	FetchTerminal FetchReason = "terminal"
	// FetchExhausted means every attempt failed with a transient error.
	FetchExhausted FetchReason = "exhausted"
)

// FetchError is returned by a Fetcher when a URL yields no content.
type FetchError struct {
	URL        string
	Reason     FetchReason
	StatusCode int   // set for FetchTerminal caused by an HTTP status
	Err        error // last underlying error, if any
}

func (e *FetchError) Error() string {
	switch {
	case e.Reason == FetchTerminal && e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	case e.Reason == FetchTerminal:
		return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("retries exhausted for %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("retries exhausted for %s", e.URL)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchReason reports whether err is a FetchError with the given reason.
func IsFetchReason(err error, reason FetchReason) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Reason == reason
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
