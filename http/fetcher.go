// Package http provides an HTTP implementation of corpus.Fetcher with
// retry and backoff for rate-limited and flaky servers.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/corpus"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultFetchTimeout is the default timeout of a single request attempt.
	DefaultFetchTimeout = 15 * time.Second

	// DefaultUserAgent identifies the fetcher to remote servers.
	DefaultUserAgent = "corpus/1.0 (+https://github.com/fwojciec/corpus)"

	// DefaultMaxBodySize is the largest response body accepted. Larger
	// bodies fail terminally rather than being cached truncated.
	DefaultMaxBodySize = 32 << 20
)

// Ensure Fetcher implements corpus.Fetcher at compile time.
var _ corpus.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages over HTTP.
//
// A 429 response is retried after an exponentially growing wait; network
// errors and timeouts are retried after a fixed wait; any other non-200
// status ends the call immediately with a terminal FetchError.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	headers   http.Header
	policy    RetryPolicy
	sleep     SleepFunc
	maxBody   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout of each request attempt.
// Defaults to DefaultFetchTimeout (15s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeader adds a static header sent with every request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		f.headers.Add(key, value)
	}
}

// WithRetryPolicy sets the retry policy.
// Defaults to DefaultRetryPolicy() if not specified.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithSleepFunc replaces the function used to wait between attempts.
func WithSleepFunc(fn SleepFunc) Option {
	return func(f *Fetcher) {
		f.sleep = fn
	}
}

// WithMaxBodySize sets the largest accepted response body in bytes.
// Defaults to DefaultMaxBodySize if not specified.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// NewFetcher creates a new HTTP Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
		headers:   make(http.Header),
		policy:    DefaultRetryPolicy(),
		sleep:     Sleep,
		maxBody:   DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// statusError is returned by a single attempt that got a non-200 response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.code)
}

// Fetch retrieves the body of url, retrying according to the policy.
// The body is returned as UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	rateLimited := f.policy.rateLimitBackOff()

	var lastErr error
	for attempt := 0; attempt <= f.policy.MaxRetries; attempt++ {
		body, err := f.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var delay time.Duration
		var se *statusError
		var fe *corpus.FetchError
		switch {
		case errors.As(err, &fe):
			return nil, fe
		case errors.As(err, &se) && se.code == http.StatusTooManyRequests:
			delay = rateLimited.NextBackOff()
		case errors.As(err, &se):
			return nil, &corpus.FetchError{URL: rawURL, Reason: corpus.FetchTerminal, StatusCode: se.code}
		case !isTransient(err):
			return nil, &corpus.FetchError{URL: rawURL, Reason: corpus.FetchTerminal, Err: err}
		default:
			delay = f.policy.TransientDelay
		}

		// Don't wait after the last attempt
		if attempt == f.policy.MaxRetries {
			break
		}
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &corpus.FetchError{URL: rawURL, Reason: corpus.FetchExhausted, Err: lastErr}
}

// isTransient reports whether a failed attempt may succeed when repeated.
// Request errors are transient only when caused by the network, a timeout
// or a connection closed mid-response; a bad scheme or certificate is not.
func isTransient(err error) bool {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return true
	}
	if ue.Timeout() {
		return true
	}
	if errors.Is(ue.Err, io.EOF) || errors.Is(ue.Err, io.ErrUnexpectedEOF) {
		return true
	}
	var ne net.Error
	return errors.As(ue.Err, &ne)
}

// get performs a single GET attempt.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &corpus.FetchError{URL: rawURL, Reason: corpus.FetchTerminal, Err: err}
	}
	for key, values := range f.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxBody {
		return nil, &corpus.FetchError{
			URL:    rawURL,
			Reason: corpus.FetchTerminal,
			Err:    fmt.Errorf("body exceeds %d bytes", f.maxBody),
		}
	}

	return toUTF8(body, resp.Header.Get("Content-Type")), nil
}

// toUTF8 decodes body to UTF-8 using the charset declared by the
// Content-Type header or the document itself. Valid UTF-8 is returned as is.
func toUTF8(body []byte, contentType string) []byte {
	if utf8.Valid(body) {
		return body
	}
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}
