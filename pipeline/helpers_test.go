package pipeline_test

import (
	"context"
	"sync"
	"testing"

	"github.com/fwojciec/corpus"
	"github.com/fwojciec/corpus/mock"
	"github.com/stretchr/testify/require"
)

// memCache is an in-memory corpus.Cache recording stores.
type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	stores []string
}

func newMemCache(entries map[string]string) *memCache {
	c := &memCache{data: make(map[string][]byte)}
	for url, html := range entries {
		c.data[url] = []byte(html)
	}
	return c
}

func (c *memCache) Path(url string) string { return url }

func (c *memCache) Load(url string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[url]
	if !ok {
		return nil, corpus.Errorf(corpus.ENOTFOUND, "not cached")
	}
	return data, nil
}

func (c *memCache) Store(url string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[url] = data
	c.stores = append(c.stores, url)
	return nil
}

func (c *memCache) Stores() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.stores...)
}

// textExtractor treats the page body as already-extracted text.
func textExtractor() *mock.Extractor {
	return &mock.Extractor{
		ExtractFn: func(html string) (string, error) { return html, nil },
	}
}

// pagesFetcher serves fixed bodies and fails with a terminal 404 otherwise.
// It counts calls per URL.
type pagesFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newPagesFetcher(pages map[string]string) *pagesFetcher {
	return &pagesFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *pagesFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	body, ok := f.pages[url]
	if !ok {
		return nil, &corpus.FetchError{URL: url, Reason: corpus.FetchTerminal, StatusCode: 404}
	}
	return []byte(body), nil
}

func (f *pagesFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *pagesFetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func defaultNormalizer(t *testing.T) *corpus.Normalizer {
	t.Helper()
	n, err := corpus.NewNormalizer("")
	require.NoError(t, err)
	return n
}

func urlDataset(t *testing.T, urls ...string) *corpus.Dataset {
	t.Helper()
	rows := make([][]string, len(urls))
	for i, u := range urls {
		rows[i] = []string{u}
	}
	ds, err := corpus.NewDataset(corpus.DefaultSchema(), []string{"URL"}, rows)
	require.NoError(t, err)
	return ds
}
