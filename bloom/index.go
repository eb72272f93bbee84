// Package bloom provides an in-memory presence index over cache keys backed
// by a Bloom filter.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Index answers "might this key exist" without touching storage.
// A negative answer is exact; a positive answer may be wrong at the
// configured false positive rate. Safe for concurrent use.
type Index struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter
}

// NewIndex returns an Index sized for n keys at the given false positive
// rate. Adding more than n keys raises the rate but never loses keys.
func NewIndex(n uint, fpRate float64) *Index {
	return &Index{f: bloom.NewWithEstimates(max(n, 1), fpRate)}
}

// Add records keys as present.
func (x *Index) Add(keys ...string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, k := range keys {
		x.f.AddString(k)
	}
}

// MayContain reports whether key might have been added.
func (x *Index) MayContain(key string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.f.TestString(key)
}

// Len returns the approximate number of keys added.
func (x *Index) Len() uint {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return uint(x.f.ApproximatedSize())
}
