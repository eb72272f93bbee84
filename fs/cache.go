package fs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/corpus"
	"github.com/fwojciec/corpus/bloom"
)

// cacheExt is the file extension of cache entries.
const cacheExt = ".html"

// CacheKey returns the cache file name for url: the hex SHA-256 of the URL
// followed by ".html".
func CacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:]) + cacheExt
}

// Ensure Cache implements corpus.Cache at compile time.
var _ corpus.Cache = (*Cache)(nil)

// Cache implements corpus.Cache as a flat directory with one file per URL.
// Concurrent writers need no locking: each URL owns a unique path and
// entries are replaced atomically.
type Cache struct {
	dir   string
	index *bloom.Index
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithIndex keeps a Bloom filter of the cache keys in memory, sized for n
// entries at the given false positive rate. Lookups for keys the filter has
// never seen skip the filesystem.
func WithIndex(n uint, fpRate float64) CacheOption {
	return func(c *Cache) {
		c.index = bloom.NewIndex(n, fpRate)
	}
}

// NewCache creates a Cache rooted at dir. The directory is created on the
// first Store. With WithIndex, existing entries are scanned into the index.
func NewCache(dir string, opts ...CacheOption) (*Cache, error) {
	c := &Cache{dir: dir}
	for _, opt := range opts {
		opt(c)
	}

	if c.index != nil {
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), cacheExt) {
				c.index.Add(e.Name())
			}
		}
	}

	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file path of the entry for url.
func (c *Cache) Path(url string) string {
	return filepath.Join(c.dir, CacheKey(url))
}

// Load returns the cached payload for url.
func (c *Cache) Load(url string) ([]byte, error) {
	if c.index != nil && !c.index.MayContain(CacheKey(url)) {
		return nil, corpus.Errorf(corpus.ENOTFOUND, "cache entry for %q not found", url)
	}

	data, err := os.ReadFile(c.Path(url))
	if errors.Is(err, os.ErrNotExist) {
		return nil, corpus.Errorf(corpus.ENOTFOUND, "cache entry for %q not found", url)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Store writes the payload for url.
func (c *Cache) Store(url string, data []byte) error {
	err := WriteFileAtomic(c.Path(url), func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
	if err != nil {
		return err
	}

	if c.index != nil {
		c.index.Add(CacheKey(url))
	}
	return nil
}
