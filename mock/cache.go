package mock

import "github.com/fwojciec/corpus"

var _ corpus.Cache = (*Cache)(nil)

// Cache is a mock implementation of corpus.Cache.
type Cache struct {
	PathFn  func(url string) string
	LoadFn  func(url string) ([]byte, error)
	StoreFn func(url string, data []byte) error
}

func (c *Cache) Path(url string) string {
	return c.PathFn(url)
}

func (c *Cache) Load(url string) ([]byte, error) {
	return c.LoadFn(url)
}

func (c *Cache) Store(url string, data []byte) error {
	return c.StoreFn(url, data)
}
