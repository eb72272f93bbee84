package mock

import "github.com/fwojciec/corpus"

var _ corpus.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of corpus.Extractor.
type Extractor struct {
	ExtractFn func(html string) (string, error)
}

func (e *Extractor) Extract(html string) (string, error) {
	return e.ExtractFn(html)
}
