// Package readability implements corpus.Extractor with go-readability.
package readability

import (
	"strings"

	"github.com/fwojciec/corpus"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements corpus.Extractor at compile time.
var _ corpus.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract the main text of a page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of the readable article in rawHTML.
func (e *Extractor) Extract(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(article.TextContent), nil
}
