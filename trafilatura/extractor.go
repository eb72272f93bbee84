// Package trafilatura implements corpus.Extractor with go-trafilatura.
package trafilatura

import (
	"strings"

	"github.com/fwojciec/corpus"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Extractor implements corpus.Extractor at compile time.
var _ corpus.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract the main text of a page.
type Extractor struct {
	fallback bool
}

// NewExtractor creates a new Extractor with the readability and
// dom-distiller fallbacks enabled.
func NewExtractor() *Extractor {
	return &Extractor{fallback: true}
}

// Extract returns the plain text of the main content of rawHTML.
// Pages without usable content yield an empty string.
func (e *Extractor) Extract(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil
	}

	opts := trafilatura.Options{
		EnableFallback: e.fallback,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}

	return strings.TrimSpace(result.ContentText), nil
}
