// Package goquery implements a CSS-selector based corpus.Extractor.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/corpus"
)

// Defaults for NewExtractor.
const (
	DefaultSelector = "p"
	DefaultDrop     = "script, style, noscript, sup.reference, .mw-editsection, table.infobox, .navbox"
)

// DefaultRoots lists content containers tried in order; the first present
// in the document scopes the block selector.
var DefaultRoots = []string{
	"#mw-content-text",
	"article",
	"main",
	"[role=main]",
	"body",
}

// Ensure Extractor implements corpus.Extractor at compile time.
var _ corpus.Extractor = (*Extractor)(nil)

// Extractor collects the text of the elements matching a block selector
// inside the first matching content root.
type Extractor struct {
	selector string
	roots    []string
	drop     string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSelector sets the block selector whose text is collected.
// Defaults to DefaultSelector if not specified.
func WithSelector(selector string) Option {
	return func(e *Extractor) {
		if selector != "" {
			e.selector = selector
		}
	}
}

// WithRoots sets the content root candidates.
func WithRoots(roots ...string) Option {
	return func(e *Extractor) {
		e.roots = roots
	}
}

// WithDrop sets the selector of elements removed before collection.
func WithDrop(selector string) Option {
	return func(e *Extractor) {
		e.drop = selector
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		selector: DefaultSelector,
		roots:    DefaultRoots,
		drop:     DefaultDrop,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the text of every matching block, one block per line.
func (e *Extractor) Extract(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", corpus.Errorf(corpus.EINVALID, "failed to parse HTML: %v", err)
	}

	root := e.root(doc)
	if e.drop != "" {
		root.Find(e.drop).Remove()
	}

	var blocks []string
	root.Find(e.selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})

	return strings.Join(blocks, "\n"), nil
}

func (e *Extractor) root(doc *goquery.Document) *goquery.Selection {
	for _, selector := range e.roots {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Selection
}
