package corpus

// Extractor reduces an HTML page to its main text content.
type Extractor interface {
	// Extract returns the main text of the page, with boilerplate
	// (navigation, footers, sidebars) removed.
	// An empty string means nothing usable was found.
	Extract(html string) (string, error)
}
