package corpus

// Cache persists raw fetched payloads keyed by URL.
// Presence of an entry means the URL is never fetched again; there is no
// expiry or eviction.
type Cache interface {
	// Path returns the storage location for url. It is a pure function of
	// the URL and stable across runs and processes.
	Path(url string) string

	// Load returns the cached payload for url.
	// Returns ENOTFOUND if no entry exists.
	Load(url string) ([]byte, error)

	// Store writes the payload for url, replacing any existing entry.
	Store(url string, data []byte) error
}
