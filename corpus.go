// Package corpus provides a resumable fetch, cache and transform pipeline
// for building text corpora from long lists of URLs. Pages are fetched once,
// cached on disk by URL hash, reduced to clean text, optionally translated,
// and written back to a tabular dataset after every batch.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, trafilatura/).
package corpus
