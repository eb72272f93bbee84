package pipeline

import (
	"fmt"
	"strings"
)

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// String renders the summary as a single report line. Zero counters other
// than processed are omitted.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "processed %d/%d in %d batches", s.Processed, s.Pending, s.Batches)
	for _, c := range []struct {
		label string
		n     int
	}{
		{"fetched", s.Fetched},
		{"cached", s.Cached},
		{"extracted", s.Extracted},
		{"extraction empty", s.ExtractionEmpty},
		{"no content", s.NoContent},
		{"transformed", s.Transformed},
		{"transform failed", s.TransformFailed},
		{"canceled", s.Canceled},
	} {
		if c.n > 0 {
			fmt.Fprintf(&b, ", %s %d", c.label, c.n)
		}
	}
	if s.Interrupted {
		b.WriteString(" (interrupted)")
	}
	return b.String()
}
