package corpus

import (
	"regexp"
	"strings"
)

// DefaultCharset is the default set of characters kept by a Normalizer,
// written as the body of a regular expression character class:
// letters, digits, whitespace and basic punctuation.
const DefaultCharset = `\p{L}\p{N}\s.,;:!?'"()\-`

var whitespace = regexp.MustCompile(`\s+`)

// Normalizer cleans extracted text: characters outside the allowed set are
// removed, whitespace runs collapse to a single space, and the ends are
// trimmed. Normalize is idempotent.
type Normalizer struct {
	disallowed *regexp.Regexp
}

// NewNormalizer returns a Normalizer keeping the characters described by
// charset, a regular expression character class body such as `a-zA-Z0-9\s.`.
// An empty charset selects DefaultCharset. The space character is always
// kept so that collapsed whitespace survives a second pass.
// Returns EINVALID if charset does not compile.
func NewNormalizer(charset string) (*Normalizer, error) {
	if charset == "" {
		charset = DefaultCharset
	}
	re, err := regexp.Compile(`[^` + charset + ` ]`)
	if err != nil {
		return nil, Errorf(EINVALID, "invalid charset %q: %v", charset, err)
	}
	return &Normalizer{disallowed: re}, nil
}

// Normalize returns the cleaned form of s.
func (n *Normalizer) Normalize(s string) string {
	s = n.disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
