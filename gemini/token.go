package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ TokenCounter = (*LocalTokenCounter)(nil)

// LocalTokenCounter counts prompt tokens offline with the sentencepiece
// vocabulary of a Gemini model.
type LocalTokenCounter struct {
	model string
	tok   *tokenizer.LocalTokenizer
}

// NewLocalTokenCounter loads the vocabulary for model, or DefaultModel when
// model is empty. The vocabulary is downloaded on first use and cached.
func NewLocalTokenCounter(model string) (*LocalTokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer for %s: %w", model, err)
	}
	return &LocalTokenCounter{model: model, tok: tok}, nil
}

// Model returns the model whose vocabulary is used.
func (c *LocalTokenCounter) Model() string {
	return c.model
}

// CountTokens returns the number of tokens text occupies in a user turn.
// Blank text counts as zero.
func (c *LocalTokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	res, err := c.tok.CountTokens(genai.Text(text), nil)
	if err != nil {
		return 0, err
	}
	return int(res.TotalTokens), nil
}

// sentenceEnd holds runes that end a sentence; closers may follow them.
const (
	sentenceEnd     = ".!?…"
	sentenceClosers = ".!?…\"')]»”’"
)

// SplitSentences splits text after sentence-ending punctuation that is
// followed by whitespace or the end of the text. Punctuation inside a word,
// as in "3.14", does not split.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(sentenceEnd, runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && strings.ContainsRune(sentenceClosers, runes[end]) {
			end++
		}
		i = end - 1
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// PlanChunks groups the sentences of text, in order, into chunks whose
// prompt built with title stays within max tokens. Sentences too long to
// fit on their own are left out and counted in skipped.
func PlanChunks(ctx context.Context, counter TokenCounter, title, text string, max int) (chunks []string, skipped int, err error) {
	overhead, err := counter.CountTokens(ctx, BuildUserPrompt(title, ""))
	if err != nil {
		return nil, 0, fmt.Errorf("count tokens: %w", err)
	}

	var cur []string
	used := overhead
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, " "))
			cur, used = nil, overhead
		}
	}
	for _, s := range SplitSentences(text) {
		n, err := counter.CountTokens(ctx, s)
		if err != nil {
			return nil, 0, fmt.Errorf("count tokens: %w", err)
		}
		if overhead+n > max {
			skipped++
			continue
		}
		if used+n > max {
			flush()
		}
		cur = append(cur, s)
		used += n
	}
	flush()
	return chunks, skipped, nil
}
