// Package gemini implements corpus.Transformer with Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/corpus"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Ensure Translator implements corpus.Transformer at compile time.
var _ corpus.Transformer = (*Translator)(nil)

// TokenCounter counts the tokens of a prompt.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Translator translates record text into a target language.
type Translator struct {
	client    *genai.Client
	model     string
	language  string
	counter   TokenCounter
	maxTokens int
}

// Option configures a Translator.
type Option func(*Translator)

// WithModel sets the Gemini model.
// Defaults to DefaultModel if not specified.
func WithModel(model string) Option {
	return func(t *Translator) {
		if model != "" {
			t.model = model
		}
	}
}

// WithTokenLimit keeps every prompt within max tokens as counted by
// counter. Longer texts are translated in sentence chunks; sentences that
// alone exceed max are left untranslated.
func WithTokenLimit(counter TokenCounter, max int) Option {
	return func(t *Translator) {
		t.counter = counter
		t.maxTokens = max
	}
}

// NewTranslator creates a new Translator into language.
func NewTranslator(client *genai.Client, language string, opts ...Option) *Translator {
	t := &Translator{
		client:   client,
		model:    DefaultModel,
		language: language,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Model returns the configured model name.
func (t *Translator) Model() string {
	return t.model
}

// Transform returns the translation of req.
// With a token limit, the text is translated in chunks joined by a space,
// and the call fails only if no chunk could be translated.
// Returns EINVALID for empty text, a missing language or a text whose every
// sentence is over the limit.
func (t *Translator) Transform(ctx context.Context, req corpus.TransformRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", corpus.Errorf(corpus.EINVALID, "text required")
	}
	if t.language == "" {
		return "", corpus.Errorf(corpus.EINVALID, "target language required")
	}

	if t.counter == nil || t.maxTokens <= 0 {
		return t.generate(ctx, BuildUserPrompt(req.Title, req.Text))
	}

	chunks, skipped, err := PlanChunks(ctx, t.counter, req.Title, req.Text, t.maxTokens)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", corpus.Errorf(corpus.EINVALID, "all %d sentences exceed the %d token limit", skipped, t.maxTokens)
	}

	var parts []string
	var lastErr error
	for _, chunk := range chunks {
		out, err := t.generate(ctx, BuildUserPrompt(req.Title, chunk))
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			lastErr = err
			continue
		}
		if out != "" {
			parts = append(parts, out)
		}
	}
	if len(parts) == 0 {
		if lastErr == nil {
			lastErr = corpus.Errorf(corpus.EINTERNAL, "no chunk produced a translation")
		}
		return "", lastErr
	}
	return strings.Join(parts, " "), nil
}

// generate sends one prompt and returns the trimmed response text.
func (t *Translator) generate(ctx context.Context, prompt string) (string, error) {
	if t.client == nil {
		return "", corpus.Errorf(corpus.EINTERNAL, "gemini client not configured")
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildConfig(t.language),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", corpus.Errorf(corpus.EINTERNAL, "gemini returned nil result")
	}

	return strings.TrimSpace(result.Text()), nil
}

// BuildConfig returns the GenerateContentConfig for translation calls.
func BuildConfig(language string) *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: fmt.Sprintf("You are a professional translator. "+
					"Translate the entire input into accurate and complete %[1]s. "+
					"Do not summarize. Do not comment. "+
					"Return only the full %[1]s translation of the input.", language),
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt from an optional title and the text.
func BuildUserPrompt(title, text string) string {
	if title == "" {
		return "Content: " + text
	}
	return fmt.Sprintf("Title: %s\n\nContent: %s", title, text)
}
