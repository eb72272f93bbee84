package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/corpus"
	"github.com/fwojciec/corpus/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeCounter struct {
	n   int
	err error
}

func (c fakeCounter) CountTokens(context.Context, string) (int, error) {
	return c.n, c.err
}

func TestTranslator_Transform_ReturnsErrorWhenTextEmpty(t *testing.T) {
	t.Parallel()

	translator := gemini.NewTranslator(nil, "Yoruba") // nil client ok for this test

	_, err := translator.Transform(context.Background(), corpus.TransformRequest{Title: "Lagos", Text: "  "})

	require.Error(t, err)
	assert.Equal(t, corpus.EINVALID, corpus.ErrorCode(err))
	assert.Contains(t, corpus.ErrorMessage(err), "text required")
}

func TestTranslator_Transform_ReturnsErrorWhenLanguageEmpty(t *testing.T) {
	t.Parallel()

	translator := gemini.NewTranslator(nil, "")

	_, err := translator.Transform(context.Background(), corpus.TransformRequest{Text: "hello"})

	require.Error(t, err)
	assert.Equal(t, corpus.EINVALID, corpus.ErrorCode(err))
}

func TestTranslator_Transform_RejectsTextWhoseSentencesAllExceedLimit(t *testing.T) {
	t.Parallel()

	translator := gemini.NewTranslator(nil, "Ewe", gemini.WithTokenLimit(fakeCounter{n: 9000}, 8000))

	_, err := translator.Transform(context.Background(), corpus.TransformRequest{Text: "Long text. Even longer text."})

	require.Error(t, err)
	assert.Equal(t, corpus.EINVALID, corpus.ErrorCode(err))
	assert.Contains(t, corpus.ErrorMessage(err), "8000")
}

func TestTranslator_Transform_PropagatesCounterError(t *testing.T) {
	t.Parallel()

	boom := errors.New("tokenizer unavailable")
	translator := gemini.NewTranslator(nil, "Ewe", gemini.WithTokenLimit(fakeCounter{err: boom}, 8000))

	_, err := translator.Transform(context.Background(), corpus.TransformRequest{Text: "text"})

	require.ErrorIs(t, err, boom)
}

func TestTranslator_Transform_ReturnsErrorWithoutClient(t *testing.T) {
	t.Parallel()

	translator := gemini.NewTranslator(nil, "Ewe", gemini.WithTokenLimit(fakeCounter{n: 10}, 8000))

	_, err := translator.Transform(context.Background(), corpus.TransformRequest{Text: "text"})

	require.Error(t, err)
	assert.Equal(t, corpus.EINTERNAL, corpus.ErrorCode(err))
}

func TestNewTranslator_Model(t *testing.T) {
	t.Parallel()

	assert.Equal(t, gemini.DefaultModel, gemini.NewTranslator(nil, "Ewe").Model())
	assert.Equal(t, "gemini-2.0-flash", gemini.NewTranslator(nil, "Ewe", gemini.WithModel("gemini-2.0-flash")).Model())
	assert.Equal(t, gemini.DefaultModel, gemini.NewTranslator(nil, "Ewe", gemini.WithModel("")).Model())
}

func TestBuildConfig_SetsSystemInstruction(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig("Yoruba")

	require.NotNil(t, config.SystemInstruction)
	require.Len(t, config.SystemInstruction.Parts, 1)
	text := config.SystemInstruction.Parts[0].Text
	assert.Contains(t, text, "professional translator")
	assert.Contains(t, text, "complete Yoruba")
	assert.Contains(t, text, "Do not summarize")
}

func TestBuildConfig_SetsTemperature(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig("Yoruba")

	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.2, *config.Temperature, 0.001)
}

func TestBuildUserPrompt_ContainsTitleAndContent(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildUserPrompt("Lagos", "Lagos is a city.")

	assert.Equal(t, "Title: Lagos\n\nContent: Lagos is a city.", prompt)
}

func TestBuildUserPrompt_OmitsEmptyTitle(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildUserPrompt("", "Lagos is a city.")

	assert.Equal(t, "Content: Lagos is a city.", prompt)
}

func TestBuildUserPrompt_DoesNotContainSystemInstruction(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildUserPrompt("Doc", "Content")

	assert.NotContains(t, prompt, "professional translator")
}

// wordCounter counts whitespace-separated words as tokens.
type wordCounter struct{}

func (wordCounter) CountTokens(_ context.Context, text string) (int, error) {
	return len(strings.Fields(text)), nil
}

// upperServer answers generateContent with the upper-cased prompt content.
// Prompts containing FAIL get a 400 response.
func upperServer(t *testing.T) (*genai.Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Contents) == 0 || len(body.Contents[0].Parts) == 0 {
			http.Error(w, `{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`, http.StatusBadRequest)
			return
		}
		prompt := body.Contents[0].Parts[0].Text
		if strings.Contains(prompt, "FAIL") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"rejected","status":"INVALID_ARGUMENT"}}`))
			return
		}
		_, content, _ := strings.Cut(prompt, "Content: ")
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": strings.ToUpper(content)}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL},
	})
	require.NoError(t, err)
	return client, &calls
}

func TestTranslator_Transform_SendsWholeTextWithoutLimit(t *testing.T) {
	t.Parallel()

	client, calls := upperServer(t)
	translator := gemini.NewTranslator(client, "Ewe")

	out, err := translator.Transform(context.Background(), corpus.TransformRequest{Text: "One two. Three four."})

	require.NoError(t, err)
	assert.Equal(t, "ONE TWO. THREE FOUR.", out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTranslator_Transform_TranslatesChunksWithinLimit(t *testing.T) {
	t.Parallel()

	client, calls := upperServer(t)
	// "Content:" costs 1 token, leaving 5 per chunk
	translator := gemini.NewTranslator(client, "Ewe", gemini.WithTokenLimit(wordCounter{}, 6))

	out, err := translator.Transform(context.Background(), corpus.TransformRequest{
		Text: "One two three. Four five. Six seven eight nine ten eleven twelve. Thirteen.",
	})

	require.NoError(t, err)
	assert.Equal(t, "ONE TWO THREE. FOUR FIVE. THIRTEEN.", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTranslator_Transform_KeepsChunksThatSucceed(t *testing.T) {
	t.Parallel()

	client, calls := upperServer(t)
	translator := gemini.NewTranslator(client, "Ewe", gemini.WithTokenLimit(wordCounter{}, 4))

	out, err := translator.Transform(context.Background(), corpus.TransformRequest{
		Text: "One two three. Four five FAIL. Six seven.",
	})

	require.NoError(t, err)
	assert.Equal(t, "ONE TWO THREE. SIX SEVEN.", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTranslator_Transform_FailsWhenNoChunkTranslates(t *testing.T) {
	t.Parallel()

	client, _ := upperServer(t)
	translator := gemini.NewTranslator(client, "Ewe", gemini.WithTokenLimit(wordCounter{}, 4))

	_, err := translator.Transform(context.Background(), corpus.TransformRequest{
		Text: "FAIL one. FAIL two.",
	})

	require.Error(t, err)
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"terminal punctuation", "Lagos is big. It is in Nigeria! Is it? Yes", []string{"Lagos is big.", "It is in Nigeria!", "Is it?", "Yes"}},
		{"decimal point", "Pi is 3.14 roughly. Done.", []string{"Pi is 3.14 roughly.", "Done."}},
		{"closing quote", `He said "Hi." Then left.`, []string{`He said "Hi."`, "Then left."}},
		{"ellipsis and repeats", "Wait... Really?! Yes.", []string{"Wait...", "Really?!", "Yes."}},
		{"blank", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gemini.SplitSentences(tt.in))
		})
	}
}

func TestPlanChunks(t *testing.T) {
	t.Parallel()

	t.Run("packs sentences up to the limit", func(t *testing.T) {
		t.Parallel()

		chunks, skipped, err := gemini.PlanChunks(context.Background(), wordCounter{}, "", "A b. C d. E f.", 5)

		require.NoError(t, err)
		assert.Equal(t, []string{"A b. C d.", "E f."}, chunks)
		assert.Zero(t, skipped)
	})

	t.Run("title counts against every chunk", func(t *testing.T) {
		t.Parallel()

		// "Title: Lagos Content:" costs 3 tokens
		chunks, _, err := gemini.PlanChunks(context.Background(), wordCounter{}, "Lagos", "A b. C d.", 5)

		require.NoError(t, err)
		assert.Equal(t, []string{"A b.", "C d."}, chunks)
	})

	t.Run("skips sentences over the limit", func(t *testing.T) {
		t.Parallel()

		chunks, skipped, err := gemini.PlanChunks(context.Background(), wordCounter{}, "", "A b. C d e f g h. I j.", 4)

		require.NoError(t, err)
		assert.Equal(t, []string{"A b.", "I j."}, chunks)
		assert.Equal(t, 1, skipped)
	})

	t.Run("propagates counter errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("tokenizer unavailable")

		_, _, err := gemini.PlanChunks(context.Background(), fakeCounter{err: boom}, "", "A b.", 4)

		require.ErrorIs(t, err, boom)
	})
}
