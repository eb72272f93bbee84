package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/corpus"
	main "github.com/fwojciec/corpus/cmd/corpus"
	"github.com/fwojciec/corpus/csv"
	"github.com/fwojciec/corpus/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMain() *main.Main {
	m := main.NewMain()
	m.Getenv = func(string) string { return "" }
	return m
}

// articleServer serves /a and /c as articles and 404 for everything else.
func articleServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/a":
			_, _ = fmt.Fprint(w, "<html><body><article><p>Alpha text.</p></article></body></html>")
		case "/c":
			_, _ = fmt.Fprint(w, "<html><body><article><p>Gamma text.</p></article></body></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func writeInput(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func loadCSV(t *testing.T, path string) *corpus.Dataset {
	t.Helper()
	ds, err := csv.NewStore(path, path, corpus.DefaultSchema()).Load(context.Background())
	require.NoError(t, err)
	return ds
}

func TestCmdRun(t *testing.T) {
	t.Parallel()

	t.Run("extracts pages into the output table", func(t *testing.T) {
		t.Parallel()

		server, hits := articleServer(t)
		dir := t.TempDir()
		input := writeInput(t, dir, "Title,URL", "A,"+server.URL+"/a", "B,"+server.URL+"/b", "C,"+server.URL+"/c")
		output := filepath.Join(dir, "out.csv")
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newMain().Run(context.Background(), []string{
			"run",
			"--input", input,
			"--output", output,
			"--cache-dir", filepath.Join(dir, "cache"),
			"--extractor", "goquery",
		}, stdout, stderr)

		require.NoError(t, err)
		assert.Equal(t, int32(3), hits.Load())
		assert.Contains(t, stdout.String(), "processed 3/3")
		assert.Contains(t, stderr.String(), "skip_no_content")

		ds := loadCSV(t, output)
		require.Equal(t, 3, ds.Len())
		assert.Equal(t, []string{"Title", "URL", "content", "transformed_content", "transform_status"}, ds.Header())
		assert.Equal(t, "Alpha text.", ds.Record(0).Content)
		assert.Empty(t, ds.Record(1).Content)
		assert.Equal(t, "Gamma text.", ds.Record(2).Content)

		_, err = os.Stat(filepath.Join(dir, "cache", fs.CacheKey(server.URL+"/a")))
		assert.NoError(t, err, "page is cached")

		original, err := os.ReadFile(input)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(original), "Title,URL\n"), "input is not modified")
	})

	t.Run("second run only retries rows without content", func(t *testing.T) {
		t.Parallel()

		server, hits := articleServer(t)
		dir := t.TempDir()
		input := writeInput(t, dir, "URL", server.URL+"/a", server.URL+"/b")
		args := []string{
			"run",
			"--input", input,
			"--cache-dir", filepath.Join(dir, "cache"),
			"--extractor", "goquery",
		}

		require.NoError(t, newMain().Run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}))
		require.Equal(t, int32(2), hits.Load())

		stdout := &bytes.Buffer{}
		require.NoError(t, newMain().Run(context.Background(), args, stdout, &bytes.Buffer{}))

		assert.Equal(t, int32(3), hits.Load(), "only the missing page is requested again")
		assert.Contains(t, stdout.String(), "1 of 2 rows pending")
		ds := loadCSV(t, filepath.Join(dir, "input_processed.csv"))
		assert.Equal(t, "Alpha text.", ds.Record(0).Content)
	})

	t.Run("sqlite checkpoint store", func(t *testing.T) {
		t.Parallel()

		server, _ := articleServer(t)
		dir := t.TempDir()
		input := writeInput(t, dir, "URL", server.URL+"/a", server.URL+"/c")
		output := filepath.Join(dir, "out.csv")

		err := newMain().Run(context.Background(), []string{
			"run",
			"--input", input,
			"--output", output,
			"--store", "sqlite",
			"--db", filepath.Join(dir, "corpus.db"),
			"--cache-dir", filepath.Join(dir, "cache"),
			"--extractor", "goquery",
		}, &bytes.Buffer{}, &bytes.Buffer{})

		require.NoError(t, err)
		ds := loadCSV(t, output)
		assert.Equal(t, "Alpha text.", ds.Record(0).Content)
		assert.Equal(t, "Gamma text.", ds.Record(1).Content)

		stdout := &bytes.Buffer{}
		err = newMain().Run(context.Background(), []string{
			"status",
			"--input", input,
			"--store", "sqlite",
			"--db", filepath.Join(dir, "corpus.db"),
		}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "with content: 2")
		assert.Contains(t, stdout.String(), "stored:       2 pending, 0 done, 0 failed")
	})

	t.Run("missing input file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		stderr := &bytes.Buffer{}

		err := newMain().Run(context.Background(), []string{
			"run",
			"--input", filepath.Join(dir, "missing.csv"),
			"--cache-dir", filepath.Join(dir, "cache"),
		}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Equal(t, corpus.ENOTFOUND, corpus.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error:")
	})

	t.Run("gemini transform requires an API key", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeInput(t, dir, "URL", "https://example.com/a")
		stderr := &bytes.Buffer{}

		err := newMain().Run(context.Background(), []string{
			"run",
			"--input", input,
			"--cache-dir", filepath.Join(dir, "cache"),
			"--transform", "gemini",
			"--language", "Yoruba",
		}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
		assert.Contains(t, stderr.String(), "GEMINI_API_KEY")
	})

	t.Run("gemini transform requires a language", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeInput(t, dir, "URL", "https://example.com/a")

		err := newMain().Run(context.Background(), []string{
			"run",
			"--input", input,
			"--cache-dir", filepath.Join(dir, "cache"),
			"--transform", "gemini",
		}, &bytes.Buffer{}, &bytes.Buffer{})

		require.Error(t, err)
		assert.Equal(t, corpus.EINVALID, corpus.ErrorCode(err))
	})
}

func TestCmdStatus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir,
		"URL,content,transformed_content,transform_status",
		"https://example.com/0,,,",
		"https://example.com/1,text,,",
		"https://example.com/2,text,texte,done",
		"https://example.com/3,text,,failed",
	)
	stdout := &bytes.Buffer{}

	err := newMain().Run(context.Background(), []string{"status", "--input", input}, stdout, &bytes.Buffer{})

	require.NoError(t, err)
	out := stdout.String()
	assert.Contains(t, out, "rows:         4")
	assert.Contains(t, out, "with content: 3")
	assert.Contains(t, out, "transformed:  1")
	assert.Contains(t, out, "failed:       1")
	assert.Contains(t, out, "pending:      3 (1 without content)")
}

func TestCmdKey(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}

	err := newMain().Run(context.Background(), []string{"key", "https://example.com", "--cache-dir", "pages"}, stdout, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("pages", fs.CacheKey("https://example.com"))+"\n", stdout.String())
}
