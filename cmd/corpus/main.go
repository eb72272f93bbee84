package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/corpus"
	"github.com/fwojciec/corpus/csv"
	"github.com/fwojciec/corpus/fs"
	"github.com/fwojciec/corpus/gemini"
	"github.com/fwojciec/corpus/goquery"
	corpushttp "github.com/fwojciec/corpus/http"
	"github.com/fwojciec/corpus/pipeline"
	"github.com/fwojciec/corpus/readability"
	corpusslog "github.com/fwojciec/corpus/slog"
	"github.com/fwojciec/corpus/sqlite"
	"github.com/fwojciec/corpus/trafilatura"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	m := NewMain()
	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Getenv reads credentials. Defaults to os.Getenv.
	Getenv func(string) string

	// SQLite database, open only for --store=sqlite.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Getenv: os.Getenv}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("corpus"),
		kong.Description("Resumable fetch, extract and translate pipeline over a CSV of URLs."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.DefaultEnvars("CORPUS"),
		kong.Vars{"default_model": gemini.DefaultModel},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'corpus --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd {
	case "run":
		if err := m.wireRun(ctx, &cli.Run, deps); err != nil {
			return err
		}
	case "status":
		if err := m.wireStores(&cli.Status.DatasetFlags, deps); err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// wireStores opens the checkpoint store selected by f.
func (m *Main) wireStores(f *DatasetFlags, deps *Dependencies) error {
	schema := f.Schema()
	input := csv.NewStore(f.Input, "", schema)

	switch f.Store {
	case "sqlite":
		m.DB = sqlite.NewDB(f.DB)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(deps.Stderr, "Hint: Use --db to choose a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", f.DB, err)
		}
		store := sqlite.NewDatasetStore(m.DB, schema, input)
		deps.Checkpoint = store
		deps.StatusCounter = store
	default:
		deps.Checkpoint = csv.NewStore(f.Input, f.CheckpointPath(), schema)
	}
	return nil
}

func (m *Main) wireRun(ctx context.Context, c *RunCmd, deps *Dependencies) error {
	if err := m.wireStores(&c.DatasetFlags, deps); err != nil {
		return err
	}
	checkpoint := deps.Checkpoint
	var output corpus.DatasetStore = csv.NewStore(c.Input, c.OutputPath(), c.Schema())

	var opts []fs.CacheOption
	if c.IndexSize > 0 {
		opts = append(opts, fs.WithIndex(c.IndexSize, 0.01))
	}
	cache, err := fs.NewCache(c.CacheDir, opts...)
	if err != nil {
		return fmt.Errorf("failed to open cache at %q: %w", c.CacheDir, err)
	}

	normalizer, err := corpus.NewNormalizer(c.Charset)
	if err != nil {
		return err
	}

	policy := corpushttp.DefaultRetryPolicy()
	policy.MaxRetries = c.Retries
	policy.InitialDelay = c.InitialDelay
	fetchOpts := []corpushttp.Option{
		corpushttp.WithTimeout(c.Timeout),
		corpushttp.WithRetryPolicy(policy),
	}
	if c.UserAgent != "" {
		fetchOpts = append(fetchOpts, corpushttp.WithUserAgent(c.UserAgent))
	}
	for k, v := range c.Header {
		fetchOpts = append(fetchOpts, corpushttp.WithHeader(k, v))
	}
	var fetcher corpus.Fetcher = corpushttp.NewFetcher(fetchOpts...)

	var extractor corpus.Extractor
	switch c.Extractor {
	case "readability":
		extractor = readability.NewExtractor()
	case "goquery":
		extractor = goquery.NewExtractor(goquery.WithSelector(c.Selector))
	default:
		extractor = trafilatura.NewExtractor()
	}

	var transformer corpus.Transformer
	if c.Transform == "gemini" {
		t, err := m.newTranslator(ctx, c, deps)
		if err != nil {
			return err
		}
		transformer = t
	}

	if c.Debug {
		logger := slog.New(slog.NewTextHandler(deps.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})).
			With("run", uuid.NewString())
		fetcher = corpusslog.NewLoggingFetcher(fetcher, logger)
		if transformer != nil {
			transformer = corpusslog.NewLoggingTransformer(transformer, logger)
		}
		checkpoint = corpusslog.NewLoggingDatasetStore(checkpoint, "checkpoint", logger)
		output = corpusslog.NewLoggingDatasetStore(output, "output", logger)
		deps.Checkpoint = checkpoint
	}

	processor := &pipeline.Processor{
		Cache:       cache,
		Fetcher:     fetcher,
		Extractor:   extractor,
		Normalizer:  normalizer,
		Transformer: transformer,
	}
	if c.RPS > 0 {
		processor.RateLimiter = pipeline.NewDomainLimiter(c.RPS)
	}

	deps.Runner = &pipeline.Runner{
		Processor:   processor,
		Checkpoint:  checkpoint,
		Output:      output,
		BatchSize:   c.BatchSize,
		Parallelism: c.Workers,
		GracePeriod: c.Grace,
	}
	return nil
}

func (m *Main) newTranslator(ctx context.Context, c *RunCmd, deps *Dependencies) (*gemini.Translator, error) {
	if c.Language == "" {
		return nil, corpus.Errorf(corpus.EINVALID, "--language is required with --transform=gemini")
	}
	apiKey := m.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(deps.Stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	opts := []gemini.Option{gemini.WithModel(c.Model)}
	if c.TokenLimit > 0 {
		model := c.Model
		if model == "" {
			model = gemini.DefaultModel
		}
		counter, err := gemini.NewLocalTokenCounter(model)
		if err != nil {
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		opts = append(opts, gemini.WithTokenLimit(counter, c.TokenLimit))
	}
	return gemini.NewTranslator(client, c.Language, opts...), nil
}
