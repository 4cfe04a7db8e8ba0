// Command bookforge runs one full chapter publication pass: fetch the
// source page, rewrite it through the generative model with an operator
// checkpoint per iteration, persist every variant into the vector store,
// and finish with a demonstration similarity query.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/bookforge/bookforge/engine/fetch"
	"github.com/bookforge/bookforge/engine/pipeline"
	"github.com/bookforge/bookforge/engine/review"
	"github.com/bookforge/bookforge/engine/semantic"
	"github.com/bookforge/bookforge/engine/spin"
	"github.com/bookforge/bookforge/pkg/gemini"
	"github.com/bookforge/bookforge/pkg/ollama"
)

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func main() {
	defaults := pipeline.DefaultConfig()
	var (
		targetURL   = flag.String("url", defaults.TargetURL, "chapter page to fetch")
		baseID      = flag.String("base-id", defaults.BaseID, "base content identifier for variant IDs")
		iterations  = flag.Int("iterations", defaults.Iterations, "number of rewrite iterations")
		screensDir  = flag.String("screenshots", "./screenshots", "screenshot output directory")
		dbPath      = flag.String("db", "./chroma_db", "vector store path")
		collection  = flag.String("collection", "book_chapters", "vector store collection")
		ollamaURL   = flag.String("ollama", envOr("OLLAMA_URL", "http://localhost:11434"), "Ollama base URL")
		embedModel  = flag.String("embed-model", envOr("EMBED_MODEL", ollama.DefaultModel), "Ollama embedding model")
		geminiModel = flag.String("gemini-model", envOr("GEMINI_MODEL", gemini.DefaultModel), "Gemini generation model")
		demoQuery   = flag.String("query", defaults.DemoQuery, "demonstration search query")
		topK        = flag.Int("topk", defaults.TopK, "demonstration result count")
		fetchWait   = flag.Duration("fetch-timeout", 2*time.Minute, "fetch deadline")
		genWait     = flag.Duration("gen-timeout", 2*time.Minute, "per-generation-call deadline")
	)
	flag.Parse()

	// Optional; the environment itself is authoritative.
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Error("GEMINI_API_KEY not found in .env or environment variables. Please set it.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gen, err := gemini.New(ctx, apiKey, *geminiModel)
	if err != nil {
		logger.Error("gemini client failed", "err", err)
		os.Exit(1)
	}
	defer gen.Close()

	embedder := ollama.New(*ollamaURL, *embedModel)
	store, err := semantic.Open(*dbPath, *collection, embedder.Func(), logger)
	if err != nil {
		logger.Error("vector store open failed", "path", *dbPath, "err", err)
		os.Exit(1)
	}
	logger.Info("vector store ready", "path", *dbPath, "collection", *collection, "variants", store.Count())

	spinOpts := spin.DefaultOptions()
	spinOpts.Timeout = *genWait

	p := pipeline.New(
		pipeline.Config{
			TargetURL:  *targetURL,
			BaseID:     *baseID,
			Iterations: *iterations,
			DemoQuery:  *demoQuery,
			TopK:       *topK,
		},
		fetch.New(*screensDir, *fetchWait, logger),
		spin.New(gen, spinOpts, logger),
		review.New(os.Stdin, os.Stdout, store, logger),
		store,
		os.Stdout,
		logger,
	)

	if err := p.Run(ctx); err != nil {
		logger.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
	logger.Info("publication workflow complete")
}
