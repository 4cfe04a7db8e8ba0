// Package pipeline composes fetching, rewriting, critique, the operator
// checkpoint, and variant storage into the chapter publication workflow.
// The current chapter text is an accumulator threaded through the loop;
// no stage calls back upstream.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bookforge/bookforge/engine/domain"
	"github.com/bookforge/bookforge/engine/fetch"
	"github.com/bookforge/bookforge/engine/semantic"
)

// Fetcher retrieves the original chapter text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Page, error)
}

// Rewriter produces AI rewrites and advisory critiques.
type Rewriter interface {
	Spin(ctx context.Context, source string, iteration int) (string, error)
	Critique(ctx context.Context, text string) (string, error)
}

// Checkpoint collects the operator decision for a generated chapter.
type Checkpoint interface {
	Review(ctx context.Context, text, baseID string) (string, error)
}

// VariantStore persists variants and answers similarity queries.
type VariantStore interface {
	Upsert(ctx context.Context, id, content string, tag domain.VersionTag) error
	Query(ctx context.Context, text string, topK int) ([]semantic.SearchResult, error)
}

// Config fixes the run parameters at construction time.
type Config struct {
	TargetURL  string
	BaseID     string
	Iterations int
	DemoQuery  string
	TopK       int
}

// DefaultConfig mirrors the canonical demonstration run.
func DefaultConfig() Config {
	return Config{
		TargetURL:  "https://en.wikisource.org/wiki/The_Gates_Of_Morning/Book_1/Chapter_1",
		BaseID:     "gates_of_morning_ch1",
		Iterations: 2,
		DemoQuery:  "What happens to the protagonist in the beginning?",
		TopK:       3,
	}
}

// Pipeline owns the run. Every collaborator is injected.
type Pipeline struct {
	cfg        Config
	fetcher    Fetcher
	rewriter   Rewriter
	checkpoint Checkpoint
	store      VariantStore
	out        io.Writer
	logger     *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config, fetcher Fetcher, rewriter Rewriter, checkpoint Checkpoint, store VariantStore, out io.Writer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		fetcher:    fetcher,
		rewriter:   rewriter,
		checkpoint: checkpoint,
		store:      store,
		out:        out,
		logger:     logger,
	}
}

// Run executes one full pipeline pass. A fetch that yields nothing fails
// the run; every later failure degrades: a spin failure or a rejection
// breaks the loop, store and critique failures are logged and skipped.
// The demonstration query always runs over whatever was produced.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline starting", "url", p.cfg.TargetURL, "iterations", p.cfg.Iterations)

	page, err := p.fetcher.Fetch(ctx, p.cfg.TargetURL)
	if err != nil {
		return fmt.Errorf("pipeline: fetch original: %w", err)
	}
	if strings.TrimSpace(page.Text) == "" {
		return fmt.Errorf("pipeline: no text extracted from %s", p.cfg.TargetURL)
	}
	logger.Info("original fetched", "chars", len(page.Text), "screenshot", page.Screenshot)

	p.upsert(ctx, logger, domain.OriginalID(p.cfg.BaseID), page.Text, domain.TagOriginal)

	current := page.Text
	for i := 1; i <= p.cfg.Iterations; i++ {
		logger.Info("iteration starting", "iteration", i)

		spun, err := p.rewriter.Spin(ctx, current, i)
		if err != nil {
			logger.Error("spin failed, ending iteration loop", "iteration", i, "err", err)
			break
		}

		p.upsert(ctx, logger, domain.SpunID(p.cfg.BaseID, i), spun, domain.SpunTag(i))

		if critique, err := p.rewriter.Critique(ctx, spun); err != nil {
			logger.Warn("critique failed, continuing without feedback", "iteration", i, "err", err)
		} else {
			fmt.Fprintf(p.out, "\n--- AI Reviewer Feedback ---\n%s\n----------------------------\n", critique)
		}

		decided, err := p.checkpoint.Review(ctx, spun, domain.CheckpointBaseID(p.cfg.BaseID, i))
		if err != nil {
			if errors.Is(err, domain.ErrRejected) {
				logger.Warn("chapter rejected, ending iteration loop", "iteration", i)
			} else {
				logger.Error("checkpoint failed, ending iteration loop", "iteration", i, "err", err)
			}
			break
		}
		current = decided
	}

	p.demoQuery(ctx, logger)
	logger.Info("pipeline complete")
	return nil
}

func (p *Pipeline) upsert(ctx context.Context, logger *slog.Logger, id, content string, tag domain.VersionTag) {
	if err := p.store.Upsert(ctx, id, content, tag); err != nil {
		logger.Error("variant write failed", "id", id, "err", err)
	}
}

// demoQuery runs the similarity demonstration and prints ranked results.
// Store failures yield a "no results" report, never an aborted run.
func (p *Pipeline) demoQuery(ctx context.Context, logger *slog.Logger) {
	fmt.Fprintf(p.out, "\n--- Semantic Search Demonstration ---\n")

	results, err := p.store.Query(ctx, p.cfg.DemoQuery, p.cfg.TopK)
	if err != nil {
		logger.Error("demonstration query failed", "err", err)
	}
	if len(results) == 0 {
		fmt.Fprintf(p.out, "No results found for %q.\n", p.cfg.DemoQuery)
		return
	}

	fmt.Fprintf(p.out, "Results for %q:\n", p.cfg.DemoQuery)
	for i, r := range results {
		fmt.Fprintf(p.out, "  %d. %s (%s, distance %.2f)\n     %s\n", i+1, r.VariantID, r.VersionTag, r.Distance, r.Snippet)
	}
}
