// Package spin wraps the generative rewrite and critique calls. Each call
// is single-shot: one prompt in, one full text out, no retry and no
// streaming.
package spin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bookforge/bookforge/engine/domain"
)

// Generator abstracts the generative-text service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const spinPrompt = `You are an AI Writer. Rewrite the following chapter text, focusing on creating a more engaging narrative style. Keep the core information but rephrase and expand where appropriate. This is iteration %d. Only provide the rewritten text.

Original Chapter:
%s`

const critiquePrompt = `You are an AI Reviewer. Analyze the following chapter text for clarity, coherence, grammar, and engagement. Provide constructive feedback to improve it. Start with a summary of its strengths and then list specific areas for improvement. Focus on the content itself, not just grammar.

Chapter to Review:
%s`

// Options configures call pacing and deadlines.
type Options struct {
	Timeout   time.Duration
	RateEvery time.Duration
	RateBurst int
}

// DefaultOptions paces calls for free-tier generative quotas.
func DefaultOptions() Options {
	return Options{
		Timeout:   2 * time.Minute,
		RateEvery: time.Second,
		RateBurst: 2,
	}
}

// Service drives rewrite and critique calls against an injected Generator.
type Service struct {
	gen     Generator
	limiter *rate.Limiter
	opts    Options
	logger  *slog.Logger
}

// New creates a Service.
func New(gen Generator, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gen:     gen,
		limiter: rate.NewLimiter(rate.Every(opts.RateEvery), opts.RateBurst),
		opts:    opts,
		logger:  logger,
	}
}

// Spin rewrites source through the generative service. Blank input
// short-circuits with domain.ErrEmptyText; the iteration number is given
// to the model for its own context only.
func (s *Service) Spin(ctx context.Context, source string, iteration int) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", domain.ErrEmptyText
	}

	s.logger.Info("spinning chapter", "iteration", iteration, "source_chars", len(source))
	out, err := s.generate(ctx, fmt.Sprintf(spinPrompt, iteration, source))
	if err != nil {
		return "", fmt.Errorf("spin: iteration %d: %w", iteration, err)
	}
	s.logger.Info("spin complete", "iteration", iteration, "chars", len(out))
	return out, nil
}

// Critique produces free-form review feedback for text. The output is
// advisory only: displayed to the operator, never fed back into the loop.
func (s *Service) Critique(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyText
	}

	s.logger.Info("requesting critique", "chars", len(text))
	out, err := s.generate(ctx, fmt.Sprintf(critiquePrompt, text))
	if err != nil {
		return "", fmt.Errorf("spin: critique: %w", err)
	}
	return out, nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.gen.Generate(ctx, prompt)
}
