package spin

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bookforge/bookforge/engine/domain"
)

type stubGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func testOptions() Options {
	return Options{Timeout: time.Second, RateEvery: time.Microsecond, RateBurst: 10}
}

func TestSpinPromptCarriesIterationAndSource(t *testing.T) {
	gen := &stubGenerator{reply: "rewritten chapter"}
	svc := New(gen, testOptions(), nil)

	out, err := svc.Spin(context.Background(), "the original chapter text", 2)
	if err != nil {
		t.Fatalf("Spin: %v", err)
	}
	if out != "rewritten chapter" {
		t.Errorf("got %q", out)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("got %d calls, want 1", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "iteration 2") {
		t.Errorf("prompt missing iteration number: %q", prompt)
	}
	if !strings.Contains(prompt, "the original chapter text") {
		t.Errorf("prompt missing verbatim source: %q", prompt)
	}
}

func TestSpinEmptyInputShortCircuits(t *testing.T) {
	gen := &stubGenerator{reply: "should not be called"}
	svc := New(gen, testOptions(), nil)

	_, err := svc.Spin(context.Background(), "   \n\t ", 1)
	if !errors.Is(err, domain.ErrEmptyText) {
		t.Fatalf("got %v, want ErrEmptyText", err)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator called on empty input")
	}
}

func TestSpinWrapsServiceError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	svc := New(&stubGenerator{err: wantErr}, testOptions(), nil)

	_, err := svc.Spin(context.Background(), "some text", 1)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want wrapped %v", err, wantErr)
	}
	if !strings.Contains(err.Error(), "iteration 1") {
		t.Errorf("error missing iteration context: %v", err)
	}
}

func TestCritique(t *testing.T) {
	gen := &stubGenerator{reply: "strengths: pacing. improve: dialogue."}
	svc := New(gen, testOptions(), nil)

	out, err := svc.Critique(context.Background(), "chapter under review")
	if err != nil {
		t.Fatalf("Critique: %v", err)
	}
	if out != "strengths: pacing. improve: dialogue." {
		t.Errorf("got %q", out)
	}
	if !strings.Contains(gen.prompts[0], "chapter under review") {
		t.Errorf("prompt missing text: %q", gen.prompts[0])
	}
	if strings.Contains(gen.prompts[0], "Rewrite") {
		t.Errorf("critique used the rewrite prompt")
	}
}

func TestCritiqueEmptyInput(t *testing.T) {
	svc := New(&stubGenerator{}, testOptions(), nil)
	if _, err := svc.Critique(context.Background(), ""); !errors.Is(err, domain.ErrEmptyText) {
		t.Fatalf("got %v, want ErrEmptyText", err)
	}
}
