package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bookforge/bookforge/engine/domain"
	"github.com/bookforge/bookforge/engine/fetch"
	"github.com/bookforge/bookforge/engine/semantic"
)

// --- Fakes ---

type fakeFetcher struct {
	page fetch.Page
	err  error
}

func (f *fakeFetcher) Fetch(context.Context, string) (fetch.Page, error) {
	return f.page, f.err
}

type fakeRewriter struct {
	failAt      int // iteration whose Spin call fails; 0 for never
	critiqueErr error
	spins       int
}

func (r *fakeRewriter) Spin(_ context.Context, source string, iteration int) (string, error) {
	r.spins++
	if iteration == r.failAt {
		return "", errors.New("generation unavailable")
	}
	return fmt.Sprintf("spin %d of: %s", iteration, source), nil
}

func (r *fakeRewriter) Critique(context.Context, string) (string, error) {
	if r.critiqueErr != nil {
		return "", r.critiqueErr
	}
	return "looks readable", nil
}

// fakeCheckpoint accepts by default; decisions[i] overrides iteration i+1.
type fakeCheckpoint struct {
	rejectAt int // iteration whose review rejects; 0 for never
	edits    map[int]string
	calls    int
}

func (c *fakeCheckpoint) Review(_ context.Context, text, baseID string) (string, error) {
	c.calls++
	if c.calls == c.rejectAt {
		return "", domain.ErrRejected
	}
	if edit, ok := c.edits[c.calls]; ok {
		return edit, nil
	}
	return text, nil
}

type memStore struct {
	writes   []write
	queried  []string
	queryErr error
}

type write struct {
	id      string
	content string
	tag     domain.VersionTag
}

func (s *memStore) Upsert(_ context.Context, id, content string, tag domain.VersionTag) error {
	s.writes = append(s.writes, write{id, content, tag})
	return nil
}

func (s *memStore) Query(_ context.Context, text string, _ int) ([]semantic.SearchResult, error) {
	s.queried = append(s.queried, text)
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if len(s.writes) == 0 {
		return nil, nil
	}
	return []semantic.SearchResult{
		{VariantID: s.writes[0].id, VersionTag: s.writes[0].tag, Distance: 0.1, Snippet: s.writes[0].content},
	}, nil
}

func (s *memStore) ids() []string {
	ids := make([]string, len(s.writes))
	for i, w := range s.writes {
		ids[i] = w.id
	}
	return ids
}

func testConfig(iterations int) Config {
	return Config{
		TargetURL:  "https://example.org/chapter",
		BaseID:     "ch1",
		Iterations: iterations,
		DemoQuery:  "what happens first?",
		TopK:       3,
	}
}

func newTestPipeline(cfg Config, f Fetcher, r Rewriter, c Checkpoint, s VariantStore) (*Pipeline, *bytes.Buffer) {
	var out bytes.Buffer
	return New(cfg, f, r, c, s, &out, nil), &out
}

// --- Tests ---

func TestRunHappyPathTwoIterations(t *testing.T) {
	store := &memStore{}
	rewriter := &fakeRewriter{}
	p, out := newTestPipeline(testConfig(2),
		&fakeFetcher{page: fetch.Page{Text: "original chapter"}},
		rewriter, &fakeCheckpoint{}, store)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"ch1_original", "ch1_ai_spun_iter_1", "ch1_ai_spun_iter_2"}
	got := store.ids()
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("writes[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	// Iteration 2 spins the text the checkpoint returned for iteration 1.
	if !strings.Contains(store.writes[2].content, "spin 2 of: spin 1 of: original chapter") {
		t.Errorf("iteration 2 did not thread checkpoint output: %q", store.writes[2].content)
	}

	if len(store.queried) != 1 || store.queried[0] != "what happens first?" {
		t.Errorf("demo query = %v", store.queried)
	}
	if !strings.Contains(out.String(), "AI Reviewer Feedback") {
		t.Errorf("critique not displayed")
	}
	if !strings.Contains(out.String(), "ch1_original") {
		t.Errorf("demo results not printed: %s", out.String())
	}
}

func TestRunSpinFailureMidwayPreservesEarlierVariants(t *testing.T) {
	store := &memStore{}
	p, _ := newTestPipeline(testConfig(3),
		&fakeFetcher{page: fetch.Page{Text: "original chapter"}},
		&fakeRewriter{failAt: 2}, &fakeCheckpoint{}, store)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run should degrade, got: %v", err)
	}

	want := []string{"ch1_original", "ch1_ai_spun_iter_1"}
	got := store.ids()
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("writes[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if len(store.queried) != 1 {
		t.Errorf("demonstration query skipped after spin failure")
	}
}

func TestRunRejectionStopsLoop(t *testing.T) {
	store := &memStore{}
	rewriter := &fakeRewriter{}
	p, _ := newTestPipeline(testConfig(3),
		&fakeFetcher{page: fetch.Page{Text: "original chapter"}},
		rewriter, &fakeCheckpoint{rejectAt: 1}, store)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rewriter.spins != 1 {
		t.Errorf("spins = %d, want 1 (loop must stop on reject)", rewriter.spins)
	}
	if len(store.queried) != 1 {
		t.Errorf("demonstration query skipped after rejection")
	}
}

func TestRunEditedTextFeedsNextIteration(t *testing.T) {
	store := &memStore{}
	p, _ := newTestPipeline(testConfig(2),
		&fakeFetcher{page: fetch.Page{Text: "original chapter"}},
		&fakeRewriter{}, &fakeCheckpoint{edits: map[int]string{1: "operator rewrite"}}, store)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(store.writes[2].content, "spin 2 of: operator rewrite") {
		t.Errorf("edited text not threaded: %q", store.writes[2].content)
	}
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	store := &memStore{}
	p, _ := newTestPipeline(testConfig(2),
		&fakeFetcher{err: errors.New("navigation timeout")},
		&fakeRewriter{}, &fakeCheckpoint{}, store)

	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error on fetch failure")
	}
	if len(store.writes) != 0 {
		t.Errorf("variants written despite fetch failure: %v", store.ids())
	}
}

func TestRunBlankExtractionIsFatal(t *testing.T) {
	p, _ := newTestPipeline(testConfig(2),
		&fakeFetcher{page: fetch.Page{Text: "  \n "}},
		&fakeRewriter{}, &fakeCheckpoint{}, &memStore{})

	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error on blank extraction")
	}
}

func TestRunCritiqueFailureIsNonFatal(t *testing.T) {
	store := &memStore{}
	p, out := newTestPipeline(testConfig(1),
		&fakeFetcher{page: fetch.Page{Text: "original chapter"}},
		&fakeRewriter{critiqueErr: errors.New("review service down")}, &fakeCheckpoint{}, store)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(out.String(), "AI Reviewer Feedback") {
		t.Errorf("feedback block printed despite critique failure")
	}
	if got := store.ids(); len(got) != 2 {
		t.Errorf("writes = %v, want original + iter 1", got)
	}
}

func TestRunQueryFailureReportsNoResults(t *testing.T) {
	store := &memStore{queryErr: errors.New("store unavailable")}
	p, out := newTestPipeline(testConfig(1),
		&fakeFetcher{page: fetch.Page{Text: "original chapter"}},
		&fakeRewriter{}, &fakeCheckpoint{}, store)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "No results found") {
		t.Errorf("missing no-results report: %s", out.String())
	}
}
