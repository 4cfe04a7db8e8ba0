// Package fetch wraps a headless-browser session: navigate to a URL, wait
// for network activity to settle, capture a full-page screenshot, and
// extract the chapter's paragraph text.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	// PrimarySelector targets the article body on MediaWiki-style pages.
	PrimarySelector = "div.mw-parser-output p"
	// FallbackSelector is used when the primary selector matches nothing.
	FallbackSelector = "body p"

	screenshotFile = "scraped_page.png"
	quietWindow    = 500 * time.Millisecond
)

// Page is the result of a successful fetch.
type Page struct {
	Text       string
	Screenshot string
}

// Fetcher drives one isolated browser session per Fetch call.
type Fetcher struct {
	outputDir string
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Fetcher writing screenshots under outputDir. The timeout
// bounds the whole navigate-settle-capture-extract sequence.
func New(outputDir string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{outputDir: outputDir, timeout: timeout, logger: logger}
}

// Fetch navigates to url and returns the extracted paragraph text along
// with the screenshot path. The browser session is released on every exit
// path; any navigation, screenshot, or extraction failure is fatal to the
// fetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if err := resetDir(f.outputDir); err != nil {
		return Page{}, fmt.Errorf("fetch: prepare %s: %w", f.outputDir, err)
	}

	actx, acancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer acancel()
	bctx, bcancel := chromedp.NewContext(actx)
	defer bcancel()
	bctx, tcancel := context.WithTimeout(bctx, f.timeout)
	defer tcancel()

	f.logger.Info("navigating", "url", url)

	var shot []byte
	err := chromedp.Run(bctx,
		network.Enable(),
		navigateSettled(url, quietWindow),
		chromedp.FullScreenshot(&shot, 90),
	)
	if err != nil {
		return Page{}, fmt.Errorf("fetch: navigate %s: %w", url, err)
	}

	path := filepath.Join(f.outputDir, screenshotFile)
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		return Page{}, fmt.Errorf("fetch: write screenshot: %w", err)
	}
	f.logger.Info("screenshot saved", "path", path)

	text, err := extractParagraphs(bctx, func(ctx context.Context, js string, out *[]string) error {
		return chromedp.Run(ctx, chromedp.Evaluate(js, out))
	})
	if err != nil {
		return Page{}, fmt.Errorf("fetch: extract text: %w", err)
	}
	f.logger.Info("text extracted", "chars", len(text))

	return Page{Text: text, Screenshot: path}, nil
}

// navigateSettled navigates and then waits until no network request has
// been in flight for the quiet window. The surrounding context deadline
// bounds pages that never go idle.
func navigateSettled(url string, quiet time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var mu sync.Mutex
		inflight := make(map[network.RequestID]struct{})
		last := time.Now()

		chromedp.ListenTarget(ctx, func(ev any) {
			mu.Lock()
			defer mu.Unlock()
			switch e := ev.(type) {
			case *network.EventRequestWillBeSent:
				inflight[e.RequestID] = struct{}{}
				last = time.Now()
			case *network.EventLoadingFinished:
				delete(inflight, e.RequestID)
				last = time.Now()
			case *network.EventLoadingFailed:
				delete(inflight, e.RequestID)
				last = time.Now()
			}
		})

		if err := chromedp.Navigate(url).Do(ctx); err != nil {
			return err
		}

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				mu.Lock()
				idle := len(inflight) == 0 && time.Since(last) >= quiet
				mu.Unlock()
				if idle {
					return nil
				}
			}
		}
	})
}

// resetDir guarantees a clean artifact location: a file squatting on the
// path is removed, and the directory is created if absent.
func resetDir(path string) error {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return os.MkdirAll(path, 0o755)
}
