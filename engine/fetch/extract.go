package fetch

import (
	"context"
	"fmt"
	"strings"
)

// evalFunc evaluates a JS expression in the page and decodes the result.
// Factored out so selector fallback logic is testable without a browser.
type evalFunc func(ctx context.Context, js string, out *[]string) error

// extractParagraphs collects paragraph texts for the primary selector,
// falling back to the generic selector when it matches nothing, and joins
// them with newlines in document order.
func extractParagraphs(ctx context.Context, eval evalFunc) (string, error) {
	paras, err := queryAll(ctx, eval, PrimarySelector)
	if err != nil {
		return "", err
	}
	if len(paras) == 0 {
		paras, err = queryAll(ctx, eval, FallbackSelector)
		if err != nil {
			return "", err
		}
	}
	return strings.Join(paras, "\n"), nil
}

func queryAll(ctx context.Context, eval evalFunc, selector string) ([]string, error) {
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => el.innerText)`, selector)
	var out []string
	if err := eval(ctx, js, &out); err != nil {
		return nil, fmt.Errorf("selector %q: %w", selector, err)
	}
	return out, nil
}
