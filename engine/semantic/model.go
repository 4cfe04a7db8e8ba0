package semantic

import (
	chromem "github.com/philippgille/chromem-go"

	"github.com/bookforge/bookforge/engine/domain"
)

// snippetLen bounds content previews in search results.
const snippetLen = 200

// SearchResult is a single nearest-neighbour hit. Distance is
// 1 - cosine similarity, so lower is closer.
type SearchResult struct {
	VariantID  string            `json:"variant_id"`
	VersionTag domain.VersionTag `json:"version_type"`
	Distance   float32           `json:"distance"`
	Snippet    string            `json:"snippet"`
}

// Record is a full stored variant, returned by Dump.
type Record struct {
	ID      string            `json:"id"`
	Tag     domain.VersionTag `json:"version_type"`
	Content string            `json:"content"`
}

func toSearchResults(res []chromem.Result) []SearchResult {
	out := make([]SearchResult, len(res))
	for i, r := range res {
		out[i] = SearchResult{
			VariantID:  r.ID,
			VersionTag: domain.VersionTag(r.Metadata["version_type"]),
			Distance:   1 - r.Similarity,
			Snippet:    Snippet(r.Content, snippetLen),
		}
	}
	return out
}

// Snippet truncates s to at most n runes, appending an ellipsis when cut.
func Snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
