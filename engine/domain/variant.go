// Package domain defines the textual variant model shared across the
// publication pipeline: version tags, deterministic variant IDs, and the
// validation gate applied before anything is written to the store.
package domain

import "fmt"

// VersionTag labels the pipeline stage that produced a variant.
type VersionTag string

const (
	TagOriginal    VersionTag = "original"
	TagHumanEdited VersionTag = "human_edited"
	TagFinal       VersionTag = "final"
)

// SpunTag returns the tag for an AI-rewritten variant of a given iteration.
func SpunTag(iteration int) VersionTag {
	return VersionTag(fmt.Sprintf("ai_spun_iter_%d", iteration))
}

// TextVariant is one persisted version of a chapter's text. A variant is
// immutable once written: an edit produces a new variant under a new ID.
type TextVariant struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Tag     VersionTag `json:"version_type"`
}

// The ID naming convention `{base}_{stage}[_iter_{n}]` is the only linkage
// between a variant and the chapter/iteration it belongs to.

// OriginalID returns the variant ID for the scraped source text.
func OriginalID(base string) string {
	return base + "_original"
}

// SpunID returns the variant ID for the AI rewrite of a given iteration.
func SpunID(base string, iteration int) string {
	return fmt.Sprintf("%s_ai_spun_iter_%d", base, iteration)
}

// CheckpointBaseID returns the base ID the operator checkpoint appends its
// own stage suffix (_final, _human_edited) to.
func CheckpointBaseID(base string, iteration int) string {
	return fmt.Sprintf("%s_iter_%d", base, iteration)
}
