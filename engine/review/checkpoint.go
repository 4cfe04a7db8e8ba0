// Package review implements the operator checkpoint: machine-generated
// text is presented and the operator accepts, edits, or rejects it before
// the pipeline proceeds.
package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bookforge/bookforge/engine/domain"
)

// VariantWriter is the store capability the checkpoint needs.
type VariantWriter interface {
	Upsert(ctx context.Context, id, content string, tag domain.VersionTag) error
}

// editSentinel terminates a multi-line edit session (case-insensitive).
const editSentinel = "DONE"

// Checkpoint reads operator decisions from an injected input stream, so a
// test or non-interactive harness can feed canned decisions.
type Checkpoint struct {
	in     *bufio.Scanner
	out    io.Writer
	store  VariantWriter
	logger *slog.Logger
}

// New creates a Checkpoint. in is typically os.Stdin and out os.Stdout.
func New(in io.Reader, out io.Writer, store VariantWriter, logger *slog.Logger) *Checkpoint {
	if logger == nil {
		logger = slog.Default()
	}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Checkpoint{in: sc, out: out, store: store, logger: logger}
}

// Review presents text and blocks until the operator decides. On accept
// the text is persisted under {baseID}_final and returned unchanged; on
// edit the collected replacement is persisted under {baseID}_human_edited
// and returned; on reject domain.ErrRejected is returned and nothing is
// written. Unrecognized commands re-prompt. Store failures are logged and
// do not discard the operator's decision.
func (c *Checkpoint) Review(ctx context.Context, text, baseID string) (string, error) {
	fmt.Fprintf(c.out, "\n--- Operator Review ---\nAI Generated Chapter:\n\n%s\n\n-----------------------\n", text)

	for {
		fmt.Fprint(c.out, "Enter 'accept', 'edit', or 'reject' this chapter: ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return "", fmt.Errorf("review: read decision: %w", err)
			}
			return "", fmt.Errorf("review: operator input closed")
		}

		switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
		case "accept":
			c.logger.Info("chapter accepted", "base_id", baseID)
			c.persist(ctx, baseID+"_final", text, domain.TagFinal)
			return text, nil

		case "edit":
			edited, err := c.readEdit()
			if err != nil {
				return "", err
			}
			c.logger.Info("chapter edited", "base_id", baseID, "chars", len(edited))
			c.persist(ctx, baseID+"_human_edited", edited, domain.TagHumanEdited)
			fmt.Fprintf(c.out, "\n--- Edited Chapter Preview ---\n%s\n------------------------------\n", edited)
			return edited, nil

		case "reject":
			c.logger.Warn("chapter rejected", "base_id", baseID)
			return "", domain.ErrRejected

		default:
			fmt.Fprintln(c.out, "Invalid input. Please enter 'accept', 'edit', or 'reject'.")
		}
	}
}

// readEdit collects free-form lines until the sentinel. Zero lines before
// the sentinel is a valid empty edit, not a rejection.
func (c *Checkpoint) readEdit() (string, error) {
	fmt.Fprintf(c.out, "\nPlease provide your edits. Enter '%s' on a new line when finished.\n", editSentinel)

	var lines []string
	for c.in.Scan() {
		line := c.in.Text()
		if strings.EqualFold(strings.TrimSpace(line), editSentinel) {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
	if err := c.in.Err(); err != nil {
		return "", fmt.Errorf("review: read edit: %w", err)
	}
	return "", fmt.Errorf("review: operator input closed mid-edit")
}

func (c *Checkpoint) persist(ctx context.Context, id, content string, tag domain.VersionTag) {
	if err := c.store.Upsert(ctx, id, content, tag); err != nil {
		c.logger.Error("variant write failed", "id", id, "err", err)
	}
}
