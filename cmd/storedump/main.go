// Command storedump lists the collections of an on-disk variant store and
// dumps every record of the chapter collection, for diagnostics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/bookforge/bookforge/engine/semantic"
	"github.com/bookforge/bookforge/pkg/ollama"
)

func main() {
	var (
		dbPath     = flag.String("db", "./chroma_db", "vector store path")
		collection = flag.String("collection", "book_chapters", "collection to dump")
		embedModel = flag.String("embed-model", ollama.DefaultModel, "embedding model the store was written with")
		preview    = flag.Int("preview", 120, "content preview length in runes")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Dumping never embeds, so no embedding function is wired here.
	store, err := semantic.Open(*dbPath, *collection, nil, logger)
	if err != nil {
		fmt.Printf("Could not open store at %s: %v\n", *dbPath, err)
		return
	}

	fmt.Println("Available collections:", store.Collections())

	records, err := store.Dump(context.Background(), ollama.Dims(*embedModel))
	if err != nil {
		fmt.Printf("Error reading collection %q: %v\n", *collection, err)
		return
	}
	if len(records) == 0 {
		fmt.Printf("Collection %q is empty.\n", *collection)
		return
	}

	fmt.Printf("%d records in %q:\n", len(records), *collection)
	for _, r := range records {
		fmt.Printf("  %s [%s]\n    %s\n", r.ID, r.Tag, semantic.Snippet(r.Content, *preview))
	}
}
