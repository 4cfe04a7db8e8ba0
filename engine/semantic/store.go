package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	chromem "github.com/philippgille/chromem-go"

	"github.com/bookforge/bookforge/engine/domain"
)

// VariantStore is the sole owner of all vector store operations. The
// embedding function is injected once at collection creation and used for
// every write and every query; mixing functions silently breaks distance
// ordering, so nothing else in the repo ever touches chromem directly.
type VariantStore struct {
	db     *chromem.DB
	coll   *chromem.Collection
	logger *slog.Logger
}

// Open creates a VariantStore persisted under path. The collection is
// created on first use; subsequent runs reattach to the existing data.
func Open(path, collection string, embed chromem.EmbeddingFunc, logger *slog.Logger) (*VariantStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("semantic: open store at %s: %w", path, err)
	}
	return NewWithDB(db, collection, embed, logger)
}

// NewWithDB creates a VariantStore over an existing chromem DB. Tests use
// this with an in-memory DB and a deterministic embedding function.
func NewWithDB(db *chromem.DB, collection string, embed chromem.EmbeddingFunc, logger *slog.Logger) (*VariantStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	coll, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("semantic: collection %s: %w", collection, err)
	}
	return &VariantStore{db: db, coll: coll, logger: logger}, nil
}

// Upsert writes or overwrites a variant and its metadata under id.
// Writing the same id and content twice leaves the store unchanged.
func (s *VariantStore) Upsert(ctx context.Context, id, content string, tag domain.VersionTag) error {
	v := domain.TextVariant{ID: id, Content: content, Tag: tag}
	if err := domain.ValidateVariant(v); err != nil {
		return fmt.Errorf("semantic: upsert %s: %w", id, err)
	}

	doc := chromem.Document{
		ID:      id,
		Content: content,
		Metadata: map[string]string{
			"id":           id,
			"version_type": string(tag),
		},
	}
	if err := s.coll.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("semantic: upsert %s: %w", id, err)
	}
	s.logger.Info("variant stored", "id", id, "version_type", tag, "chars", len(content))
	return nil
}

// Query embeds text with the collection's embedding function and returns
// the topK nearest stored variants, ascending by distance. An empty
// collection yields no results rather than an error.
func (s *VariantStore) Query(ctx context.Context, text string, topK int) ([]SearchResult, error) {
	n := s.coll.Count()
	if n == 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}
	if topK < 1 {
		topK = 1
	}

	res, err := s.coll.Query(ctx, text, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic: query: %w", err)
	}
	return toSearchResults(res), nil
}

// Dump returns every stored variant for diagnostics. It probes with a unit
// vector of the embedding dimension, so no embedding service is needed.
func (s *VariantStore) Dump(ctx context.Context, dims int) ([]Record, error) {
	n := s.coll.Count()
	if n == 0 {
		return nil, nil
	}

	probe := make([]float32, dims)
	probe[0] = 1

	res, err := s.coll.QueryEmbedding(ctx, probe, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic: dump: %w", err)
	}

	records := make([]Record, len(res))
	for i, r := range res {
		records[i] = Record{
			ID:      r.ID,
			Tag:     domain.VersionTag(r.Metadata["version_type"]),
			Content: r.Content,
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Count returns the number of stored variants.
func (s *VariantStore) Count() int {
	return s.coll.Count()
}

// Collections lists all collection names present in the store.
func (s *VariantStore) Collections() []string {
	m := s.db.ListCollections()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
