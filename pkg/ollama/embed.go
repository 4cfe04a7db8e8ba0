// Package ollama provides the store's embedding function, backed by
// Ollama's HTTP API. The same function instance must serve every write and
// every query of a collection for distances to be meaningful.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultModel is a compact sentence-embedding model (384 dimensions).
const DefaultModel = "all-minilm"

// Dims returns the vector dimension of a known model, defaulting to 384.
func Dims(model string) int {
	switch model {
	case "nomic-embed-text":
		return 768
	default:
		return 384
	}
}

// Embedder produces normalised embeddings via a local Ollama server.
type Embedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// New creates an Embedder for the given base URL and model.
func New(baseURL, model string) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the unit-length embedding of text. The signature matches
// chromem.EmbeddingFunc, so an Embedder method is injected directly into
// the store.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, _ := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embed: empty embedding")
	}

	return normalize(result.Embedding), nil
}

// Func returns the Embedder as a chromem embedding function.
func (e *Embedder) Func() chromem.EmbeddingFunc {
	return e.Embed
}

func normalize(in []float64) []float32 {
	var norm float64
	for _, v := range in {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(in))
	if norm == 0 {
		return out
	}
	for i, v := range in {
		out[i] = float32(v / norm)
	}
	return out
}
