package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/atlas-develop/clinic-assistant/internal/llm"
	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

// ChunkSource supplies the knowledge texts the index is built from.
type ChunkSource interface {
	Chunks(ctx context.Context) ([]string, error)
}

// Index answers similarity queries over the knowledge base. Documents are
// embedded once on first use; a failed build is retried on the next call.
type Index struct {
	embedder llm.Embedder
	source   ChunkSource
	topK     int
	logger   *logging.Logger

	mu   sync.Mutex
	docs []document
	// built guards the one-time load; the mutex keeps concurrent first
	// callers from embedding the corpus twice.
	built bool
}

type document struct {
	content   string
	embedding []float32
}

// NewIndex creates an index over the supplied source.
func NewIndex(embedder llm.Embedder, source ChunkSource, topK int, logger *logging.Logger) *Index {
	if embedder == nil {
		panic("retrieval: embedder required")
	}
	if source == nil {
		panic("retrieval: chunk source required")
	}
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Index{embedder: embedder, source: source, topK: topK, logger: logger}
}

// Find returns the top-k most similar chunks, concatenated with blank lines.
func (ix *Index) Find(ctx context.Context, query string) (string, error) {
	docs, err := ix.load(ctx)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("retrieval: embed query failed: %w", err)
	}
	if len(vectors) == 0 {
		return "", nil
	}
	queryVec := vectors[0]

	type scored struct {
		score   float64
		content string
	}
	results := make([]scored, 0, len(docs))
	for _, doc := range docs {
		results = append(results, scored{
			score:   cosineSimilarity(queryVec, doc.embedding),
			content: doc.content,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	limit := ix.topK
	if len(results) < limit {
		limit = len(results)
	}
	parts := make([]string, limit)
	for i := 0; i < limit; i++ {
		parts[i] = results[i].content
	}
	return strings.Join(parts, "\n\n"), nil
}

func (ix *Index) load(ctx context.Context) ([]document, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.built {
		return ix.docs, nil
	}

	chunks, err := ix.source.Chunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieval: load chunks failed: %w", err)
	}
	if len(chunks) == 0 {
		ix.built = true
		return nil, nil
	}

	vectors, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed chunks failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("retrieval: embedding count mismatch: %d texts, %d vectors", len(chunks), len(vectors))
	}

	docs := make([]document, len(chunks))
	for i := range chunks {
		docs[i] = document{content: chunks[i], embedding: vectors[i]}
	}
	ix.docs = docs
	ix.built = true
	ix.logger.Info("retrieval index built", "chunks", len(docs))
	return docs, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
