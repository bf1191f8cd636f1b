package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/talentdesk/talentchat/internal/log"
)

// memDoc is one record held by the in-process store.
type memDoc struct {
	content   string
	metadata  map[string]any
	embedding []float32
}

// MemoryStore is the volatile fallback vector store. Documents live only for
// the process lifetime and metadata filters are always evaluated in process.
// There is no delete operation; the fallback store only grows.
//
// MemoryStore is safe for concurrent use by multiple goroutines.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     []memDoc
	embedder ai.Embedder
	logger   log.Logger
}

// NewMemory creates an empty in-process store. logger may be nil.
func NewMemory(embedder ai.Embedder, logger log.Logger) *MemoryStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &MemoryStore{
		embedder: embedder,
		logger:   logger,
	}
}

// Add embeds doc.Content and appends the record. Records are never
// deduplicated; indexing the same content twice stores two copies.
func (s *MemoryStore) Add(ctx context.Context, doc Document) error {
	embedding, err := embedText(ctx, s.embedder, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, memDoc{
		content:   doc.Content,
		metadata:  doc.Metadata,
		embedding: embedding,
	})

	s.logger.Debug("indexed document in memory store", "total", len(s.docs))
	return nil
}

// Search embeds the query, ranks every stored document by cosine similarity,
// applies the filter in process, and returns the top k matches.
func (s *MemoryStore) Search(ctx context.Context, query string, k int, filter Filter) ([]Source, error) {
	if k <= 0 {
		return nil, nil
	}

	queryEmbedding, err := embedText(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]Source, 0, len(s.docs))
	for _, doc := range s.docs {
		if !filter.Matches(doc.metadata) {
			continue
		}
		scored = append(scored, Source{
			Content:  doc.content,
			Metadata: doc.metadata,
			Score:    cosineSimilarity(queryEmbedding, doc.embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// embedText runs one text through the embedder and returns the vector.
// The output dimensionality is pinned so the stores and the embedder agree.
func embedText(ctx context.Context, embedder ai.Embedder, text string) ([]float32, error) {
	dim := VectorDimension
	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedder returned no embedding")
	}
	return resp.Embeddings[0].Embedding, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
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
