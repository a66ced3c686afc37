package semantic

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/goalsight/internal/domain"
)

// MemoryIndex is a brute-force cosine-similarity index used when no database
// is configured. Build replaces the whole index; reads are lock-free after
// the write lock is released.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []IndexEntry
	norms   []float64
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Build stores the entries and precomputes their norms.
func (m *MemoryIndex) Build(ctx context.Context, entries []IndexEntry) error {
	norms := make([]float64, len(entries))
	for i, e := range entries {
		norms[i] = norm(e.Vector)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
	m.norms = norms
	return nil
}

// Search returns the k entries most similar to the query by cosine
// similarity, sorted descending with ties broken by record id ascending.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, domain.ErrIndexUnavailable
	}

	queryNorm := norm(query)
	hits := make([]Hit, 0, len(m.entries))
	for i, e := range m.entries {
		hits = append(hits, Hit{
			RecordID: e.RecordID,
			Score:    cosine(query, e.Vector, queryNorm, m.norms[i]),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RecordID < hits[j].RecordID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
