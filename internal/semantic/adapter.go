// Package semantic wraps the external embedding function and vector index
// behind a process-wide, initialize-once adapter.
package semantic

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/store"
)

// Embedder is the black-box text-to-vector function. Implementations must be
// deterministic for identical input and safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexEntry is one record's embedding handed to a VectorIndex at build time.
type IndexEntry struct {
	RecordID string
	Vector   []float32
}

// Hit is one nearest-neighbor result. Score is a similarity, higher is closer.
type Hit struct {
	RecordID string
	Score    float64
}

// VectorIndex is the black-box nearest-neighbor store.
type VectorIndex interface {
	Build(ctx context.Context, entries []IndexEntry) error
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
}

// Adapter caches the embedding handle and built index for the process
// lifetime. Initialization happens at most once; the cached state is
// read-only afterwards, so concurrent queries are safe.
type Adapter struct {
	mu       sync.Mutex
	embedder Embedder
	index    VectorIndex
	ready    bool
	timeout  time.Duration
}

// NewAdapter wires an embedder and a vector index. timeout bounds each
// external call; zero disables the bound.
func NewAdapter(embedder Embedder, index VectorIndex, timeout time.Duration) *Adapter {
	return &Adapter{
		embedder: embedder,
		index:    index,
		timeout:  timeout,
	}
}

// Initialize embeds every record's searchable text and builds the index.
// Calling it again after a successful build is a no-op.
func (a *Adapter) Initialize(ctx context.Context, st *store.Store) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ready {
		return nil
	}

	records := st.All()
	entries := make([]IndexEntry, 0, len(records))
	for _, rec := range records {
		vec, err := a.embed(ctx, rec.SearchableText())
		if err != nil {
			return err
		}
		entries = append(entries, IndexEntry{RecordID: rec.ID, Vector: vec})
	}

	if err := a.index.Build(ctx, entries); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeIndexUnavailable, "index build failed", err)
	}

	a.ready = true
	return nil
}

// Ready reports whether the index has been built.
func (a *Adapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Embed generates an embedding for the given text.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.embed(ctx, text)
}

func (a *Adapter) embed(ctx context.Context, text string) ([]float32, error) {
	if a.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	vec, err := a.embedder.Embed(ctx, text)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable, "embedding failed", err)
	}
	return vec, nil
}

// Search returns up to k hits sorted by similarity descending, ties broken by
// record id ascending.
func (a *Adapter) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidK
	}
	if !a.Ready() {
		return nil, domain.ErrIndexUnavailable
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	hits, err := a.index.Search(ctx, query, k)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexUnavailable, "index search failed", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RecordID < hits[j].RecordID
	})

	return hits, nil
}
