// Package ranker merges semantic similarity and keyword evidence into a
// single ranked candidate list with intent-aware boosting.
package ranker

import (
	"context"
	"sort"
	"strings"

	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/semantic"
	"github.com/cloo-solutions/goalsight/internal/store"
)

// minCandidates floors the oversampled fetch so keyword evidence has room to
// re-rank before truncation.
const minCandidates = 20

// Searcher is the semantic path: embed the query, then nearest-neighbor search.
type Searcher interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Search(ctx context.Context, query []float32, k int) ([]semantic.Hit, error)
}

// Scorer is the keyword path.
type Scorer interface {
	Score(query string, rec *domain.Record) (float64, []domain.MatchReason, error)
	DetectIntents(query string) []domain.QueryIntent
}

// Config controls score blending. SemanticWeight and KeywordWeight should
// sum to 1; boost factors are multipliers greater than 1 applied when the
// query intent aligns with a candidate's match reason.
type Config struct {
	SemanticWeight    float64
	KeywordWeight     float64
	MinScoreThreshold float64
	OversampleFactor  int
	PersonBoost       float64
	DepartmentBoost   float64
	HealthBoost       float64

	// AllowKeywordFallback degrades to keyword-only scoring over the whole
	// store when the semantic path is unavailable, instead of failing.
	AllowKeywordFallback bool
}

// DefaultConfig returns the documented default blending configuration.
func DefaultConfig() Config {
	return Config{
		SemanticWeight:    0.6,
		KeywordWeight:     0.4,
		MinScoreThreshold: 0.05,
		OversampleFactor:  3,
		PersonBoost:       1.5,
		DepartmentBoost:   1.3,
		HealthBoost:       1.3,
	}
}

// Ranker produces ranked, deduplicated candidates for a query. It holds no
// cross-query state.
type Ranker struct {
	store    *store.Store
	searcher Searcher
	scorer   Scorer
	cfg      Config
}

// New creates a Ranker.
func New(st *store.Store, searcher Searcher, scorer Scorer, cfg Config) *Ranker {
	return &Ranker{
		store:    st,
		searcher: searcher,
		scorer:   scorer,
		cfg:      cfg,
	}
}

// Rank returns at most k candidates ordered by hybrid score descending, ties
// broken by semantic score descending then record id ascending. An empty
// result after thresholding is a valid outcome, not an error.
func (r *Ranker) Rank(ctx context.Context, query string, k int) ([]*domain.ScoredCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidQuery
	}
	if k <= 0 {
		return nil, domain.ErrInvalidK
	}

	intents := r.scorer.DetectIntents(query)

	hits, err := r.semanticCandidates(ctx, query, k)
	if err != nil {
		if !r.keywordFallbackAllowed(err) {
			return nil, err
		}
		hits = r.keywordOnlyCandidates()
	}

	candidates := make([]*domain.ScoredCandidate, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if _, dup := seen[hit.RecordID]; dup {
			continue
		}
		seen[hit.RecordID] = struct{}{}

		rec, err := r.store.Get(hit.RecordID)
		if err != nil {
			// index can lag a reload; a missing record is not this query's problem
			continue
		}

		kwScore, reasons, err := r.scorer.Score(query, rec)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, &domain.ScoredCandidate{
			RecordID:      hit.RecordID,
			SemanticScore: hit.Score,
			KeywordScore:  kwScore,
			Reasons:       reasons,
		})
	}

	r.blend(candidates, intents)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].HybridScore != candidates[j].HybridScore {
			return candidates[i].HybridScore > candidates[j].HybridScore
		}
		if candidates[i].SemanticScore != candidates[j].SemanticScore {
			return candidates[i].SemanticScore > candidates[j].SemanticScore
		}
		return candidates[i].RecordID < candidates[j].RecordID
	})

	kept := candidates[:0]
	for _, c := range candidates {
		if c.HybridScore >= r.cfg.MinScoreThreshold {
			kept = append(kept, c)
		}
	}

	if len(kept) > k {
		kept = kept[:k]
	}
	return kept, nil
}

func (r *Ranker) semanticCandidates(ctx context.Context, query string, k int) ([]semantic.Hit, error) {
	fetch := k * r.cfg.OversampleFactor
	if fetch < minCandidates {
		fetch = minCandidates
	}

	embedding, err := r.searcher.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.searcher.Search(ctx, embedding, fetch)
}

// keywordOnlyCandidates covers every record with a zero semantic score so
// the keyword signal alone drives ranking.
func (r *Ranker) keywordOnlyCandidates() []semantic.Hit {
	records := r.store.All()
	hits := make([]semantic.Hit, 0, len(records))
	for _, rec := range records {
		hits = append(hits, semantic.Hit{RecordID: rec.ID})
	}
	return hits
}

func (r *Ranker) keywordFallbackAllowed(err error) bool {
	if !r.cfg.AllowKeywordFallback {
		return false
	}
	return domain.IsCode(err, domain.ErrCodeIndexUnavailable) ||
		domain.IsCode(err, domain.ErrCodeEmbeddingUnavailable)
}

// blend min-max normalizes each signal within the candidate set, combines
// them with the configured weights and applies intent boosts.
func (r *Ranker) blend(candidates []*domain.ScoredCandidate, intents []domain.QueryIntent) {
	if len(candidates) == 0 {
		return
	}

	semMin, semMax := scoreRange(candidates, func(c *domain.ScoredCandidate) float64 { return c.SemanticScore })
	kwMin, kwMax := scoreRange(candidates, func(c *domain.ScoredCandidate) float64 { return c.KeywordScore })

	for _, c := range candidates {
		hybrid := r.cfg.SemanticWeight*normalize(c.SemanticScore, semMin, semMax) +
			r.cfg.KeywordWeight*normalize(c.KeywordScore, kwMin, kwMax)

		if (domain.HasIntent(intents, domain.IntentPerson) || domain.HasIntent(intents, domain.IntentOwnership)) &&
			c.HasReason(domain.ReasonPersonMatch) {
			hybrid *= r.cfg.PersonBoost
		}
		if domain.HasIntent(intents, domain.IntentDepartment) && c.HasReason(domain.ReasonDepartmentMatch) {
			hybrid *= r.cfg.DepartmentBoost
		}
		if domain.HasIntent(intents, domain.IntentHealth) && c.HasReason(domain.ReasonHealthMatch) {
			hybrid *= r.cfg.HealthBoost
		}

		c.HybridScore = hybrid
	}
}

func scoreRange(candidates []*domain.ScoredCandidate, get func(*domain.ScoredCandidate) float64) (float64, float64) {
	lo, hi := get(candidates[0]), get(candidates[0])
	for _, c := range candidates[1:] {
		v := get(c)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// normalize maps a value within the candidate set's observed range to [0,1].
// A degenerate range collapses to 1 when the signal is present, 0 otherwise.
func normalize(v, lo, hi float64) float64 {
	if hi > lo {
		return (v - lo) / (hi - lo)
	}
	if hi > 0 {
		return 1
	}
	return 0
}
