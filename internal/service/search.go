// Package service orchestrates retrieval and answer generation behind the
// HTTP and CLI surfaces.
package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/rag"
	"github.com/cloo-solutions/goalsight/internal/store"
	"github.com/cloo-solutions/goalsight/internal/telemetry"
)

// SearchMode selects how a query is answered.
type SearchMode string

const (
	// SearchModeRaw returns ranked results only.
	SearchModeRaw SearchMode = "raw"
	// SearchModeAIAnalysis additionally runs the answer pipeline.
	SearchModeAIAnalysis SearchMode = "ai_analysis"
)

const defaultLimit = 10

func normalizeSearchMode(mode SearchMode) SearchMode {
	if strings.EqualFold(strings.TrimSpace(string(mode)), string(SearchModeAIAnalysis)) {
		return SearchModeAIAnalysis
	}
	return SearchModeRaw
}

// SearchInput represents input for the search operation.
type SearchInput struct {
	Query string
	K     int
	Mode  SearchMode
}

// SearchResult is a ranked record hydrated with display fields.
type SearchResult struct {
	RecordID      string               `json:"record_id"`
	Kind          domain.RecordKind    `json:"kind"`
	Title         string               `json:"title"`
	Owner         string               `json:"owner,omitempty"`
	Department    string               `json:"department,omitempty"`
	Health        domain.HealthStatus  `json:"health"`
	SemanticScore float64              `json:"semantic_score"`
	KeywordScore  float64              `json:"keyword_score"`
	HybridScore   float64              `json:"hybrid_score"`
	Reasons       []domain.MatchReason `json:"reasons,omitempty"`
}

// SearchOutput represents output from the search operation.
type SearchOutput struct {
	Results []*SearchResult `json:"results"`
	Answer  *AnswerOutput   `json:"answer,omitempty"`
}

// AnswerOutput is the generated answer portion of a search.
type AnswerOutput struct {
	Text      string   `json:"text"`
	SourceIDs []string `json:"source_ids,omitempty"`
	Model     string   `json:"model,omitempty"`
	Degraded  bool     `json:"degraded"`
}

// Ranker is the retrieval boundary.
type Ranker interface {
	Rank(ctx context.Context, query string, k int) ([]*domain.ScoredCandidate, error)
}

// Answerer is the generation boundary.
type Answerer interface {
	Answer(ctx context.Context, query string) (*rag.Answer, error)
}

// SearchLogEntry captures a search request and its results for persistence.
type SearchLogEntry struct {
	Query      string
	Mode       SearchMode
	Limit      int
	DurationMs int
	Results    []SearchLogResult
}

// SearchLogResult captures a single result entry for logging.
type SearchLogResult struct {
	RecordID    string  `json:"record_id"`
	HybridScore float64 `json:"hybrid_score"`
}

// SearchLogRepository persists search logs. Implementations must tolerate
// being called on every request; failures are logged, never surfaced.
type SearchLogRepository interface {
	CreateSearchLog(ctx context.Context, entry SearchLogEntry) (string, error)
}

// SearchService handles search and answer requests.
type SearchService struct {
	store     *store.Store
	ranker    Ranker
	answerer  Answerer
	searchLog SearchLogRepository
	defaultK  int
}

// NewSearchService creates a new SearchService. searchLog may be nil when no
// database is configured.
func NewSearchService(st *store.Store, ranker Ranker, answerer Answerer, searchLog SearchLogRepository) *SearchService {
	return &SearchService{
		store:     st,
		ranker:    ranker,
		answerer:  answerer,
		searchLog: searchLog,
		defaultK:  defaultLimit,
	}
}

// SetDefaultLimit overrides the result count used when a request omits k.
func (s *SearchService) SetDefaultLimit(k int) {
	if k >= 1 {
		s.defaultK = k
	}
}

// Search ranks records for the query and, in ai_analysis mode, generates a
// grounded answer over the top results.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	mode := normalizeSearchMode(input.Mode)
	ctx, span := telemetry.StartSpan(ctx, "service.search", telemetry.SpanAttributes{
		Query:     input.Query,
		Mode:      string(mode),
		Operation: "search",
	})
	defer span.End()

	limit := input.K
	if limit <= 0 {
		limit = s.defaultK
	}

	started := time.Now()
	candidates, err := s.ranker.Rank(ctx, input.Query, limit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	out := &SearchOutput{Results: s.hydrate(candidates)}

	if mode == SearchModeAIAnalysis {
		answer, err := s.answerer.Answer(ctx, input.Query)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		out.Answer = &AnswerOutput{
			Text:      answer.Text,
			SourceIDs: answer.SourceIDs,
			Model:     answer.Model,
			Degraded:  answer.Degraded,
		}
	}

	s.logSearch(ctx, input.Query, mode, limit, time.Since(started), out.Results)
	return out, nil
}

// Ask runs the answer pipeline directly.
func (s *SearchService) Ask(ctx context.Context, query string) (*AnswerOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ask", telemetry.SpanAttributes{
		Query:     query,
		Operation: "ask",
	})
	defer span.End()

	answer, err := s.answerer.Answer(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return &AnswerOutput{
		Text:      answer.Text,
		SourceIDs: answer.SourceIDs,
		Model:     answer.Model,
		Degraded:  answer.Degraded,
	}, nil
}

// GetRecord returns a single record by ID.
func (s *SearchService) GetRecord(_ context.Context, id string) (*domain.Record, error) {
	return s.store.Get(id)
}

// hydrate joins ranked candidates with their stored records. Candidates whose
// record vanished from the store are skipped.
func (s *SearchService) hydrate(candidates []*domain.ScoredCandidate) []*SearchResult {
	results := make([]*SearchResult, 0, len(candidates))
	for _, c := range candidates {
		rec, err := s.store.Get(c.RecordID)
		if err != nil {
			continue
		}
		results = append(results, &SearchResult{
			RecordID:      rec.ID,
			Kind:          rec.Kind,
			Title:         rec.Title,
			Owner:         rec.Owner,
			Department:    rec.Department,
			Health:        rec.Health,
			SemanticScore: c.SemanticScore,
			KeywordScore:  c.KeywordScore,
			HybridScore:   c.HybridScore,
			Reasons:       c.Reasons,
		})
	}
	return results
}

func (s *SearchService) logSearch(ctx context.Context, query string, mode SearchMode, limit int, elapsed time.Duration, results []*SearchResult) {
	if s.searchLog == nil {
		return
	}
	entry := SearchLogEntry{
		Query:      query,
		Mode:       mode,
		Limit:      limit,
		DurationMs: int(elapsed.Milliseconds()),
		Results:    make([]SearchLogResult, 0, len(results)),
	}
	for _, r := range results {
		entry.Results = append(entry.Results, SearchLogResult{RecordID: r.RecordID, HybridScore: r.HybridScore})
	}
	if _, err := s.searchLog.CreateSearchLog(ctx, entry); err != nil {
		log.Printf("search log: failed to persist entry: %v", err)
	}
}
