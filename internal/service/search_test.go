package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/rag"
	"github.com/cloo-solutions/goalsight/internal/store"
)

// MockRanker is a mock implementation of Ranker
type MockRanker struct {
	mock.Mock
}

func (m *MockRanker) Rank(ctx context.Context, query string, k int) ([]*domain.ScoredCandidate, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScoredCandidate), args.Error(1)
}

// MockAnswerer is a mock implementation of Answerer
type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, query string) (*rag.Answer, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rag.Answer), args.Error(1)
}

// MockSearchLogRepository is a mock implementation of SearchLogRepository
type MockSearchLogRepository struct {
	mock.Mock
}

func (m *MockSearchLogRepository) CreateSearchLog(ctx context.Context, entry SearchLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func serviceStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New([]*domain.Record{
		{
			ID:         "g-1",
			Kind:       domain.RecordKindGoal,
			Title:      "Grow enterprise revenue",
			Owner:      "Sarah Lee",
			Department: "Sales",
			Health:     domain.HealthOnTrack,
		},
		{
			ID:         "g-2",
			Kind:       domain.RecordKindGoal,
			Title:      "Reduce infrastructure cost",
			Owner:      "John Doe",
			Department: "Engineering",
			Health:     domain.HealthAtRisk,
		},
	})
	require.NoError(t, err)
	return st
}

func TestSearch_RawMode(t *testing.T) {
	ranker := new(MockRanker)
	ranker.On("Rank", mock.Anything, "revenue", 5).Return([]*domain.ScoredCandidate{
		{RecordID: "g-1", SemanticScore: 0.9, KeywordScore: 2.1, HybridScore: 0.87, Reasons: []domain.MatchReason{domain.ReasonPersonMatch}},
		{RecordID: "g-2", SemanticScore: 0.4, KeywordScore: 0.0, HybridScore: 0.3},
	}, nil)

	svc := NewSearchService(serviceStore(t), ranker, nil, nil)
	out, err := svc.Search(context.Background(), SearchInput{Query: "revenue", K: 5, Mode: SearchModeRaw})

	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "g-1", out.Results[0].RecordID)
	assert.Equal(t, "Grow enterprise revenue", out.Results[0].Title)
	assert.Equal(t, "Sarah Lee", out.Results[0].Owner)
	assert.Equal(t, domain.HealthOnTrack, out.Results[0].Health)
	assert.Equal(t, 0.87, out.Results[0].HybridScore)
	assert.Contains(t, out.Results[0].Reasons, domain.ReasonPersonMatch)
	assert.Nil(t, out.Answer)
	ranker.AssertExpectations(t)
}

func TestSearch_DefaultLimit(t *testing.T) {
	ranker := new(MockRanker)
	ranker.On("Rank", mock.Anything, "revenue", defaultLimit).Return([]*domain.ScoredCandidate{}, nil)

	svc := NewSearchService(serviceStore(t), ranker, nil, nil)
	out, err := svc.Search(context.Background(), SearchInput{Query: "revenue"})

	require.NoError(t, err)
	assert.Empty(t, out.Results)
	ranker.AssertExpectations(t)
}

func TestSearch_ConfiguredDefaultLimit(t *testing.T) {
	ranker := new(MockRanker)
	ranker.On("Rank", mock.Anything, "revenue", 25).Return([]*domain.ScoredCandidate{}, nil)

	svc := NewSearchService(serviceStore(t), ranker, nil, nil)
	svc.SetDefaultLimit(25)
	_, err := svc.Search(context.Background(), SearchInput{Query: "revenue"})

	require.NoError(t, err)
	ranker.AssertExpectations(t)
}

func TestSearch_AIAnalysisMode(t *testing.T) {
	ranker := new(MockRanker)
	ranker.On("Rank", mock.Anything, "what is at risk", 3).Return([]*domain.ScoredCandidate{
		{RecordID: "g-2", HybridScore: 0.8},
	}, nil)

	answerer := new(MockAnswerer)
	answerer.On("Answer", mock.Anything, "what is at risk").Return(&rag.Answer{
		Text:      "Infrastructure cost is at risk.",
		SourceIDs: []string{"g-2"},
		Model:     "llama-3.3-70b-versatile",
		State:     rag.StateSucceeded,
	}, nil)

	svc := NewSearchService(serviceStore(t), ranker, answerer, nil)
	out, err := svc.Search(context.Background(), SearchInput{Query: "what is at risk", K: 3, Mode: SearchModeAIAnalysis})

	require.NoError(t, err)
	require.NotNil(t, out.Answer)
	assert.Equal(t, "Infrastructure cost is at risk.", out.Answer.Text)
	assert.Equal(t, []string{"g-2"}, out.Answer.SourceIDs)
	assert.False(t, out.Answer.Degraded)
	answerer.AssertExpectations(t)
}

func TestSearch_RankerErrorPropagates(t *testing.T) {
	ranker := new(MockRanker)
	ranker.On("Rank", mock.Anything, "", 5).Return(nil, domain.ErrInvalidQuery)

	svc := NewSearchService(serviceStore(t), ranker, nil, nil)
	_, err := svc.Search(context.Background(), SearchInput{Query: "", K: 5})

	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInvalidQuery, domain.CodeOf(err))
}

func TestSearch_SkipsVanishedRecords(t *testing.T) {
	ranker := new(MockRanker)
	ranker.On("Rank", mock.Anything, "revenue", 5).Return([]*domain.ScoredCandidate{
		{RecordID: "g-1", HybridScore: 0.9},
		{RecordID: "ghost", HybridScore: 0.5},
	}, nil)

	svc := NewSearchService(serviceStore(t), ranker, nil, nil)
	out, err := svc.Search(context.Background(), SearchInput{Query: "revenue", K: 5})

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "g-1", out.Results[0].RecordID)
}

func TestSearch_LogsBestEffort(t *testing.T) {
	ranker := new(MockRanker)
	ranker.On("Rank", mock.Anything, "revenue", 5).Return([]*domain.ScoredCandidate{
		{RecordID: "g-1", HybridScore: 0.9},
	}, nil)

	searchLog := new(MockSearchLogRepository)
	searchLog.On("CreateSearchLog", mock.Anything, mock.MatchedBy(func(entry SearchLogEntry) bool {
		return entry.Query == "revenue" && len(entry.Results) == 1 && entry.Results[0].RecordID == "g-1"
	})).Return("", errors.New("database down"))

	svc := NewSearchService(serviceStore(t), ranker, nil, searchLog)
	out, err := svc.Search(context.Background(), SearchInput{Query: "revenue", K: 5})

	// logging failure never surfaces to the caller
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	searchLog.AssertExpectations(t)
}

func TestAsk_Degraded(t *testing.T) {
	answerer := new(MockAnswerer)
	answerer.On("Answer", mock.Anything, "status").Return(&rag.Answer{
		Text:     rag.DegradedMarker + " Showing the most relevant results instead:",
		Degraded: true,
		State:    rag.StateDegraded,
	}, nil)

	svc := NewSearchService(serviceStore(t), nil, answerer, nil)
	out, err := svc.Ask(context.Background(), "status")

	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Contains(t, out.Text, rag.DegradedMarker)
}

func TestGetRecord(t *testing.T) {
	svc := NewSearchService(serviceStore(t), nil, nil, nil)

	rec, err := svc.GetRecord(context.Background(), "g-1")
	require.NoError(t, err)
	assert.Equal(t, "Grow enterprise revenue", rec.Title)

	_, err = svc.GetRecord(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeNotFound, domain.CodeOf(err))
}
