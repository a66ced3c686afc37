package keyword

import (
	"testing"

	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New([]*domain.Record{
		{ID: "g-1", Kind: domain.RecordKindGoal, Title: "Grow enterprise revenue", Owner: "Sarah Lee", Department: "Sales", Health: domain.HealthOnTrack},
		{ID: "g-2", Kind: domain.RecordKindGoal, Title: "Platform reliability", Owner: "Sarah Kim", Department: "Engineering", Health: domain.HealthAtRisk},
		{ID: "g-3", Kind: domain.RecordKindGoal, Title: "Hiring pipeline", Owner: "John Doe", Department: "Engineering", Health: domain.HealthBehind},
		{ID: "m-1", Kind: domain.RecordKindMilestone, Title: "Quarterly review", Health: domain.HealthUnknown, ParentID: "g-1"},
	})
	require.NoError(t, err)
	return st
}

func mustScore(t *testing.T, s *Scorer, query string, rec *domain.Record) (float64, []domain.MatchReason) {
	t.Helper()
	score, reasons, err := s.Score(query, rec)
	require.NoError(t, err)
	return score, reasons
}

func record(t *testing.T, st *store.Store, id string) *domain.Record {
	t.Helper()
	rec, err := st.Get(id)
	require.NoError(t, err)
	return rec
}

func TestScore_EmptyQuery(t *testing.T) {
	s := NewScorer(testStore(t))

	_, _, err := s.Score("   ", &domain.Record{ID: "g-1"})
	assert.True(t, domain.IsCode(err, domain.ErrCodeInvalidQuery))
}

func TestScore_PersonMatch(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	score, reasons := mustScore(t, s, "Sarah goals", record(t, st, "g-1"))
	assert.Contains(t, reasons, domain.ReasonPersonMatch)
	assert.GreaterOrEqual(t, score, personBonus)

	// same first name, different owner: also a person match
	_, reasons = mustScore(t, s, "Sarah goals", record(t, st, "g-2"))
	assert.Contains(t, reasons, domain.ReasonPersonMatch)

	// unrelated owner: no person match
	_, reasons = mustScore(t, s, "Sarah goals", record(t, st, "g-3"))
	assert.NotContains(t, reasons, domain.ReasonPersonMatch)
}

func TestScore_PossessiveQuery(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	_, reasons := mustScore(t, s, "Sarah's goals", record(t, st, "g-1"))
	assert.Contains(t, reasons, domain.ReasonPersonMatch)
}

func TestScore_OwnershipAmplification(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)
	rec := record(t, st, "g-1")

	plain, _ := mustScore(t, s, "Sarah revenue", rec)
	amplified, reasons := mustScore(t, s, "What is Sarah working on", rec)

	assert.Contains(t, reasons, domain.ReasonPersonMatch)
	assert.Contains(t, reasons, domain.ReasonOwnershipQuery)
	assert.Greater(t, amplified, plain, "ownership phrasing should amplify the owner hit")
}

func TestScore_OwnershipTagOnlyOnOwnerHits(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	_, reasons := mustScore(t, s, "What is Sarah working on", record(t, st, "g-3"))
	assert.NotContains(t, reasons, domain.ReasonOwnershipQuery)
}

func TestScore_DepartmentMatch(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	score, reasons := mustScore(t, s, "engineering projects", record(t, st, "g-2"))
	assert.Contains(t, reasons, domain.ReasonDepartmentMatch)
	assert.GreaterOrEqual(t, score, departmentBonus)

	_, reasons = mustScore(t, s, "engineering projects", record(t, st, "g-1"))
	assert.NotContains(t, reasons, domain.ReasonDepartmentMatch)
}

func TestScore_DepartmentAbbreviation(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	_, reasons := mustScore(t, s, "eng roadmap", record(t, st, "g-2"))
	assert.Contains(t, reasons, domain.ReasonDepartmentMatch)
}

func TestScore_HealthColloquialisms(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	tests := []struct {
		query    string
		recordID string
		match    bool
	}{
		{"which goals are at risk", "g-2", true},
		{"which goals are at risk", "g-1", false},
		{"what is behind schedule", "g-3", true},
		{"anything delayed", "g-3", true},
		{"what is on track", "g-1", true},
		{"what is on track", "g-3", false},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.recordID, func(t *testing.T) {
			_, reasons := mustScore(t, s, tt.query, record(t, st, tt.recordID))
			if tt.match {
				assert.Contains(t, reasons, domain.ReasonHealthMatch)
			} else {
				assert.NotContains(t, reasons, domain.ReasonHealthMatch)
			}
		})
	}
}

func TestScore_UnknownTokensIgnored(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	score, reasons, err := s.Score("zxqv flibbertigibbet", record(t, st, "g-1"))
	require.NoError(t, err)
	assert.Zero(t, score)
	assert.Empty(t, reasons)
}

func TestScore_RareTokensWorthMore(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	// "revenue" appears in one record, "engineering" in two; with bonuses
	// excluded the rarer overlap should weigh more.
	rare := s.overlapScore(map[string]struct{}{"revenue": {}}, record(t, st, "g-1"))
	common := s.overlapScore(map[string]struct{}{"engineering": {}}, record(t, st, "g-2"))
	assert.Greater(t, rare, common)
}

func TestScore_Deterministic(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)
	rec := record(t, st, "g-2")

	firstScore, firstReasons := mustScore(t, s, "Sarah engineering at risk reliability", rec)
	for i := 0; i < 20; i++ {
		score, reasons := mustScore(t, s, "Sarah engineering at risk reliability", rec)
		assert.Equal(t, firstScore, score)
		assert.Equal(t, firstReasons, reasons)
	}
}

func TestDetectIntents(t *testing.T) {
	st := testStore(t)
	s := NewScorer(st)

	tests := []struct {
		query string
		want  []domain.QueryIntent
	}{
		{"What is Sarah working on?", []domain.QueryIntent{domain.IntentPerson, domain.IntentOwnership}},
		{"engineering projects", []domain.QueryIntent{domain.IntentDepartment}},
		{"which milestones are at risk", []domain.QueryIntent{domain.IntentHealth}},
		{"quarterly revenue targets", []domain.QueryIntent{domain.IntentGeneral}},
		{"who owns the eng goals behind schedule", []domain.QueryIntent{domain.IntentDepartment, domain.IntentHealth, domain.IntentOwnership}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, s.DetectIntents(tt.query))
		})
	}
}
