package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchableText_AllFields(t *testing.T) {
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	rec := &Record{
		ID:          "g-1",
		Kind:        RecordKindGoal,
		Title:       "Grow ARR to $10M",
		Description: "Expand enterprise pipeline",
		Owner:       "Sarah Lee",
		Department:  "Sales",
		Health:      HealthOnTrack,
		EndDate:     &end,
		LastUpdate:  "Closed two new logos this week",
	}

	text := rec.SearchableText()
	assert.Equal(t, "Grow ARR to $10M Expand enterprise pipeline Sarah Lee Sales on_track Closed two new logos this week", text)
}

func TestSearchableText_SkipsEmptyFields(t *testing.T) {
	rec := &Record{
		ID:     "g-2",
		Kind:   RecordKindGoal,
		Title:  "Ship v2",
		Health: HealthUnknown,
	}

	assert.Equal(t, "Ship v2 unknown", rec.SearchableText())
}

func TestSearchableText_Deterministic(t *testing.T) {
	rec := &Record{
		ID:         "m-1",
		Kind:       RecordKindMilestone,
		Title:      "Beta launch",
		Owner:      "John Doe",
		Health:     HealthAtRisk,
		ParentID:   "g-1",
		LastUpdate: "Slipping a week",
	}

	first := rec.SearchableText()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, rec.SearchableText())
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *Record
		wantErr string
	}{
		{
			name:   "valid goal",
			record: &Record{ID: "g-1", Kind: RecordKindGoal, Title: "Grow ARR", Health: HealthOnTrack},
		},
		{
			name:   "valid milestone",
			record: &Record{ID: "m-1", Kind: RecordKindMilestone, Title: "Beta", Health: HealthBehind, ParentID: "g-1"},
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: "record cannot be nil",
		},
		{
			name:    "missing id",
			record:  &Record{Kind: RecordKindGoal, Title: "Grow ARR", Health: HealthOnTrack},
			wantErr: "record ID is required",
		},
		{
			name:    "missing title",
			record:  &Record{ID: "g-1", Kind: RecordKindGoal, Health: HealthOnTrack},
			wantErr: "record Title is required",
		},
		{
			name:    "invalid kind",
			record:  &Record{ID: "g-1", Kind: "epic", Title: "Grow ARR", Health: HealthOnTrack},
			wantErr: "record Kind is invalid",
		},
		{
			name:    "invalid health",
			record:  &Record{ID: "g-1", Kind: RecordKindGoal, Title: "Grow ARR", Health: "purple"},
			wantErr: "record Health is invalid",
		},
		{
			name:    "milestone without parent",
			record:  &Record{ID: "m-1", Kind: RecordKindMilestone, Title: "Beta", Health: HealthOnTrack},
			wantErr: "must reference a parent goal",
		},
		{
			name:    "goal with parent",
			record:  &Record{ID: "g-1", Kind: RecordKindGoal, Title: "Grow ARR", Health: HealthOnTrack, ParentID: "g-0"},
			wantErr: "cannot have a parent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDomainError_CodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidQuery, CodeOf(ErrInvalidQuery))
	assert.Equal(t, ErrCodeInternalError, CodeOf(assert.AnError))

	wrapped := NewDomainErrorWithCause(ErrCodeUpstreamUnavailable, "rate limited", assert.AnError)
	assert.Equal(t, ErrCodeUpstreamUnavailable, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeUpstreamUnavailable))
	assert.False(t, IsCode(wrapped, ErrCodeConfiguration))
}

func TestScoredCandidate_HasReason(t *testing.T) {
	c := &ScoredCandidate{RecordID: "g-1", Reasons: []MatchReason{ReasonPersonMatch, ReasonOwnershipQuery}}
	assert.True(t, c.HasReason(ReasonPersonMatch))
	assert.False(t, c.HasReason(ReasonHealthMatch))
}

func TestSortReasons(t *testing.T) {
	reasons := []MatchReason{ReasonPersonMatch, ReasonDepartmentMatch, ReasonHealthMatch}
	sorted := SortReasons(reasons)
	assert.Equal(t, []MatchReason{ReasonDepartmentMatch, ReasonHealthMatch, ReasonPersonMatch}, sorted)
}
