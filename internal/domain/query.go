package domain

import "sort"

// MatchReason tags why a record matched a query
type MatchReason string

const (
	ReasonPersonMatch     MatchReason = "person_match"
	ReasonDepartmentMatch MatchReason = "department_match"
	ReasonHealthMatch     MatchReason = "health_match"
	ReasonOwnershipQuery  MatchReason = "ownership_query"
)

// QueryIntent classifies what a query is asking about
type QueryIntent string

const (
	IntentPerson     QueryIntent = "person"
	IntentDepartment QueryIntent = "department"
	IntentHealth     QueryIntent = "health"
	IntentOwnership  QueryIntent = "ownership"
	IntentGeneral    QueryIntent = "general"
)

// ScoredCandidate is one ranked record for a single query. Candidates are
// created fresh per query and never persisted.
type ScoredCandidate struct {
	RecordID      string
	SemanticScore float64
	KeywordScore  float64
	HybridScore   float64
	Reasons       []MatchReason
}

// HasReason reports whether the candidate carries the given match reason.
func (c *ScoredCandidate) HasReason(reason MatchReason) bool {
	for _, r := range c.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// SortReasons orders match reasons lexicographically so candidate output is
// reproducible across invocations.
func SortReasons(reasons []MatchReason) []MatchReason {
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

// HasIntent reports whether the intent set contains the given intent.
func HasIntent(intents []QueryIntent, intent QueryIntent) bool {
	for _, i := range intents {
		if i == intent {
			return true
		}
	}
	return false
}
