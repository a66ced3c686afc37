// Package keyword implements the rule-based half of hybrid retrieval:
// deterministic scoring of a query against a record using known owners,
// departments, health vocabulary and IDF-weighted token overlap.
package keyword

import (
	"math"
	"sort"
	"strings"

	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/store"
)

const (
	personBonus     = 3.0
	departmentBonus = 2.0
	healthBonus     = 1.5

	// ownershipAmplifier multiplies owner-field hits when the query uses
	// ownership phrasing ("who owns", "working on"). Query-scoped only.
	ownershipAmplifier = 2.0
)

// DefaultAbbreviations expands common department shorthand before matching.
// Callers may supply their own mapping via NewScorerWithAbbreviations.
var DefaultAbbreviations = map[string]string{
	"eng":  "engineering",
	"mktg": "marketing",
	"fin":  "finance",
	"ops":  "operations",
	"hr":   "human resources",
	"cs":   "customer success",
}

// ownershipTokens flag queries asking who is responsible for something.
var ownershipTokens = map[string]struct{}{
	"own": {}, "owns": {}, "owner": {}, "owned": {}, "owning": {},
	"responsible": {}, "assigned": {}, "managing": {},
	"lead": {}, "leads": {}, "belong": {}, "belongs": {},
}

// healthPhrases maps multi-word colloquialisms to health statuses and is
// checked before single-token vocabulary.
var healthPhrases = []struct {
	phrase string
	health domain.HealthStatus
}{
	{"behind schedule", domain.HealthBehind},
	{"at risk", domain.HealthAtRisk},
	{"on track", domain.HealthOnTrack},
	{"not started", domain.HealthUnknown},
	{"not tracked", domain.HealthUnknown},
}

// healthVocabulary maps single tokens to health statuses. Statuses outside
// the four-value enum (exceeded, achieved) fold into on_track; untracked
// and pending fold into unknown.
var healthVocabulary = map[string]domain.HealthStatus{
	"behind": domain.HealthBehind, "delayed": domain.HealthBehind,
	"late": domain.HealthBehind, "overdue": domain.HealthBehind,
	"risk": domain.HealthAtRisk, "risky": domain.HealthAtRisk,
	"concern": domain.HealthAtRisk, "concerning": domain.HealthAtRisk,
	"yellow": domain.HealthAtRisk,
	"track":  domain.HealthOnTrack, "green": domain.HealthOnTrack,
	"progressing": domain.HealthOnTrack, "exceeded": domain.HealthOnTrack,
	"achieved": domain.HealthOnTrack, "ahead": domain.HealthOnTrack,
	"pending": domain.HealthUnknown, "untracked": domain.HealthUnknown,
}

// Scorer scores queries against records. It is immutable after construction
// and safe for concurrent use.
type Scorer struct {
	store         *store.Store
	abbreviations map[string]string
	ownerTokens   map[string]struct{}
	deptTokens    map[string]struct{}
}

// NewScorer builds a Scorer over the given store with default department
// abbreviations.
func NewScorer(st *store.Store) *Scorer {
	return NewScorerWithAbbreviations(st, DefaultAbbreviations)
}

// NewScorerWithAbbreviations builds a Scorer with an explicit abbreviation
// mapping.
func NewScorerWithAbbreviations(st *store.Store, abbreviations map[string]string) *Scorer {
	s := &Scorer{
		store:         st,
		abbreviations: abbreviations,
		ownerTokens:   make(map[string]struct{}),
		deptTokens:    make(map[string]struct{}),
	}
	for _, owner := range st.Owners() {
		for _, tok := range store.Tokenize(owner) {
			s.ownerTokens[tok] = struct{}{}
		}
	}
	for _, dept := range st.Departments() {
		for _, tok := range store.Tokenize(dept) {
			s.deptTokens[tok] = struct{}{}
		}
	}
	return s
}

// Score computes the keyword score and match reasons for one record. For a
// fixed query and store the output is exactly reproducible. Unknown tokens
// contribute nothing; an empty query is the only error.
func (s *Scorer) Score(query string, rec *domain.Record) (float64, []domain.MatchReason, error) {
	if strings.TrimSpace(query) == "" {
		return 0, nil, domain.ErrInvalidQuery
	}

	queryTokens := s.normalizeQuery(query)
	querySet := tokenSet(queryTokens)
	ownership := hasOwnershipPhrasing(query, querySet)
	queryHealths := detectHealths(query, querySet)

	var score float64
	var reasons []domain.MatchReason

	if rec.Owner != "" {
		ownerSet := tokenSet(store.Tokenize(rec.Owner))
		for tok := range querySet {
			if _, known := s.ownerTokens[tok]; !known {
				continue
			}
			if _, hit := ownerSet[tok]; hit {
				bonus := personBonus
				if ownership {
					bonus *= ownershipAmplifier
				}
				score += bonus
				reasons = appendReason(reasons, domain.ReasonPersonMatch)
				if ownership {
					reasons = appendReason(reasons, domain.ReasonOwnershipQuery)
				}
			}
		}
	}

	if rec.Department != "" {
		deptSet := tokenSet(store.Tokenize(rec.Department))
		for tok := range querySet {
			if _, known := s.deptTokens[tok]; !known {
				continue
			}
			if _, hit := deptSet[tok]; hit {
				score += departmentBonus
				reasons = appendReason(reasons, domain.ReasonDepartmentMatch)
			}
		}
	}

	if _, hit := queryHealths[rec.Health]; hit {
		score += healthBonus
		reasons = appendReason(reasons, domain.ReasonHealthMatch)
	}

	score += s.overlapScore(querySet, rec)

	return score, domain.SortReasons(reasons), nil
}

// DetectIntents classifies the query. Pure function of the query and the
// store's known owners/departments; no side effects.
func (s *Scorer) DetectIntents(query string) []domain.QueryIntent {
	querySet := tokenSet(s.normalizeQuery(query))

	var intents []domain.QueryIntent
	for tok := range querySet {
		if _, ok := s.ownerTokens[tok]; ok {
			intents = append(intents, domain.IntentPerson)
			break
		}
	}
	for tok := range querySet {
		if _, ok := s.deptTokens[tok]; ok {
			intents = append(intents, domain.IntentDepartment)
			break
		}
	}
	if len(detectHealths(query, querySet)) > 0 {
		intents = append(intents, domain.IntentHealth)
	}
	if hasOwnershipPhrasing(query, querySet) {
		intents = append(intents, domain.IntentOwnership)
	}
	if len(intents) == 0 {
		intents = append(intents, domain.IntentGeneral)
	}
	return intents
}

// overlapScore sums IDF weights of tokens shared between the query and the
// record's searchable text. Rare shared tokens are worth more.
func (s *Scorer) overlapScore(querySet map[string]struct{}, rec *domain.Record) float64 {
	docSet := tokenSet(store.Tokenize(rec.SearchableText()))

	shared := make([]string, 0, len(querySet))
	for tok := range querySet {
		if _, ok := docSet[tok]; ok {
			shared = append(shared, tok)
		}
	}
	// Summation order affects float results; sort for reproducibility.
	sort.Strings(shared)

	total := float64(s.store.Len())
	var score float64
	for _, tok := range shared {
		df := float64(s.store.DocFreq(tok))
		score += math.Log(1 + total/(1+df))
	}
	return score
}

// normalizeQuery tokenizes the query and expands known abbreviations.
func (s *Scorer) normalizeQuery(query string) []string {
	tokens := store.Tokenize(query)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if expansion, ok := s.abbreviations[tok]; ok {
			out = append(out, store.Tokenize(expansion)...)
			continue
		}
		out = append(out, tok)
	}
	return out
}

func hasOwnershipPhrasing(query string, querySet map[string]struct{}) bool {
	lowered := strings.ToLower(query)
	if strings.Contains(lowered, "who owns") ||
		strings.Contains(lowered, "working on") ||
		strings.Contains(lowered, "responsible for") {
		return true
	}
	for tok := range querySet {
		if _, ok := ownershipTokens[tok]; ok {
			return true
		}
	}
	return false
}

func detectHealths(query string, querySet map[string]struct{}) map[domain.HealthStatus]struct{} {
	healths := make(map[domain.HealthStatus]struct{})
	lowered := strings.ToLower(query)
	for _, p := range healthPhrases {
		if strings.Contains(lowered, p.phrase) {
			healths[p.health] = struct{}{}
		}
	}
	for tok := range querySet {
		if h, ok := healthVocabulary[tok]; ok {
			healths[h] = struct{}{}
		}
	}
	return healths
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func appendReason(reasons []domain.MatchReason, reason domain.MatchReason) []domain.MatchReason {
	for _, r := range reasons {
		if r == reason {
			return reasons
		}
	}
	return append(reasons, reason)
}
