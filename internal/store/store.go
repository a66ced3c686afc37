// Package store holds the flattened goal/milestone records loaded from the
// exported dataset, plus the derived lookup data (known owners, departments,
// token document frequencies) that keyword scoring needs.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cloo-solutions/goalsight/internal/domain"
)

// Store is an immutable, in-memory view of the record collection. It is
// built once at startup and shared read-only across queries.
type Store struct {
	records     []*domain.Record
	byID        map[string]*domain.Record
	owners      []string
	departments []string
	docFreq     map[string]int
}

// New builds a Store from validated records. It rejects duplicate ids and
// milestones whose parent goal is missing; full referential integrity is the
// ingestion pipeline's responsibility.
func New(records []*domain.Record) (*Store, error) {
	byID := make(map[string]*domain.Record, len(records))
	for _, r := range records {
		r.Health = domain.NormalizeHealth(r.Health)
		if err := domain.ValidateRecord(r); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid record", err)
		}
		if _, exists := byID[r.ID]; exists {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("duplicate record id: %s", r.ID))
		}
		byID[r.ID] = r
	}

	for _, r := range records {
		if r.Kind != domain.RecordKindMilestone {
			continue
		}
		parent, ok := byID[r.ParentID]
		if !ok || parent.Kind != domain.RecordKindGoal {
			return nil, domain.NewDomainError(domain.ErrCodeValidation,
				fmt.Sprintf("milestone %s references missing goal %s", r.ID, r.ParentID))
		}
	}

	s := &Store{
		records: records,
		byID:    byID,
		docFreq: make(map[string]int),
	}

	ownerSet := make(map[string]struct{})
	deptSet := make(map[string]struct{})
	for _, r := range records {
		if r.Owner != "" {
			ownerSet[r.Owner] = struct{}{}
		}
		if r.Department != "" {
			deptSet[r.Department] = struct{}{}
		}
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(r.SearchableText()) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			s.docFreq[tok]++
		}
	}

	s.owners = sortedKeys(ownerSet)
	s.departments = sortedKeys(deptSet)

	return s, nil
}

// LoadFile reads a flattened JSON export of records and builds a Store.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var records []*domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records file: %w", err)
	}

	return New(records)
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (*domain.Record, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return r, nil
}

// All returns every record in stable (load) order.
func (s *Store) All() []*domain.Record {
	return s.records
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Owners returns the distinct owner names, sorted.
func (s *Store) Owners() []string {
	return s.owners
}

// Departments returns the distinct department names, sorted.
func (s *Store) Departments() []string {
	return s.departments
}

// DocFreq returns how many records contain the token in their searchable text.
func (s *Store) DocFreq(token string) int {
	return s.docFreq[token]
}

// Tokenize lower-cases text, strips possessive suffixes and splits on
// non-alphanumeric runes. Keyword scoring and document-frequency counting
// must agree on this tokenization.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	lowered = strings.ReplaceAll(lowered, "’", "'")
	lowered = strings.ReplaceAll(lowered, "'s", "")

	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !isAlphanumeric(r)
	})
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
