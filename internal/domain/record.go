package domain

import (
	"fmt"
	"strings"
	"time"
)

// RecordKind distinguishes goals from their milestones
type RecordKind string

const (
	RecordKindGoal      RecordKind = "goal"
	RecordKindMilestone RecordKind = "milestone"
)

// HealthStatus represents the reported health of a goal or milestone
type HealthStatus string

const (
	HealthOnTrack HealthStatus = "on_track"
	HealthAtRisk  HealthStatus = "at_risk"
	HealthBehind  HealthStatus = "behind"
	HealthUnknown HealthStatus = "unknown"
)

// Record is one flattened goal or milestone from the exported dataset.
// Optional fields use the empty string / nil to mean "not set".
type Record struct {
	ID          string       `json:"id"`
	Kind        RecordKind   `json:"kind"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Owner       string       `json:"owner,omitempty"`
	Department  string       `json:"department,omitempty"`
	Health      HealthStatus `json:"health"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	LastUpdate  string       `json:"last_update,omitempty"`
	ParentID    string       `json:"parent_id,omitempty"`
}

// SearchableText returns the deterministic concatenation of a record's text
// fields used for both embedding and keyword scoring. It is a pure function
// of the record.
func (r *Record) SearchableText() string {
	parts := []string{
		r.Title,
		r.Description,
		r.Owner,
		r.Department,
		string(r.Health),
		r.LastUpdate,
	}

	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, " ")
}

// ValidateRecord validates a Record instance
func ValidateRecord(r *Record) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	if r.Title == "" {
		return fmt.Errorf("record Title is required")
	}

	if !isValidRecordKind(r.Kind) {
		return fmt.Errorf("record Kind is invalid: %s", r.Kind)
	}

	if !isValidHealthStatus(r.Health) {
		return fmt.Errorf("record Health is invalid: %s", r.Health)
	}

	if r.Kind == RecordKindMilestone && r.ParentID == "" {
		return fmt.Errorf("milestone %s must reference a parent goal", r.ID)
	}

	if r.Kind == RecordKindGoal && r.ParentID != "" {
		return fmt.Errorf("goal %s cannot have a parent", r.ID)
	}

	return nil
}

func isValidRecordKind(k RecordKind) bool {
	switch k {
	case RecordKindGoal, RecordKindMilestone:
		return true
	}
	return false
}

// NormalizeHealth folds empty or unrecognized health values to HealthUnknown.
// The upstream export is not schema-checked, so ingestion folds rather than
// rejects.
func NormalizeHealth(h HealthStatus) HealthStatus {
	if isValidHealthStatus(h) {
		return h
	}
	return HealthUnknown
}

func isValidHealthStatus(h HealthStatus) bool {
	switch h {
	case HealthOnTrack, HealthAtRisk, HealthBehind, HealthUnknown:
		return true
	}
	return false
}
