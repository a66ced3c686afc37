package rag

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/goalsight/internal/domain"
)

const (
	snippetSeparator    = "\n---\n"
	descriptionExcerpt  = 200
	degradedResultLimit = 5
)

// answerContext is the rendered, budget-bounded context for one answer
// request. It lives only for the duration of the request.
type answerContext struct {
	text      string
	snippets  []snippet
	sourceIDs []string
}

type snippet struct {
	recordID string
	text     string
}

// buildContext renders each candidate into a compact snippet and
// concatenates them under the character budget. When the budget is
// exceeded, the lowest-ranked snippets are dropped whole; a snippet is
// never cut mid-way.
func (o *Orchestrator) buildContext(candidates []*domain.ScoredCandidate) *answerContext {
	snippets := make([]snippet, 0, len(candidates))
	for _, c := range candidates {
		rec, err := o.store.Get(c.RecordID)
		if err != nil {
			continue
		}
		snippets = append(snippets, snippet{recordID: rec.ID, text: renderSnippet(rec)})
	}

	if o.cfg.ContextBudget > 0 {
		total := 0
		kept := 0
		for _, s := range snippets {
			cost := len(s.text)
			if kept > 0 {
				cost += len(snippetSeparator)
			}
			if total+cost > o.cfg.ContextBudget {
				break
			}
			total += cost
			kept++
		}
		snippets = snippets[:kept]
	}

	parts := make([]string, 0, len(snippets))
	ids := make([]string, 0, len(snippets))
	for _, s := range snippets {
		parts = append(parts, s.text)
		ids = append(ids, s.recordID)
	}

	return &answerContext{
		text:      strings.Join(parts, snippetSeparator),
		snippets:  snippets,
		sourceIDs: ids,
	}
}

func renderSnippet(rec *domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", kindLabel(rec.Kind), rec.Title)
	if rec.Owner != "" {
		fmt.Fprintf(&b, " (owned by %s)", rec.Owner)
	}
	b.WriteString("\n")
	if rec.Department != "" {
		fmt.Fprintf(&b, "- Department: %s\n", rec.Department)
	}
	fmt.Fprintf(&b, "- Health: %s\n", healthLabel(rec.Health))
	if rec.EndDate != nil {
		fmt.Fprintf(&b, "- Due: %s\n", rec.EndDate.Format("2006-01-02"))
	}
	if rec.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", excerpt(rec.Description, descriptionExcerpt))
	}
	if rec.LastUpdate != "" {
		fmt.Fprintf(&b, "- Last update: %s\n", excerpt(rec.LastUpdate, descriptionExcerpt))
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildPrompt(query, contextText string) string {
	if contextText == "" {
		contextText = "No relevant goals or milestones found."
	}
	return fmt.Sprintf(`Based on the following goals and milestones data, please answer the user's question.

CONTEXT DATA:
%s

USER QUESTION: %s

Please provide a concise answer that:
1. References goals by their actual titles and owners
2. Summarizes key issues and current status
3. Identifies patterns across the data
4. Suggests actionable next steps

Answer:`, contextText, query)
}

// degradedText assembles a search-only answer used when the language model
// is unavailable.
func degradedText(snippets []snippet) string {
	var b strings.Builder
	b.WriteString(DegradedMarker)
	b.WriteString(" Showing the most relevant results instead:\n\n")
	limit := len(snippets)
	if limit > degradedResultLimit {
		limit = degradedResultLimit
	}
	for _, s := range snippets[:limit] {
		b.WriteString(s.text)
		b.WriteString(snippetSeparator)
	}
	return strings.TrimSuffix(b.String(), snippetSeparator)
}

func excerpt(text string, max int) string {
	clean := strings.Join(strings.Fields(text), " ")
	if len(clean) <= max {
		return clean
	}
	return clean[:max-3] + "..."
}

func kindLabel(k domain.RecordKind) string {
	if k == domain.RecordKindMilestone {
		return "Milestone"
	}
	return "Goal"
}

func healthLabel(h domain.HealthStatus) string {
	switch h {
	case domain.HealthOnTrack:
		return "On track"
	case domain.HealthAtRisk:
		return "At risk"
	case domain.HealthBehind:
		return "Behind"
	default:
		return "Unknown"
	}
}
