// Package rag turns ranked search results into a grounded natural-language
// answer, with multi-tier model fallback and retry semantics.
package rag

import (
	"context"
	"log"
	"time"

	"github.com/cloo-solutions/goalsight/internal/domain"
	"github.com/cloo-solutions/goalsight/internal/store"
)

// State enumerates the answer request lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateContextBuilt State = "context_built"
	StateModelCalled  State = "model_called"
	StateSucceeded    State = "succeeded"
	StateRetrying     State = "retrying"
	StateDegraded     State = "degraded"
	StateFailed       State = "failed"
)

// DegradedMarker prefixes answers assembled without the language model so
// callers can surface the degradation explicitly.
const DegradedMarker = "AI analysis unavailable."

const systemPrompt = "You are a helpful business analyst assistant. Analyze goal and project data to provide actionable insights."

// ChatClient is the external LLM boundary. Errors must carry the domain
// taxonomy so the orchestrator can tell transient failures from
// configuration problems.
type ChatClient interface {
	Complete(ctx context.Context, model, system, prompt string, maxTokens int, temperature float32) (string, error)
}

// Ranker is the retrieval boundary.
type Ranker interface {
	Rank(ctx context.Context, query string, k int) ([]*domain.ScoredCandidate, error)
}

// Config controls context building and the retry/fallback policy.
type Config struct {
	TopK             int
	ContextBudget    int // characters
	MaxTokens        int
	Temperature      float32
	RetryCount       int
	RetryBackoffBase time.Duration
	PrimaryModel     string
	FallbackModel    string
	RequestTimeout   time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		TopK:             5,
		ContextBudget:    6000,
		MaxTokens:        1200,
		Temperature:      0.1,
		RetryCount:       3,
		RetryBackoffBase: time.Second,
		PrimaryModel:     "llama-3.3-70b-versatile",
		FallbackModel:    "llama-3.1-8b-instant",
		RequestTimeout:   30 * time.Second,
	}
}

// Answer is the outcome of one answer request. SourceIDs lists the records
// the context was built from, enabling traceability.
type Answer struct {
	Text      string
	SourceIDs []string
	Model     string
	Degraded  bool
	State     State
}

// Orchestrator drives one answer request at a time. It holds no cross-query
// mutable state; every request gets its own context and state machine.
type Orchestrator struct {
	ranker Ranker
	llm    ChatClient
	store  *store.Store
	cfg    Config
	sleep  func(time.Duration)
}

// New creates an Orchestrator. llm may be nil when no API key is configured;
// Answer then fails fast with a configuration error.
func New(ranker Ranker, llm ChatClient, st *store.Store, cfg Config) *Orchestrator {
	return &Orchestrator{
		ranker: ranker,
		llm:    llm,
		store:  st,
		cfg:    cfg,
		sleep:  time.Sleep,
	}
}

// request tracks the state machine for a single answer request.
type request struct {
	state State
}

func (r *request) transition(next State) {
	r.state = next
}

// Answer runs the full state machine for one query:
// Idle -> ContextBuilt -> ModelCalled -> {Succeeded, Retrying, Degraded, Failed}.
func (o *Orchestrator) Answer(ctx context.Context, query string) (*Answer, error) {
	req := &request{state: StateIdle}

	if o.llm == nil {
		req.transition(StateFailed)
		return nil, domain.ErrMissingAPIKey
	}

	candidates, err := o.ranker.Rank(ctx, query, o.cfg.TopK)
	if err != nil {
		req.transition(StateFailed)
		return nil, err
	}

	if len(candidates) == 0 {
		// valid empty retrieval: nothing to ground an answer in
		return &Answer{
			Text:  "I couldn't find any relevant goals or milestones for your query.",
			State: StateSucceeded,
		}, nil
	}

	answerCtx := o.buildContext(candidates)
	req.transition(StateContextBuilt)

	text, model, err := o.callWithFallback(ctx, req, buildPrompt(query, answerCtx.text))
	if err != nil {
		if domain.IsCode(err, domain.ErrCodeConfiguration) {
			req.transition(StateFailed)
			return nil, err
		}
		req.transition(StateDegraded)
		return &Answer{
			Text:      degradedText(answerCtx.snippets),
			SourceIDs: answerCtx.sourceIDs,
			Degraded:  true,
			State:     req.state,
		}, nil
	}

	req.transition(StateSucceeded)
	return &Answer{
		Text:      text,
		SourceIDs: answerCtx.sourceIDs,
		Model:     model,
		State:     req.state,
	}, nil
}

// callWithFallback tries the primary model with retries and exponential
// backoff, then the fallback model with a fresh retry counter. Configuration
// errors abort immediately; exhausting both tiers reports the last transient
// failure so the caller can degrade.
func (o *Orchestrator) callWithFallback(ctx context.Context, req *request, prompt string) (string, string, error) {
	var lastErr error
	for _, model := range []string{o.cfg.PrimaryModel, o.cfg.FallbackModel} {
		if model == "" {
			continue
		}
		text, err := o.callModel(ctx, req, model, prompt)
		if err == nil {
			return text, model, nil
		}
		if domain.IsCode(err, domain.ErrCodeConfiguration) {
			return "", "", err
		}
		lastErr = err
		log.Printf("model %s exhausted retries: %v", model, err)
	}
	return "", "", lastErr
}

func (o *Orchestrator) callModel(ctx context.Context, req *request, model, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < o.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			backoff := o.cfg.RetryBackoffBase << (attempt - 1)
			o.sleep(backoff)
		}

		callCtx := ctx
		if o.cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
			defer cancel()
		}

		req.transition(StateModelCalled)
		text, err := o.llm.Complete(callCtx, model, systemPrompt, prompt, o.cfg.MaxTokens, o.cfg.Temperature)
		if err == nil {
			return text, nil
		}
		if domain.IsCode(err, domain.ErrCodeConfiguration) {
			return "", err
		}
		lastErr = err
		req.transition(StateRetrying)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
	}
	return "", lastErr
}
