// Package openai wraps the OpenAI-compatible API used for both embedding
// generation and chat completion. A custom base URL lets the same client
// talk to compatible providers.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/cloo-solutions/goalsight/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from text-embedding-3-small
	DefaultEmbeddingDimensions = 1536
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when the API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// API defines the subset of the upstream client the wrapper needs
type API interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds client configuration
type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
}

// Client wraps the OpenAI-compatible API client
type Client struct {
	api        API
	model      openai.EmbeddingModel
	dimensions int
}

// NewClient creates a new client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:        openai.NewClientWithConfig(clientCfg),
		model:      model,
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Embed generates an embedding for the given text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("failed to create embedding: %w", err))
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// Complete issues a chat completion against the given model and returns the
// generated text. Errors are wrapped with the domain taxonomy so callers can
// distinguish transient failures from configuration problems.
func (c *Client) Complete(ctx context.Context, model, system, prompt string, maxTokens int, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewDomainError(domain.ErrCodeUpstreamUnavailable, "model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// classify maps upstream errors onto the domain taxonomy. Authentication and
// bad-model failures are configuration errors and must not be retried;
// rate limits, server errors, timeouts and network failures are transient.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return domain.NewDomainErrorWithCause(domain.ErrCodeConfiguration, "LLM rejected credentials", err)
		case apiErr.HTTPStatusCode == 404:
			return domain.NewDomainErrorWithCause(domain.ErrCodeConfiguration, "LLM model not found", err)
		case apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500:
			return domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "LLM temporarily unavailable", err)
		default:
			return domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "LLM request failed", err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "LLM request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "network failure reaching LLM", err)
	}

	return domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamUnavailable, "LLM request failed", err)
}
