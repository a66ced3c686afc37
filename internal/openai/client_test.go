package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/goalsight/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	embedding []float32
	text      string
	err       error
	calls     int
}

func (m *mockAPI) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	m.calls++
	if m.err != nil {
		return openai.EmbeddingResponse{}, m.err
	}
	return openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: m.embedding}},
	}, nil
}

func (m *mockAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.text}},
		},
	}, nil
}

func newTestClient(api API) *Client {
	return &Client{api: api, model: DefaultEmbeddingModel, dimensions: 4}
}

func TestEmbed_Success(t *testing.T) {
	api := &mockAPI{embedding: []float32{0.1, 0.2, 0.3, 0.4}}
	c := newTestClient(api)

	got, err := c.Embed(context.Background(), "quarterly goals")
	require.NoError(t, err)
	assert.Equal(t, api.embedding, got)
	assert.Equal(t, 1, api.calls)
}

func TestEmbed_EmptyText(t *testing.T) {
	c := newTestClient(&mockAPI{})

	_, err := c.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestEmbed_WrongDimensions(t *testing.T) {
	c := newTestClient(&mockAPI{embedding: []float32{0.1, 0.2}})

	_, err := c.Embed(context.Background(), "goals")
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestComplete_Success(t *testing.T) {
	c := newTestClient(&mockAPI{text: "Two goals are at risk."})

	got, err := c.Complete(context.Background(), "gpt-4o-mini", "You are an analyst.", "What is at risk?", 1200, 0.1)
	require.NoError(t, err)
	assert.Equal(t, "Two goals are at risk.", got)
}

func TestComplete_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401}, domain.ErrCodeConfiguration},
		{"forbidden", &openai.APIError{HTTPStatusCode: 403}, domain.ErrCodeConfiguration},
		{"unknown model", &openai.APIError{HTTPStatusCode: 404}, domain.ErrCodeConfiguration},
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, domain.ErrCodeUpstreamUnavailable},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, domain.ErrCodeUpstreamUnavailable},
		{"timeout", context.DeadlineExceeded, domain.ErrCodeUpstreamUnavailable},
		{"other", errors.New("connection reset"), domain.ErrCodeUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&mockAPI{err: tt.err})
			_, err := c.Complete(context.Background(), "gpt-4o-mini", "sys", "prompt", 100, 0)
			assert.True(t, domain.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(Config{APIKey: "sk-test"})
	assert.Equal(t, DefaultEmbeddingDimensions, c.dimensions)
	assert.Equal(t, DefaultEmbeddingModel, c.model)
}
