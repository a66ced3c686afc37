package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// RecordsPath is the JSON file the record store loads on startup.
	RecordsPath string `envconfig:"RECORDS_PATH" default:"data/records.json"`

	// DatabaseURL enables the pgvector-backed index and search logging
	// when set; the in-memory index is used otherwise.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	// LLM settings target any OpenAI-compatible chat endpoint.
	LLMAPIKey     string `envconfig:"LLM_API_KEY"`
	LLMBaseURL    string `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1"`
	PrimaryModel  string `envconfig:"PRIMARY_MODEL" default:"llama-3.3-70b-versatile"`
	FallbackModel string `envconfig:"FALLBACK_MODEL" default:"llama-3.1-8b-instant"`

	SemanticWeight       float64 `envconfig:"SEMANTIC_WEIGHT" default:"0.6"`
	KeywordWeight        float64 `envconfig:"KEYWORD_WEIGHT" default:"0.4"`
	MinScoreThreshold    float64 `envconfig:"MIN_SCORE_THRESHOLD" default:"0.05"`
	OversampleFactor     int     `envconfig:"OVERSAMPLE_FACTOR" default:"3"`
	KDefault             int     `envconfig:"K_DEFAULT" default:"10"`
	AllowKeywordFallback bool    `envconfig:"ALLOW_KEYWORD_FALLBACK" default:"false"`

	RetryCount            int `envconfig:"RETRY_COUNT" default:"3"`
	RetryBackoffBaseMs    int `envconfig:"RETRY_BACKOFF_BASE_MS" default:"1000"`
	RequestTimeoutSeconds int `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"30"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GOALSIGHT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.SemanticWeight < 0 || c.KeywordWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if c.SemanticWeight+c.KeywordWeight == 0 {
		return fmt.Errorf("at least one search weight must be positive")
	}
	if c.OversampleFactor < 1 {
		return fmt.Errorf("oversample factor must be at least 1")
	}
	if c.KDefault < 1 {
		return fmt.Errorf("default result count must be at least 1")
	}
	return nil
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}

func (c *Config) RetryBackoffBase() time.Duration {
	return time.Duration(c.RetryBackoffBaseMs) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
