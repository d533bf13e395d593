package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// Error classes returned by every Enricher. Callers match them with
// errors.Is; the underlying cause stays wrapped.
var (
	// ErrNetwork means the request never produced a response.
	ErrNetwork = errors.New("enrichment request failed")
	// ErrEnrichment means the service answered without usable content.
	ErrEnrichment = errors.New("no usable response from enrichment service")
	// ErrParse means the structured output did not match the schema.
	ErrParse = errors.New("malformed enrichment response")
)

// Enricher looks up details for Chinese terms.
type Enricher interface {
	// Enrich returns the details for a single term.
	Enrich(ctx context.Context, term string) (vocab.WordDetails, error)

	// EnrichChunk issues one request for all terms and returns one row
	// per term the service answered for.
	EnrichChunk(ctx context.Context, terms []string) ([]vocab.DetailedWord, error)

	// Name returns the provider name
	Name() string
}

// Config holds provider configuration
type Config struct {
	Provider string // "gemini" or "openai"
	Model    string // empty selects the provider default

	GeminiKey string
	OpenAIKey string

	// BaseURL overrides the provider endpoint (proxies, tests).
	BaseURL string

	// Timeout bounds a single request. Zero leaves it to the transport.
	Timeout time.Duration

	// BreakerFailures opens the circuit after this many consecutive
	// failed requests. Zero disables the breaker.
	BreakerFailures uint32

	Logger *slog.Logger
}

// DefaultConfig returns the default provider configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:        "gemini",
		BreakerFailures: 5,
	}
}

// NewProvider creates the enricher selected by config, wrapped in a
// circuit breaker when BreakerFailures is set.
func NewProvider(ctx context.Context, config *Config) (Enricher, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var (
		provider Enricher
		err      error
	)
	switch config.Provider {
	case "gemini", "":
		provider, err = NewGeminiClient(ctx, config)
	case "openai":
		provider, err = NewOpenAIClient(config)
	default:
		return nil, fmt.Errorf("unknown enrichment provider: %s", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	if config.BreakerFailures > 0 {
		provider = NewBreaker(provider, config.BreakerFailures, config.Logger)
	}
	return provider, nil
}

// withTimeout applies d to ctx when it is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
