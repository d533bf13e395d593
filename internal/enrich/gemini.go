package enrich

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient enriches terms with the Gemini API
type GeminiClient struct {
	client *genai.Client
	config *Config
	model  string
}

// NewGeminiClient creates a new Gemini enricher
func NewGeminiClient(ctx context.Context, config *Config) (*GeminiClient, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiClient{
		client: client,
		config: config,
		model:  model,
	}, nil
}

// Name returns the provider name
func (g *GeminiClient) Name() string {
	return "gemini"
}

// Enrich fetches details for a single term
func (g *GeminiClient) Enrich(ctx context.Context, term string) (vocab.WordDetails, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return vocab.WordDetails{}, fmt.Errorf("%w: empty term", ErrEnrichment)
	}

	text, err := g.generate(ctx, singlePrompt(term), detailsSchema())
	if err != nil {
		return vocab.WordDetails{}, err
	}
	return parseDetails(text)
}

// EnrichChunk fetches details for several terms in one request
func (g *GeminiClient) EnrichChunk(ctx context.Context, terms []string) ([]vocab.DetailedWord, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	text, err := g.generate(ctx, chunkPrompt(terms), &genai.Schema{
		Type:  genai.TypeArray,
		Items: chunkItemSchema(),
	})
	if err != nil {
		return nil, err
	}
	return parseChunk(text)
}

func (g *GeminiClient) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	ctx, cancel := withTimeout(ctx, g.config.Timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		Temperature:      genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", fmt.Errorf("%w: Gemini API error: %w", ErrNetwork, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no response from Gemini", ErrEnrichment)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no response from Gemini", ErrEnrichment)
	}
	return text, nil
}

func detailsSchema() *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
		Required:   append([]string(nil), detailFields...),
	}
	for _, f := range detailFields {
		schema.Properties[f] = &genai.Schema{Type: genai.TypeString, Description: fieldDescriptions[f]}
	}
	return schema
}

func chunkItemSchema() *genai.Schema {
	schema := detailsSchema()
	schema.Properties[fieldCharacter] = &genai.Schema{Type: genai.TypeString, Description: fieldDescriptions[fieldCharacter]}
	schema.Required = append([]string{fieldCharacter}, schema.Required...)
	return schema
}
