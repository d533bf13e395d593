package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

const openAISystemPrompt = "You are a Mandarin Chinese teacher writing flashcards for English-speaking learners. Use pinyin with tone marks and keep example sentences short and simple."

// OpenAIClient enriches terms with OpenAI chat completions
type OpenAIClient struct {
	apiKey string
	client *openai.Client
	config *Config
	model  string
}

// NewOpenAIClient creates a new OpenAI enricher
func NewOpenAIClient(config *Config) (*OpenAIClient, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIClient{
		apiKey: config.OpenAIKey,
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		model:  model,
	}, nil
}

// Name returns the provider name
func (o *OpenAIClient) Name() string {
	return "openai"
}

// Enrich fetches details for a single term
func (o *OpenAIClient) Enrich(ctx context.Context, term string) (vocab.WordDetails, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return vocab.WordDetails{}, fmt.Errorf("%w: empty term", ErrEnrichment)
	}

	text, err := o.complete(ctx, singlePrompt(term), "word_details", openAIDetailsSchema(false))
	if err != nil {
		return vocab.WordDetails{}, err
	}
	return parseDetails(text)
}

// EnrichChunk fetches details for several terms in one request. Strict
// JSON schemas need an object root, so rows are wrapped under "words".
func (o *OpenAIClient) EnrichChunk(ctx context.Context, terms []string) ([]vocab.DetailedWord, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	item := openAIDetailsSchema(true)
	schema := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"words": {Type: jsonschema.Array, Items: &item},
		},
		Required:             []string{"words"},
		AdditionalProperties: false,
	}

	text, err := o.complete(ctx, chunkPrompt(terms), "word_details_list", schema)
	if err != nil {
		return nil, err
	}
	return parseChunk(text)
}

func (o *OpenAIClient) complete(ctx context.Context, prompt, schemaName string, schema jsonschema.Definition) (string, error) {
	ctx, cancel := withTimeout(ctx, o.config.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: openAISystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: &schema,
				Strict: true,
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: OpenAI API error: %w", ErrNetwork, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no response from OpenAI", ErrEnrichment)
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIDetailsSchema(withCharacter bool) jsonschema.Definition {
	def := jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           map[string]jsonschema.Definition{},
		AdditionalProperties: false,
	}
	if withCharacter {
		def.Properties[fieldCharacter] = jsonschema.Definition{Type: jsonschema.String, Description: fieldDescriptions[fieldCharacter]}
		def.Required = append(def.Required, fieldCharacter)
	}
	for _, f := range detailFields {
		def.Properties[f] = jsonschema.Definition{Type: jsonschema.String, Description: fieldDescriptions[f]}
		def.Required = append(def.Required, f)
	}
	return def
}
