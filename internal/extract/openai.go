// internal/extract/openai.go
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/pkg/models"
)

type openaiAPI interface {
	complete(ctx context.Context, model, system, user string, maxTokens int64) (string, error)
}

// OpenAIExtractor extracts structured data with the OpenAI Chat Completions
// API. baseURL may point at a compatible proxy.
type OpenAIExtractor struct {
	api    openaiAPI
	apiKey string
	model  string
}

// NewOpenAIExtractor creates an extractor backed by the official SDK.
func NewOpenAIExtractor(apiKey, model, baseURL string) *OpenAIExtractor {
	if model == "" {
		model = ProviderOpenAI.DefaultModel()
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIExtractor{
		api:    &openaiSDK{client: openai.NewClient(opts...)},
		apiKey: apiKey,
		model:  model,
	}
}

func (e *OpenAIExtractor) ProviderTag() string {
	return string(ProviderOpenAI) + "/" + e.model
}

func (e *OpenAIExtractor) MaxContentLength() int {
	return ProviderOpenAI.Capabilities().MaxContentLength
}

func (e *OpenAIExtractor) ValidateCredentials() error {
	if strings.TrimSpace(e.apiKey) == "" {
		return fmt.Errorf("%w: openai", ErrMissingAPIKey)
	}
	return nil
}

func (e *OpenAIExtractor) Extract(ctx context.Context, content string, schema models.Schema, opts Options) (map[string]any, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if err := e.ValidateCredentials(); err != nil {
		return nil, err
	}

	model := e.model
	if opts.Model != "" {
		model = opts.Model
	}

	content = truncateContent(content, e.MaxContentLength())
	prompt := buildPrompt(content, schema, opts.Instructions)

	log.Debug().
		Str("provider", string(ProviderOpenAI)).
		Str("model", model).
		Int("content_len", len(content)).
		Int("fields", len(schema)).
		Msg("Requesting extraction")

	text, err := e.api.complete(ctx, model, systemPrompt, prompt, ProviderOpenAI.Capabilities().MaxOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}

	data, err := parseResponse(text, schema)
	if err != nil {
		return nil, fmt.Errorf("openai response: %w", err)
	}
	return data, nil
}

type openaiSDK struct {
	client openai.Client
}

func (s *openaiSDK) complete(ctx context.Context, model, system, user string, maxTokens int64) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
