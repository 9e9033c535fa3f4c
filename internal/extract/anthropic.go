// internal/extract/anthropic.go
package extract

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/pkg/models"
)

// anthropicAPI is the slice of the SDK the extractor needs. Tests substitute
// a fake.
type anthropicAPI interface {
	complete(ctx context.Context, model, system, user string, maxTokens int64) (string, error)
}

// AnthropicExtractor extracts structured data with the Anthropic Messages
// API.
type AnthropicExtractor struct {
	api    anthropicAPI
	apiKey string
	model  string
}

// NewAnthropicExtractor creates an extractor backed by the official SDK.
// model may be empty to use the provider default.
func NewAnthropicExtractor(apiKey, model string) *AnthropicExtractor {
	if model == "" {
		model = ProviderAnthropic.DefaultModel()
	}
	return &AnthropicExtractor{
		api:    &anthropicSDK{client: sdk.NewClient(option.WithAPIKey(apiKey))},
		apiKey: apiKey,
		model:  model,
	}
}

func (e *AnthropicExtractor) ProviderTag() string {
	return string(ProviderAnthropic) + "/" + e.model
}

func (e *AnthropicExtractor) MaxContentLength() int {
	return ProviderAnthropic.Capabilities().MaxContentLength
}

func (e *AnthropicExtractor) ValidateCredentials() error {
	if strings.TrimSpace(e.apiKey) == "" {
		return fmt.Errorf("%w: anthropic", ErrMissingAPIKey)
	}
	return nil
}

func (e *AnthropicExtractor) Extract(ctx context.Context, content string, schema models.Schema, opts Options) (map[string]any, error) {
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
		Str("provider", string(ProviderAnthropic)).
		Str("model", model).
		Int("content_len", len(content)).
		Int("fields", len(schema)).
		Msg("Requesting extraction")

	text, err := e.api.complete(ctx, model, systemPrompt, prompt, ProviderAnthropic.Capabilities().MaxOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	data, err := parseResponse(text, schema)
	if err != nil {
		return nil, fmt.Errorf("anthropic response: %w", err)
	}
	return data, nil
}

// anthropicSDK adapts the official client to the narrow anthropicAPI surface.
type anthropicSDK struct {
	client sdk.Client
}

func (s *anthropicSDK) complete(ctx context.Context, model, system, user string, maxTokens int64) (string, error) {
	msg, err := s.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: maxTokens,
		System: []sdk.TextBlockParam{
			{Text: system},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty completion (stop reason %q)", msg.StopReason)
	}
	return b.String(), nil
}
