// internal/extract/extractor.go

// Package extract turns page content into structured data using an AI
// provider. Each provider implements the Extractor interface; CachedExtractor
// wraps any of them with an LRU result cache.
package extract

import (
	"context"
	"errors"

	"github.com/pagelift/pagelift/pkg/models"
)

// ErrEmptyContent is returned when there is nothing to extract from.
var ErrEmptyContent = errors.New("no content to extract from")

// ErrMissingAPIKey is returned when a provider has no credentials.
var ErrMissingAPIKey = errors.New("API key not configured")

// Options carries per-request extraction parameters.
type Options struct {
	// Model overrides the provider's default model when non-empty.
	Model string
	// Instructions are appended to the prompt to steer extraction.
	Instructions string
}

// Extractor maps page content onto a field schema.
type Extractor interface {
	// Extract returns one value per schema field, keyed by field name.
	Extract(ctx context.Context, content string, schema models.Schema, opts Options) (map[string]any, error)

	// ProviderTag identifies the backend (e.g. "anthropic/claude-sonnet-4-5")
	// for result attribution.
	ProviderTag() string

	// MaxContentLength is the largest content size the backend accepts;
	// callers truncate before Extract.
	MaxContentLength() int

	// ValidateCredentials checks that the extractor can authenticate,
	// without making a network call.
	ValidateCredentials() error
}

// truncateContent clips content to the provider's limit.
func truncateContent(content string, limit int) string {
	if limit > 0 && len(content) > limit {
		return content[:limit]
	}
	return content
}
