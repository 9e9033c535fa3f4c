// internal/extract/provider.go
package extract

import "fmt"

// Provider identifies an AI backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ParseProvider validates a provider name from config or CLI flags.
func ParseProvider(name string) (Provider, error) {
	switch Provider(name) {
	case ProviderAnthropic, ProviderOpenAI:
		return Provider(name), nil
	default:
		return "", fmt.Errorf("unknown provider %q (supported: anthropic, openai)", name)
	}
}

// ModelCapabilities describes what a provider's models can handle.
type ModelCapabilities struct {
	DefaultModel     string
	MaxContentLength int
	MaxOutputTokens  int64
}

var providerCapabilities = map[Provider]ModelCapabilities{
	ProviderAnthropic: {
		DefaultModel:     "claude-sonnet-4-5-20250929",
		MaxContentLength: 150_000,
		MaxOutputTokens:  4096,
	},
	ProviderOpenAI: {
		DefaultModel:     "gpt-4o-mini",
		MaxContentLength: 100_000,
		MaxOutputTokens:  4096,
	},
}

// Capabilities returns the capability table entry for p.
func (p Provider) Capabilities() ModelCapabilities {
	return providerCapabilities[p]
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	return providerCapabilities[p].DefaultModel
}
