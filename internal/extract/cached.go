// internal/extract/cached.go
package extract

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/internal/cache"
	"github.com/pagelift/pagelift/pkg/models"
)

// CachedExtractor memoizes extraction results. Identical content, schema,
// instructions and model hit the cache instead of the provider, which makes
// re-runs over overlapping URL sets nearly free.
type CachedExtractor struct {
	inner Extractor
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedExtractor wraps inner with a result cache. A nil cache disables
// memoization and passes every call through.
func NewCachedExtractor(inner Extractor, c cache.Cache, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{inner: inner, cache: c, ttl: ttl}
}

func (e *CachedExtractor) ProviderTag() string        { return e.inner.ProviderTag() }
func (e *CachedExtractor) MaxContentLength() int      { return e.inner.MaxContentLength() }
func (e *CachedExtractor) ValidateCredentials() error { return e.inner.ValidateCredentials() }

func (e *CachedExtractor) Extract(ctx context.Context, content string, schema models.Schema, opts Options) (map[string]any, error) {
	if e.cache == nil {
		return e.inner.Extract(ctx, content, schema, opts)
	}

	key := cache.Key(content, schema, opts.Instructions, e.modelFor(opts))
	if entry, ok := e.cache.Get(key); ok {
		log.Debug().Str("provider", entry.ProviderTag).Msg("Extraction cache hit")
		return entry.Data, nil
	}

	data, err := e.inner.Extract(ctx, content, schema, opts)
	if err != nil {
		return nil, err
	}

	if err := e.cache.Set(key, &cache.Entry{Data: data, ProviderTag: e.inner.ProviderTag()}, e.ttl); err != nil {
		log.Warn().Err(err).Msg("Failed to cache extraction result")
	}
	return data, nil
}

func (e *CachedExtractor) modelFor(opts Options) string {
	if opts.Model != "" {
		return opts.Model
	}
	return e.inner.ProviderTag()
}
