// internal/pipeline/pipeline.go

// Package pipeline orchestrates one URL's journey from fetch to structured
// data: strategy selection, retry with backoff, strategy fallback, digest
// serialization and the extraction call.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/internal/extract"
	"github.com/pagelift/pagelift/internal/fetch"
	"github.com/pagelift/pagelift/internal/reqctx"
	"github.com/pagelift/pagelift/internal/retry"
	urlutil "github.com/pagelift/pagelift/internal/utils/url"
	"github.com/pagelift/pagelift/pkg/models"
)

// Config holds pipeline-wide settings. Per-request values on
// models.ExtractionRequest override these.
type Config struct {
	// PreferScript selects the browser strategy as the first attempt.
	PreferScript bool
	// FetchTimeout bounds each individual HTTP fetch.
	FetchTimeout time.Duration
	// InitialBackoff overrides the 1s base retry delay when positive.
	// Tests use this to avoid real sleeps.
	InitialBackoff time.Duration
}

// Pipeline coordinates the fetch strategies and the extractor for single
// URLs. It is safe for concurrent use; the batch runner shares one instance
// across all workers.
type Pipeline struct {
	http      fetch.HTTPFetcher
	script    fetch.ScriptFetcher
	extractor extract.Extractor
	cfg       Config
}

// New wires a pipeline from its collaborators.
func New(httpFetcher fetch.HTTPFetcher, scriptFetcher fetch.ScriptFetcher, extractor extract.Extractor, cfg Config) *Pipeline {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Pipeline{
		http:      httpFetcher,
		script:    scriptFetcher,
		extractor: extractor,
		cfg:       cfg,
	}
}

// ExtractOne runs the full pipeline for one URL. It never returns an error:
// every failure path lands in the result's Error field with Success false,
// and Elapsed always covers the whole run including retries and fallbacks.
func (p *Pipeline) ExtractOne(ctx context.Context, req models.ExtractionRequest) *models.ExtractionResult {
	start := time.Now()
	result := &models.ExtractionResult{
		URL:         req.URL,
		ProviderTag: p.extractor.ProviderTag(),
	}
	defer func() {
		result.Elapsed = time.Since(start)
	}()

	ctx = reqctx.WithRequestContext(ctx)
	rc := reqctx.GetRequestContext(ctx)
	logger := log.With().Str("request_id", rc.RequestID).Str("url", req.URL).Logger()

	if err := validateRequest(req); err != nil {
		result.Error = err.Error()
		return result
	}

	preferScript := p.cfg.PreferScript
	if req.ScriptOverride != nil {
		preferScript = *req.ScriptOverride
	}

	retryCfg := retry.PipelineConfig(req.Retries())
	if p.cfg.InitialBackoff > 0 {
		retryCfg.InitialBackoff = p.cfg.InitialBackoff
	}

	logger.Debug().
		Bool("prefer_script", preferScript).
		Int("max_attempts", retryCfg.MaxAttempts).
		Msg("Starting extraction pipeline")

	var content string
	err := retry.WithRetry(ctx, retryCfg, func(attempt int) error {
		c, fetchErr := p.fetchContent(ctx, req.URL, preferScript, attempt > 0)
		if fetchErr != nil {
			logger.Debug().Err(fetchErr).Int("attempt", attempt).Msg("Fetch attempt failed")
			return fetchErr
		}
		content = c
		return nil
	})
	if err != nil {
		result.Error = fmt.Sprintf("fetch failed: %v", err)
		logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("Pipeline fetch exhausted")
		return result
	}

	data, err := p.extractor.Extract(ctx, content, req.Schema, extract.Options{
		Instructions: req.Instructions,
	})
	if err != nil {
		// Extraction failures are terminal: a bad completion will not get
		// better by re-fetching the page.
		result.Error = fmt.Sprintf("extraction failed: %v", err)
		logger.Warn().Err(err).Msg("Extraction failed")
		return result
	}

	result.Success = true
	result.Data = data

	logger.Info().
		Int("fields", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Extraction completed")

	return result
}

// validateRequest rejects requests before any network activity.
func validateRequest(req models.ExtractionRequest) error {
	if err := urlutil.ValidateURL(req.URL); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if req.Schema.IsEmpty() {
		return fmt.Errorf("invalid request: schema must contain at least one field")
	}
	return nil
}
