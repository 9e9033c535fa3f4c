// internal/pipeline/fallback.go
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// fetchContent resolves one fetch attempt through the strategy fallback
// policy and returns textual page content.
//
// Script-preferred: comprehensive script mode, then basic script mode, then
// plain HTTP; if all three fail the error names each strategy's failure.
//
// HTTP-preferred: plain HTTP first. Its failure escalates to the script
// strategy (comprehensive, then basic) only when this is a retry attempt or
// the error text suggests client-rendered content; otherwise it surfaces
// immediately. The asymmetry is intentional: once the heavier strategy is
// already preferred there is nothing to gain from retrying over HTTP, while
// an HTTP-preferred caller only pays for a browser when there is a signal
// that a static fetch cannot see the page.
func (p *Pipeline) fetchContent(ctx context.Context, url string, preferScript, isRetry bool) (string, error) {
	if preferScript {
		return p.fetchScriptFirst(ctx, url)
	}
	return p.fetchHTTPFirst(ctx, url, isRetry)
}

func (p *Pipeline) fetchScriptFirst(ctx context.Context, url string) (string, error) {
	content, comprehensiveErr := p.fetchComprehensive(ctx, url)
	if comprehensiveErr == nil {
		return content, nil
	}
	log.Debug().Err(comprehensiveErr).Str("url", url).Msg("Comprehensive script fetch failed, trying basic mode")

	content, basicErr := p.script.FetchBasic(ctx, url)
	if basicErr == nil {
		return content, nil
	}
	log.Debug().Err(basicErr).Str("url", url).Msg("Basic script fetch failed, trying HTTP")

	content, httpErr := p.http.Fetch(ctx, url, p.cfg.FetchTimeout)
	if httpErr == nil {
		return content, nil
	}

	return "", fmt.Errorf("all fetch strategies failed: comprehensive script: %v; basic script: %v; http: %v",
		comprehensiveErr, basicErr, httpErr)
}

func (p *Pipeline) fetchHTTPFirst(ctx context.Context, url string, isRetry bool) (string, error) {
	content, httpErr := p.http.Fetch(ctx, url, p.cfg.FetchTimeout)
	if httpErr == nil {
		return content, nil
	}

	if !isRetry && !suggestsClientRendering(httpErr) {
		return "", httpErr
	}

	log.Debug().
		Err(httpErr).
		Str("url", url).
		Bool("is_retry", isRetry).
		Msg("HTTP fetch failed, escalating to script strategy")

	content, comprehensiveErr := p.fetchComprehensive(ctx, url)
	if comprehensiveErr == nil {
		return content, nil
	}

	content, basicErr := p.script.FetchBasic(ctx, url)
	if basicErr == nil {
		return content, nil
	}

	return "", fmt.Errorf("all fetch strategies failed: http: %v; comprehensive script: %v; basic script: %v",
		httpErr, comprehensiveErr, basicErr)
}

// fetchComprehensive runs the structured script mode and serializes its
// digest into extractor-ready text.
func (p *Pipeline) fetchComprehensive(ctx context.Context, url string) (string, error) {
	digest, err := p.script.FetchComprehensive(ctx, url)
	if err != nil {
		return "", err
	}
	return RenderDigest(digest), nil
}
