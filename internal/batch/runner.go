// internal/batch/runner.go

// Package batch fans the extraction pipeline out over URL sets under a
// concurrency ceiling, preserving input order in the output and applying
// the partial-failure policy.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/pkg/models"
)

// Pipeline is the single-URL entry point the runner fans out over.
// *pipeline.Pipeline satisfies it; tests substitute fakes.
type Pipeline interface {
	ExtractOne(ctx context.Context, req models.ExtractionRequest) *models.ExtractionResult
}

// Runner schedules per-URL pipelines with bounded concurrency.
type Runner struct {
	pipeline Pipeline

	// progress, when set, is called after each URL completes. The CLI
	// hooks a progress bar here.
	progress func(completed, total int)
}

// NewRunner creates a batch runner over the given pipeline.
func NewRunner(p Pipeline) *Runner {
	return &Runner{pipeline: p}
}

// SetProgress installs a completion callback. Must be set before Run.
func (r *Runner) SetProgress(fn func(completed, total int)) {
	r.progress = fn
}

// Run processes every URL in the batch and returns the successful results
// in the URLs' original relative order.
//
// With ContinueOnError true, failed URLs are dropped: the output can be
// shorter than the input and contains exactly the successes. With
// ContinueOnError false, the first failure aborts the batch: no further
// URLs are admitted, in-flight work finishes but its results are discarded,
// and the returned error carries a failed/attempted/total tally.
func (r *Runner) Run(ctx context.Context, req models.BatchRequest) ([]*models.ExtractionResult, error) {
	if err := validateBatch(req); err != nil {
		return nil, err
	}

	total := len(req.URLs)
	concurrency := req.EffectiveConcurrency()

	log.Info().
		Int("urls", total).
		Int("concurrency", concurrency).
		Bool("continue_on_error", req.ContinueOnError).
		Msg("Starting batch extraction")

	// Index-addressed result buffer: each worker writes only its own slot,
	// so no lock is needed for output assembly.
	results := make([]*models.ExtractionResult, total)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var completed atomic.Int64
	var failed atomic.Int64
	var aborted atomic.Bool

	admitted := 0
	for i, url := range req.URLs {
		if !req.ContinueOnError && aborted.Load() {
			break
		}

		// Admission happens here, in input order.
		sem <- struct{}{}

		if !req.ContinueOnError && aborted.Load() {
			<-sem
			break
		}

		admitted++
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-sem }()

			result := r.pipeline.ExtractOne(ctx, models.ExtractionRequest{
				URL:            url,
				Schema:         req.Schema,
				Instructions:   req.Instructions,
				ScriptOverride: req.ScriptOverride,
				MaxRetries:     req.MaxRetries,
			})
			results[i] = result

			if !result.Success {
				failed.Add(1)
				aborted.Store(true)
				log.Warn().Str("url", url).Str("error", result.Error).Msg("URL extraction failed")
			}

			done := int(completed.Add(1))
			if r.progress != nil {
				r.progress(done, total)
			}
		}(i, url)
	}

	wg.Wait()

	if !req.ContinueOnError && failed.Load() > 0 {
		return nil, fmt.Errorf("batch aborted: %d of %d extractions failed (%d of %d attempted)",
			failed.Load(), total, admitted, total)
	}

	successes := make([]*models.ExtractionResult, 0, total)
	for _, result := range results {
		if result != nil && result.Success {
			successes = append(successes, result)
		}
	}

	log.Info().
		Int("succeeded", len(successes)).
		Int("failed", int(failed.Load())).
		Int("total", total).
		Msg("Batch extraction completed")

	return successes, nil
}

// RunChunked partitions the URL list into fixed-size contiguous chunks and
// runs each chunk as its own batch, strictly one after another. Successful
// results are concatenated across chunks in chunk order. Chunking bounds
// peak resource usage (open browsers, connections) independently of the
// concurrency ceiling.
func (r *Runner) RunChunked(ctx context.Context, req models.BatchRequest, chunkSize int) ([]*models.ExtractionResult, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("batch: chunk size must be >= 1, got %d", chunkSize)
	}
	if err := validateBatch(req); err != nil {
		return nil, err
	}

	var all []*models.ExtractionResult
	for start := 0; start < len(req.URLs); start += chunkSize {
		end := start + chunkSize
		if end > len(req.URLs) {
			end = len(req.URLs)
		}

		chunkReq := req
		chunkReq.URLs = req.URLs[start:end]

		log.Debug().
			Int("chunk_start", start).
			Int("chunk_size", end-start).
			Msg("Processing batch chunk")

		results, err := r.Run(ctx, chunkReq)
		if err != nil {
			return nil, fmt.Errorf("chunk starting at %d: %w", start, err)
		}
		all = append(all, results...)
	}

	return all, nil
}

func validateBatch(req models.BatchRequest) error {
	if len(req.URLs) == 0 {
		return fmt.Errorf("batch: URL list is empty")
	}
	if req.Schema.IsEmpty() {
		return fmt.Errorf("batch: schema must contain at least one field")
	}
	if req.EffectiveConcurrency() < 1 {
		return fmt.Errorf("batch: concurrency must be >= 1, got %d", req.Concurrency)
	}
	return nil
}
