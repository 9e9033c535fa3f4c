// internal/batch/runner_test.go
package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pagelift/pagelift/pkg/models"
)

// fakePipeline returns canned results per URL and tracks peak concurrency.
type fakePipeline struct {
	mu       sync.Mutex
	failures map[string]bool
	latency  time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
	calls    []string
}

func (f *fakePipeline) ExtractOne(ctx context.Context, req models.ExtractionRequest) *models.ExtractionResult {
	cur := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	f.calls = append(f.calls, req.URL)
	f.mu.Unlock()

	if f.latency > 0 {
		time.Sleep(f.latency)
	}

	if f.failures[req.URL] {
		return &models.ExtractionResult{URL: req.URL, Error: "fetch failed: boom", Elapsed: time.Microsecond}
	}
	return &models.ExtractionResult{
		URL:     req.URL,
		Success: true,
		Data:    map[string]any{"title": req.URL},
		Elapsed: time.Microsecond,
	}
}

var batchSchema = models.Schema{{Name: "title", Type: "string"}}

func TestRunDropsFailuresPreservingOrder(t *testing.T) {
	fake := &fakePipeline{failures: map[string]bool{"https://b.example": true}}
	runner := NewRunner(fake)

	req := models.NewBatchRequest([]string{
		"https://a.example", "https://b.example", "https://c.example",
	}, batchSchema)
	req.Concurrency = 1

	results, err := runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].URL != "https://a.example" || results[1].URL != "https://c.example" {
		t.Errorf("order = [%s, %s]", results[0].URL, results[1].URL)
	}
}

func TestRunConcurrencyCeiling(t *testing.T) {
	fake := &fakePipeline{latency: 50 * time.Millisecond}
	runner := NewRunner(fake)

	req := models.NewBatchRequest([]string{
		"https://u0.example", "https://u1.example", "https://u2.example",
		"https://u3.example", "https://u4.example",
	}, batchSchema)
	req.Concurrency = 2

	start := time.Now()
	results, err := runner.Run(context.Background(), req)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	if peak := fake.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, exceeds ceiling 2", peak)
	}
	// 5 URLs at concurrency 2 need three scheduling rounds: ~150ms, not
	// ~50ms (unbounded) and not ~250ms (serial).
	if elapsed < 140*time.Millisecond {
		t.Errorf("elapsed %v suggests concurrency ceiling was not applied", elapsed)
	}
	if elapsed > 240*time.Millisecond {
		t.Errorf("elapsed %v suggests serial execution", elapsed)
	}
}

func TestRunAbortOnFailure(t *testing.T) {
	fake := &fakePipeline{failures: map[string]bool{"https://u1.example": true}}
	runner := NewRunner(fake)

	req := models.NewBatchRequest([]string{
		"https://u0.example", "https://u1.example", "https://u2.example",
		"https://u3.example", "https://u4.example",
	}, batchSchema)
	req.Concurrency = 1
	req.ContinueOnError = false

	results, err := runner.Run(context.Background(), req)
	if err == nil {
		t.Fatal("expected batch-level error")
	}
	if results != nil {
		t.Errorf("results must be discarded on abort, got %v", results)
	}
	if !strings.Contains(err.Error(), "of 5") {
		t.Errorf("error missing total tally: %v", err)
	}

	// With concurrency 1 the failure at index 1 stops admission before
	// all URLs run.
	fake.mu.Lock()
	calls := len(fake.calls)
	fake.mu.Unlock()
	if calls >= 5 {
		t.Errorf("all %d URLs ran despite abort", calls)
	}
}

func TestRunValidation(t *testing.T) {
	runner := NewRunner(&fakePipeline{})

	tests := []struct {
		name string
		req  models.BatchRequest
	}{
		{"empty URL list", models.NewBatchRequest(nil, batchSchema)},
		{"empty schema", models.NewBatchRequest([]string{"https://a.example"}, nil)},
		{"negative concurrency", func() models.BatchRequest {
			r := models.NewBatchRequest([]string{"https://a.example"}, batchSchema)
			r.Concurrency = -1
			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runner.Run(context.Background(), tt.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunDefaultsApplied(t *testing.T) {
	fake := &fakePipeline{latency: 10 * time.Millisecond}
	runner := NewRunner(fake)

	urls := make([]string, 6)
	for i := range urls {
		urls[i] = "https://u.example/" + string(rune('a'+i))
	}
	req := models.NewBatchRequest(urls, batchSchema)

	results, err := runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 6 {
		t.Errorf("got %d results", len(results))
	}
	if peak := fake.peak.Load(); peak > int64(models.DefaultConcurrency) {
		t.Errorf("peak concurrency = %d, exceeds default %d", peak, models.DefaultConcurrency)
	}
}

func TestRunProgressCallback(t *testing.T) {
	fake := &fakePipeline{}
	runner := NewRunner(fake)

	var mu sync.Mutex
	var seen []int
	runner.SetProgress(func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		seen = append(seen, completed)
	})

	req := models.NewBatchRequest([]string{
		"https://a.example", "https://b.example", "https://c.example",
	}, batchSchema)
	req.Concurrency = 1

	if _, err := runner.Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[2] != 3 {
		t.Errorf("progress callbacks = %v", seen)
	}
}

func TestRunChunked(t *testing.T) {
	failures := map[string]bool{
		"https://u3.example":  true,
		"https://u11.example": true,
	}
	fake := &fakePipeline{failures: failures}
	runner := NewRunner(fake)

	urls := make([]string, 15)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://u%d.example", i)
	}
	req := models.NewBatchRequest(urls, batchSchema)
	req.Concurrency = 2

	results, err := runner.RunChunked(context.Background(), req, 6)
	if err != nil {
		t.Fatalf("RunChunked failed: %v", err)
	}
	if len(results) != 13 {
		t.Fatalf("got %d results, want 13", len(results))
	}

	// Chunk boundaries must not affect contents or order.
	want := 0
	for _, r := range results {
		for failures[fmt.Sprintf("https://u%d.example", want)] {
			want++
		}
		if got := fmt.Sprintf("https://u%d.example", want); r.URL != got {
			t.Errorf("result URL = %s, want %s", r.URL, got)
		}
		want++
	}
}

func TestRunChunkedInvalidSize(t *testing.T) {
	runner := NewRunner(&fakePipeline{})
	req := models.NewBatchRequest([]string{"https://a.example"}, batchSchema)
	if _, err := runner.RunChunked(context.Background(), req, 0); err == nil {
		t.Error("expected chunk size validation error")
	}
}
