// internal/extract/cached_test.go
package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pagelift/pagelift/internal/cache"
	"github.com/pagelift/pagelift/pkg/models"
)

type fakeExtractor struct {
	calls int
	data  map[string]any
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, content string, schema models.Schema, opts Options) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeExtractor) ProviderTag() string        { return "fake/model" }
func (f *fakeExtractor) MaxContentLength() int      { return 1000 }
func (f *fakeExtractor) ValidateCredentials() error { return nil }

func TestCachedExtractorMemoizes(t *testing.T) {
	inner := &fakeExtractor{data: map[string]any{"title": "Widget"}}
	c := cache.NewMemoryCache(1 << 20)
	defer c.Close()

	e := NewCachedExtractor(inner, c, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		data, err := e.Extract(ctx, "content", testSchema, Options{})
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if data["title"] != "Widget" {
			t.Errorf("title = %v", data["title"])
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner extractor called %d times, want 1", inner.calls)
	}
}

func TestCachedExtractorKeySensitivity(t *testing.T) {
	inner := &fakeExtractor{data: map[string]any{"title": "Widget"}}
	c := cache.NewMemoryCache(1 << 20)
	defer c.Close()

	e := NewCachedExtractor(inner, c, time.Minute)
	ctx := context.Background()

	if _, err := e.Extract(ctx, "content", testSchema, Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Extract(ctx, "other content", testSchema, Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Extract(ctx, "content", testSchema, Options{Instructions: "different"}); err != nil {
		t.Fatal(err)
	}

	if inner.calls != 3 {
		t.Errorf("inner extractor called %d times, want 3", inner.calls)
	}
}

func TestCachedExtractorErrorsNotCached(t *testing.T) {
	inner := &fakeExtractor{err: errors.New("provider down")}
	c := cache.NewMemoryCache(1 << 20)
	defer c.Close()

	e := NewCachedExtractor(inner, c, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := e.Extract(ctx, "content", testSchema, Options{}); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner extractor called %d times, want 2 (errors must not be cached)", inner.calls)
	}
}

func TestCachedExtractorNilCachePassthrough(t *testing.T) {
	inner := &fakeExtractor{data: map[string]any{"title": "Widget"}}
	e := NewCachedExtractor(inner, nil, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := e.Extract(context.Background(), "content", testSchema, Options{}); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner extractor called %d times, want 2", inner.calls)
	}
}
