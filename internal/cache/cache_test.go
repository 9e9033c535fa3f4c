// internal/cache/cache_test.go
package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/pagelift/pagelift/pkg/models"
)

func testEntry(tag string) *Entry {
	return &Entry{
		Data:        map[string]any{"title": "Example Page", "price": 19.99},
		ProviderTag: tag,
	}
}

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache(1 << 20)
	defer mc.Close()

	if _, ok := mc.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}

	if err := mc.Set("k1", testEntry("anthropic"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	entry, ok := mc.Get("k1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if entry.ProviderTag != "anthropic" {
		t.Errorf("ProviderTag = %q, want %q", entry.ProviderTag, "anthropic")
	}
	if entry.Data["title"] != "Example Page" {
		t.Errorf("Data[title] = %v, want Example Page", entry.Data["title"])
	}
}

func TestMemoryCacheUpdateExisting(t *testing.T) {
	mc := NewMemoryCache(1 << 20)
	defer mc.Close()

	if err := mc.Set("k1", testEntry("anthropic"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := mc.Set("k1", testEntry("openai"), time.Minute); err != nil {
		t.Fatalf("Set (update) failed: %v", err)
	}

	entry, ok := mc.Get("k1")
	if !ok {
		t.Fatal("expected hit after update")
	}
	if entry.ProviderTag != "openai" {
		t.Errorf("ProviderTag = %q, want %q", entry.ProviderTag, "openai")
	}

	stats := mc.Stats()
	if entries := stats["entries"].(int); entries != 1 {
		t.Errorf("entries = %d, want 1 after in-place update", entries)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	mc := NewMemoryCache(1 << 20)
	defer mc.Close()

	if err := mc.Set("k1", testEntry("anthropic"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok := mc.Get("k1"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := mc.Get("k1"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	// Each entry is ~1KB of overhead; a 4KB budget holds roughly three.
	mc := NewMemoryCache(4 * 1024)
	defer mc.Close()

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("k%d", i)
		if err := mc.Set(key, testEntry("anthropic"), time.Minute); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	// Touch k0 so k1 becomes least recently used.
	if _, ok := mc.Get("k0"); !ok {
		t.Fatal("expected hit for k0")
	}

	if err := mc.Set("k3", testEntry("anthropic"), time.Minute); err != nil {
		t.Fatalf("Set k3 failed: %v", err)
	}

	if _, ok := mc.Get("k1"); ok {
		t.Error("expected k1 evicted as least recently used")
	}
	if _, ok := mc.Get("k0"); !ok {
		t.Error("expected k0 retained after recent access")
	}
	if _, ok := mc.Get("k3"); !ok {
		t.Error("expected k3 present after insert")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	mc := NewMemoryCache(1 << 20)
	defer mc.Close()

	mc.Set("k1", testEntry("anthropic"), time.Minute)
	mc.Set("k2", testEntry("anthropic"), time.Minute)
	mc.Get("k1")
	mc.Get("missing")

	if err := mc.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, ok := mc.Get("k1"); ok {
		t.Error("expected miss after Clear")
	}

	stats := mc.Stats()
	if entries := stats["entries"].(int); entries != 0 {
		t.Errorf("entries = %d, want 0 after Clear", entries)
	}
	if size := stats["size_bytes"].(int64); size != 0 {
		t.Errorf("size_bytes = %d, want 0 after Clear", size)
	}
}

func TestMemoryCacheStats(t *testing.T) {
	mc := NewMemoryCache(1 << 20)
	defer mc.Close()

	mc.Set("k1", testEntry("anthropic"), time.Minute)
	mc.Get("k1")      // hit
	mc.Get("k1")      // hit
	mc.Get("missing") // miss

	stats := mc.Stats()
	if hits := stats["hits"].(uint64); hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
	if misses := stats["misses"].(uint64); misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
	hitRate := stats["hit_rate"].(float64)
	if hitRate < 66.0 || hitRate > 67.0 {
		t.Errorf("hit_rate = %.2f, want ~66.67", hitRate)
	}
}

func TestKeySensitivity(t *testing.T) {
	schema := models.Schema{
		{Name: "title", Type: "string"},
		{Name: "price", Type: "number"},
	}

	base := Key("page content", schema, "extract carefully", "claude-sonnet-4-5-20250929")

	if got := Key("page content", schema, "extract carefully", "claude-sonnet-4-5-20250929"); got != base {
		t.Error("identical inputs should produce identical keys")
	}

	variants := map[string]string{
		"content":      Key("other content", schema, "extract carefully", "claude-sonnet-4-5-20250929"),
		"instructions": Key("page content", schema, "other instructions", "claude-sonnet-4-5-20250929"),
		"model":        Key("page content", schema, "extract carefully", "gpt-4o-mini"),
		"schema": Key("page content", models.Schema{
			{Name: "title", Type: "string"},
		}, "extract carefully", "claude-sonnet-4-5-20250929"),
		"field type": Key("page content", models.Schema{
			{Name: "title", Type: "string"},
			{Name: "price", Type: "string"},
		}, "extract carefully", "claude-sonnet-4-5-20250929"),
	}

	for name, key := range variants {
		if key == base {
			t.Errorf("changing %s should change the key", name)
		}
	}
}

func TestKeyFieldBoundaries(t *testing.T) {
	// Field name/type concatenation must not collide across boundaries.
	a := Key("c", models.Schema{{Name: "ab", Type: "c"}}, "", "m")
	b := Key("c", models.Schema{{Name: "a", Type: "bc"}}, "", "m")
	if a == b {
		t.Error("field name/type boundary shift should change the key")
	}
}
