package proxy

import "testing"

func TestPool_Empty(t *testing.T) {
	p := NewPool(nil)
	if got := p.Next(); got != "" {
		t.Errorf("Expected empty proxy for empty pool, got %q", got)
	}
}

func TestPool_Rotation(t *testing.T) {
	p := NewPool([]string{"http://p1:8080", "http://p2:8080"})

	first := p.Next()
	second := p.Next()
	third := p.Next()

	if first == second {
		t.Errorf("Expected rotation, got %q twice", first)
	}
	if third != first {
		t.Errorf("Expected wrap-around to %q, got %q", first, third)
	}
}

func TestPool_SkipsFailed(t *testing.T) {
	p := NewPool([]string{"http://p1:8080", "http://p2:8080"})

	p.MarkFailed("http://p1:8080")

	for i := 0; i < 4; i++ {
		if got := p.Next(); got != "http://p2:8080" {
			t.Errorf("Expected healthy proxy, got %q", got)
		}
	}

	p.MarkHealthy("http://p1:8080")
	seen := map[string]bool{}
	seen[p.Next()] = true
	seen[p.Next()] = true
	if len(seen) != 2 {
		t.Errorf("Expected both proxies after recovery, got %v", seen)
	}
}
