// internal/fetch/static/scraper_test.go
package static

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pagelift/pagelift/internal/fetch"
	"github.com/pagelift/pagelift/internal/ratelimit"
	"github.com/pagelift/pagelift/internal/retry"
)

func newTestFetcher() *Fetcher {
	return New(
		ratelimit.NewDomainLimiter(100.0, 100),
		&http.Client{Timeout: 5 * time.Second},
		nil,
		5*time.Second,
		"PageliftTest/1.0",
	)
}

func TestFetcher_Fetch_BasicHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `<!DOCTYPE html>
<html>
<head>
	<title>Hello World</title>
	<meta name="description" content="Test page">
</head>
<body>
	<h1>Hello World</h1>
	<p>This is a test page.</p>
	<a href="/link1">Link 1</a>
</body>
</html>`
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(html))
	}))
	defer server.Close()

	text, err := newTestFetcher().Fetch(context.Background(), server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if !strings.Contains(text, "Hello World") {
		t.Errorf("Expected heading text in output, got: %s", text)
	}
	if !strings.Contains(text, "This is a test page.") {
		t.Errorf("Expected paragraph text in output, got: %s", text)
	}
	if strings.Contains(text, "<h1>") {
		t.Errorf("Expected markdown output without raw tags, got: %s", text)
	}
}

func TestFetcher_Fetch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>SPA</title></head><body><div id="root"></div></body></html>`))
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL, 5*time.Second)
	if !errors.Is(err, fetch.ErrNoContent) {
		t.Errorf("Expected ErrNoContent for empty body, got %v", err)
	}
}

func TestFetcher_Fetch_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL, 5*time.Second)
	if err == nil {
		t.Fatal("Expected error for 503 response")
	}

	var httpErr retry.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", httpErr.StatusCode)
	}
}

func TestFetcher_Fetch_InvalidURL(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), "not-a-url", time.Second)
	if err == nil {
		t.Error("Expected error for invalid URL, got nil")
	}
}

func TestFetcher_Fetch_InlineScriptData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `<html><head><title>JS</title>
<script>var productPrice = "19.99"; var productName = "Widget";</script>
</head><body><p>Buy our widget.</p></body></html>`
		w.Write([]byte(html))
	}))
	defer server.Close()

	text, err := newTestFetcher().Fetch(context.Background(), server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if !strings.Contains(text, "productPrice = 19.99") {
		t.Errorf("Expected captured script variable in output, got: %s", text)
	}
	if !strings.Contains(text, "Page data:") {
		t.Errorf("Expected page data trailer, got: %s", text)
	}
}

func TestFetcher_Name(t *testing.T) {
	if got := newTestFetcher().Name(); got != "http" {
		t.Errorf("Expected name 'http', got %q", got)
	}
}
