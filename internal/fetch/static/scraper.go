// internal/fetch/static/scraper.go
package static

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/internal/fetch"
	"github.com/pagelift/pagelift/internal/proxy"
	"github.com/pagelift/pagelift/internal/ratelimit"
	"github.com/pagelift/pagelift/internal/retry"
	urlutil "github.com/pagelift/pagelift/internal/utils/url"
)

// Fetcher is the lightweight HTTP strategy. It retrieves pages with a
// pooled HTTP client, strips non-content markup, and converts the body to
// markdown so the extractor receives compact, structure-preserving text.
type Fetcher struct {
	limiter   ratelimit.RateLimiter
	client    *http.Client
	proxies   *proxy.Pool
	converter *md.Converter
	timeout   time.Duration
	userAgent string
	headers   map[string]string
}

// New creates a static Fetcher with dependency injection. proxies may be nil.
func New(lim ratelimit.RateLimiter, client *http.Client, proxies *proxy.Pool, timeout time.Duration, ua string) *Fetcher {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Fetcher{
		limiter:   lim,
		client:    client,
		proxies:   proxies,
		converter: converter,
		timeout:   timeout,
		userAgent: ua,
	}
}

// SetHeaders installs extra request headers sent with every fetch. Call
// before the first Fetch; not safe to change concurrently with fetches.
func (f *Fetcher) SetHeaders(h map[string]string) {
	f.headers = h
}

// Name returns the strategy identifier.
func (f *Fetcher) Name() string {
	return "http"
}

// Fetch retrieves the URL over plain HTTP and returns markdown text.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	start := time.Now()

	if err := urlutil.ValidateURL(pageURL); err != nil {
		return "", err
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, pageURL); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	log.Debug().
		Str("url", pageURL).
		Str("strategy", f.Name()).
		Msg("Starting fetch")

	if timeout <= 0 {
		timeout = f.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	client := f.client
	proxyAddr := ""
	if f.proxies != nil {
		if proxyAddr = f.proxies.Next(); proxyAddr != "" {
			client = f.clientWithProxy(proxyAddr)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if proxyAddr != "" {
			f.proxies.MarkFailed(proxyAddr)
		}
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if proxyAddr != "" {
		f.proxies.MarkHealthy(proxyAddr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", retry.NewHTTPError(resp.StatusCode, resp.Status, "fetch "+pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", fetch.ErrParseError, err)
	}

	text, err := f.renderText(pageURL, doc)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		// Empty body after rendering usually means the page builds its DOM
		// client-side; the pipeline escalates on this error text.
		return "", fetch.ErrNoContent
	}

	log.Debug().
		Str("url", pageURL).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Int("text_len", len(text)).
		Msg("Fetch completed")

	return text, nil
}

// renderText cleans the document, converts it to markdown, and appends any
// page data captured from inline scripts.
func (f *Fetcher) renderText(pageURL string, doc *goquery.Document) (string, error) {
	scriptData := captureScriptData(pageURL, doc)

	bodyHTML, err := cleanHTML(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", fetch.ErrParseError, err)
	}

	text, err := f.converter.ConvertString(bodyHTML)
	if err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}
	text = strings.TrimSpace(text)

	if len(scriptData) > 0 {
		var sb strings.Builder
		sb.WriteString(text)
		sb.WriteString("\n\nPage data:\n")
		for _, kv := range scriptData {
			sb.WriteString("  - ")
			sb.WriteString(kv)
			sb.WriteString("\n")
		}
		text = strings.TrimSpace(sb.String())
	}

	return text, nil
}

// clientWithProxy clones the fetcher's client with a proxy-aware transport.
func (f *Fetcher) clientWithProxy(proxyAddr string) *http.Client {
	proxyURL, err := url.Parse(proxyAddr)
	if err != nil {
		return f.client
	}

	transport := &http.Transport{
		Proxy:               http.ProxyURL(proxyURL),
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   f.client.Timeout,
	}
}
