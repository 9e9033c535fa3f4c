// internal/fetch/dynamic/scraper.go
package dynamic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/internal/fetch"
	"github.com/pagelift/pagelift/internal/proxy"
	"github.com/pagelift/pagelift/internal/ratelimit"
	urlutil "github.com/pagelift/pagelift/internal/utils/url"
	"github.com/pagelift/pagelift/pkg/models"
)

// Fetcher renders pages in headless Chrome via chromedp. It handles
// JavaScript-heavy sites and SPAs (React/Vue/Angular) that the plain
// HTTP fetcher cannot see.
type Fetcher struct {
	limiter     ratelimit.RateLimiter
	browserPool *BrowserPool
	proxies     *proxy.Pool
	timeout     time.Duration
	userAgent   string
	mu          sync.Mutex
}

// New creates a script-capable fetcher. pool may be nil; each fetch then
// falls back to an ephemeral allocator, which is slower but needs no
// upfront Chrome startup.
func New(lim ratelimit.RateLimiter, pool *BrowserPool, proxies *proxy.Pool, timeout time.Duration, ua string) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		limiter:     lim,
		browserPool: pool,
		proxies:     proxies,
		timeout:     timeout,
		userAgent:   ua,
	}
}

// SetBrowserPool swaps in a browser pool after construction (thread-safe).
// Used by the application when the pool is created lazily on first script
// fetch.
func (f *Fetcher) SetBrowserPool(pool *BrowserPool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.browserPool = pool
}

func (f *Fetcher) pool() *BrowserPool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.browserPool
}

// Name identifies the fetcher in logs and error messages.
func (f *Fetcher) Name() string {
	return "script"
}

// Close releases the browser pool if one is attached.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browserPool != nil {
		f.browserPool.Close()
		f.browserPool = nil
	}
	return nil
}

// FetchBasic renders the page and returns the visible body text. It is the
// cheaper script strategy: no structural analysis, just what the page says.
func (f *Fetcher) FetchBasic(ctx context.Context, pageURL string) (string, error) {
	var bodyText string
	err := f.run(ctx, pageURL, chromedp.Text("body", &bodyText, chromedp.ByQuery))
	if err != nil {
		return "", err
	}

	bodyText = strings.TrimSpace(bodyText)
	if bodyText == "" {
		return "", fetch.ErrNoContent
	}
	return bodyText, nil
}

// FetchComprehensive renders the page and builds a structured digest of its
// DOM: title, metadata, headings, content blocks, links and statistics.
func (f *Fetcher) FetchComprehensive(ctx context.Context, pageURL string) (*models.PageDigest, error) {
	var renderedHTML string
	err := f.run(ctx, pageURL, chromedp.OuterHTML("html", &renderedHTML, chromedp.ByQuery))
	if err != nil {
		return nil, err
	}

	digest, err := BuildDigest(pageURL, renderedHTML)
	if err != nil {
		return nil, err
	}
	if digest.FullText == "" && len(digest.ContentBlocks) == 0 {
		return nil, fetch.ErrNoContent
	}
	return digest, nil
}

// run navigates to pageURL inside a pooled or ephemeral browser context and
// executes capture after the initial render settles.
func (f *Fetcher) run(parent context.Context, pageURL string, capture chromedp.Action) error {
	start := time.Now()

	if err := urlutil.ValidateURL(pageURL); err != nil {
		return fmt.Errorf("%w: %v", fetch.ErrInvalidURL, err)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(parent, pageURL); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	log.Debug().
		Str("url", pageURL).
		Str("fetcher", f.Name()).
		Msg("Starting browser fetch")

	var ctx context.Context
	var cancel context.CancelFunc

	if pool := f.pool(); pool != nil {
		bCtx, err := pool.Acquire(f.timeout)
		if err != nil {
			return fmt.Errorf("failed to acquire browser from pool: %w", err)
		}
		defer pool.Release(bCtx)

		ctx, cancel = context.WithTimeout(bCtx.Ctx, f.timeout)
		defer cancel()

		log.Debug().Dur("elapsed", time.Since(start)).Msg("Acquired browser from pool")
	} else {
		// No pool attached: spin up an ephemeral allocator with the same
		// flags the pool uses. Slower, but always available.
		base, baseCancel := context.WithTimeout(parent, f.timeout)
		defer baseCancel()

		allocOpts := ephemeralAllocatorOptions(f.userAgent)
		if f.proxies != nil {
			if p := f.proxies.Next(); p != "" {
				allocOpts = append(allocOpts, chromedp.ProxyServer(p))
			}
		}

		allocCtx, allocCancel := chromedp.NewExecAllocator(base, allocOpts...)
		defer allocCancel()

		ctx, cancel = chromedp.NewContext(allocCtx)
		defer cancel()

		log.Debug().Dur("elapsed", time.Since(start)).Msg("Created ephemeral browser context")
	}

	var statusCode int64
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Response.URL == pageURL {
				statusCode = resp.Response.Status
			}
		}
	})

	navigateStart := time.Now()

	err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Let the initial JS pass execute before capturing.
			time.Sleep(300 * time.Millisecond)
			return nil
		}),
		capture,
	)

	if err != nil {
		return fmt.Errorf("browser execution failed: %w", err)
	}

	log.Debug().
		Str("url", pageURL).
		Int64("status", statusCode).
		Dur("elapsed", time.Since(navigateStart)).
		Msg("Browser fetch completed")

	return nil
}

// ephemeralAllocatorOptions mirrors the pool's allocator flags for one-shot
// browser contexts.
func ephemeralAllocatorOptions(userAgent string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("force-color-profile", "srgb"),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("safebrowsing-disable-auto-update", true),
		chromedp.Flag("disable-features", "site-per-process,TranslateUI,BlinkGenPropertyTrees"),
		chromedp.Flag("enable-features", "NetworkService,NetworkServiceInProcess"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("disk-cache-size", "0"),
		chromedp.Flag("media-cache-size", "0"),
	}

	if chromePath := FindChrome(); chromePath != "" {
		opts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, opts...)
	}
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	return opts
}
