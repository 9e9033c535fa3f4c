// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pagelift/pagelift/internal/batch"
	"github.com/pagelift/pagelift/internal/cache"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/extract"
	"github.com/pagelift/pagelift/internal/fetch/dynamic"
	"github.com/pagelift/pagelift/internal/fetch/static"
	"github.com/pagelift/pagelift/internal/keys"
	"github.com/pagelift/pagelift/internal/pipeline"
	"github.com/pagelift/pagelift/internal/proxy"
	"github.com/pagelift/pagelift/internal/ratelimit"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	Cache         cache.Cache
	BrowserPool   *dynamic.BrowserPool
	poolMu        sync.Mutex
	RateLimiter   ratelimit.RateLimiter
	HTTPClient    *http.Client
	Proxies       *proxy.Pool
	StaticFetcher *static.Fetcher
	ScriptFetcher *dynamic.Fetcher
	Extractor     extract.Extractor
	Pipeline      *pipeline.Pipeline
	Runner        *batch.Runner
	startTime     time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It configures logging, constructs the result cache, the rate limiter, the
// HTTP client, both fetch strategies, the provider-backed extractor, the
// single-URL pipeline and the batch runner. The browser pool is not started
// here; it is created lazily the first time a script fetch runs.
//
// If any step fails, an error is returned and no resources are allocated.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize logger based on config
	logLevel := zerolog.ErrorLevel // default: suppress non-verbose info logs
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	// Treat "info" as non-verbose (don't display info logs unless -v is used)
	default:
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		// Human-friendly console output otherwise
		logWriter = zerolog.NewConsoleWriter()
	}

	logger := log.Output(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	// Create result cache
	var memCache cache.Cache
	if cfg.CacheEnabled {
		memCache = cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
		logger.Debug().
			Int64("max_size_bytes", cfg.CacheMaxSizeBytes).
			Msg("Extraction cache initialized")
	}

	// Separate limiters: browser fetches are heavier, so they get a lower rate.
	rateLimiter := ratelimit.NewDomainLimiter(cfg.StaticRateLimitRPS, cfg.StaticRateLimitBurst)
	scriptLimiter := ratelimit.NewDomainLimiter(cfg.DynamicRateLimitRPS, cfg.DynamicRateLimitBurst)
	logger.Debug().
		Float64("static_rps", cfg.StaticRateLimitRPS).
		Float64("dynamic_rps", cfg.DynamicRateLimitRPS).
		Msg("Rate limiters initialized")

	// Create HTTP client
	httpClient := &http.Client{
		Timeout: cfg.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
		},
	}

	var proxies *proxy.Pool
	if len(cfg.Proxies) > 0 {
		proxies = proxy.NewPool(cfg.Proxies)
		logger.Debug().Int("proxies", len(cfg.Proxies)).Msg("Proxy pool initialized")
	}

	// Create fetch strategies. The script fetcher starts without a pool;
	// EnsureBrowserPool attaches one on first use.
	staticFetcher := static.New(rateLimiter, httpClient, proxies, cfg.FetchTimeout, cfg.UserAgent)
	scriptFetcher := dynamic.New(scriptLimiter, nil, proxies, cfg.FetchTimeout, cfg.UserAgent)

	extractor, err := buildExtractor(cfg, memCache)
	if err != nil {
		return nil, err
	}

	pipe := pipeline.New(staticFetcher, scriptFetcher, extractor, pipeline.Config{
		PreferScript: cfg.PreferScript,
		FetchTimeout: cfg.FetchTimeout,
	})
	runner := batch.NewRunner(pipe)

	app := &Application{
		Config:        cfg,
		Logger:        &logger,
		Cache:         memCache,
		RateLimiter:   rateLimiter,
		HTTPClient:    httpClient,
		Proxies:       proxies,
		StaticFetcher: staticFetcher,
		ScriptFetcher: scriptFetcher,
		Extractor:     extractor,
		Pipeline:      pipe,
		Runner:        runner,
		startTime:     time.Now(),
	}

	logger.Info().Str("provider", cfg.Provider).Msg("Application initialized successfully")
	return app, nil
}

// buildExtractor constructs the provider-backed extractor, wrapping it with
// result caching when a cache is configured. The API key comes from config
// (environment) first, then the key store.
func buildExtractor(cfg *config.Config, c cache.Cache) (extract.Extractor, error) {
	provider, err := extract.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	apiKey := cfg.APIKeyFor(cfg.Provider)
	if apiKey == "" {
		if stored, err := keys.Get(cfg.Provider); err == nil {
			apiKey = stored
		}
	}

	var inner extract.Extractor
	switch provider {
	case extract.ProviderAnthropic:
		inner = extract.NewAnthropicExtractor(apiKey, cfg.Model)
	case extract.ProviderOpenAI:
		inner = extract.NewOpenAIExtractor(apiKey, cfg.Model, cfg.OpenAIBaseURL)
	}

	// Missing credentials are not fatal here: commands like `keys set` must
	// still run. Extraction calls fail fast with the same error.
	if err := inner.ValidateCredentials(); err != nil {
		log.Warn().Str("provider", cfg.Provider).Err(err).Msg("No API key configured")
	}

	if c == nil {
		return inner, nil
	}
	return extract.NewCachedExtractor(inner, c, cfg.CacheTTL), nil
}

// EnsureBrowserPool lazily creates the browser pool if it has not already been
// initialized. Callers should provide a context with an appropriate timeout.
func (a *Application) EnsureBrowserPool(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("application is nil")
	}

	a.poolMu.Lock()
	defer a.poolMu.Unlock()

	if a.BrowserPool != nil {
		return nil
	}

	logger := a.Logger
	logger.Debug().Msg("Initializing browser pool on demand")

	var proxyAddr string
	if a.Proxies != nil {
		proxyAddr = a.Proxies.Next()
	}

	pool, err := dynamic.NewBrowserPool(dynamic.BrowserPoolOptions{
		Size:       a.Config.BrowserPoolSize,
		Headless:   a.Config.BrowserHeadless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      proxyAddr,
		ChromePath: a.Config.ChromePath,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create browser pool on demand")
		return err
	}

	a.BrowserPool = pool
	// Attach to the script fetcher so it reuses warm contexts
	if a.ScriptFetcher != nil {
		a.ScriptFetcher.SetBrowserPool(pool)
	}

	logger.Info().Int("pool_size", pool.Size()).Msg("Browser pool initialized on demand")
	return nil
}

// Close gracefully shuts down the application and all its resources.
//
// Errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application")

	if a.ScriptFetcher != nil {
		if err := a.ScriptFetcher.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing script fetcher")
		}
		a.BrowserPool = nil
	}

	if a.Cache != nil {
		a.Cache.Close()
	}

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Info().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
