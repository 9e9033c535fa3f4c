package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel              = "info"
	DefaultJSONLog               = false
	DefaultProvider              = "anthropic"
	DefaultPreferScript          = false
	DefaultMaxRetries            = 2
	DefaultConcurrency           = 3
	DefaultUserAgent             = "Pagelift/1.0 (https://github.com/pagelift/pagelift)"
	DefaultFetchTimeout          = 30 * time.Second
	DefaultStaticRateLimitRPS    = 5.0
	DefaultStaticRateLimitBurst  = 10
	DefaultDynamicRateLimitRPS   = 3.0
	DefaultDynamicRateLimitBurst = 5
	DefaultBrowserPoolSize       = 3
	DefaultMaxBrowserPoolSize    = 10
	DefaultBrowserHeadless       = true
	DefaultCacheEnabled          = true
	DefaultCacheTTL              = 5 * time.Minute
	DefaultCacheMaxSizeBytes     = 100 * 1024 * 1024 // 100MB
)
