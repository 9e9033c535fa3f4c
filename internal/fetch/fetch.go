// Package fetch defines the strategies the extraction pipeline chooses
// between when retrieving page content.
package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/pagelift/pagelift/pkg/models"
)

// HTTPFetcher is the lightweight strategy: a plain HTTP transfer with
// HTML-to-text conversion. Implementations must be safe for concurrent use.
type HTTPFetcher interface {
	// Fetch retrieves the URL and returns its textual content.
	Fetch(ctx context.Context, url string, timeout time.Duration) (string, error)

	// Name returns the strategy identifier used in error messages.
	Name() string
}

// ScriptFetcher is the heavier, script-capable strategy backed by a
// headless browser. Implementations must be safe for concurrent use.
type ScriptFetcher interface {
	// FetchBasic renders the page and returns its body text.
	FetchBasic(ctx context.Context, url string) (string, error)

	// FetchComprehensive renders the page and returns a structured digest
	// (headings, links, event content, statistics).
	FetchComprehensive(ctx context.Context, url string) (*models.PageDigest, error)

	// Name returns the strategy identifier used in error messages.
	Name() string

	// Close releases held resources (browser processes). Called once when
	// the orchestration layer is torn down.
	Close() error
}

// Sentinel errors shared by the strategies.
var (
	// ErrNoContent signals a fetch that technically succeeded but produced
	// an empty document, a common mark of client-rendered pages. Its text
	// deliberately matches the pipeline's escalation heuristic.
	ErrNoContent = errors.New("no content extracted from page")

	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrParseError      = errors.New("failed to parse response")
)
