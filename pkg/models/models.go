package models

import "time"

// Field is a single schema entry: a field name the extractor should fill
// and a free-form type hint ("string", "number", "list of names", ...).
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is an ordered list of fields to extract. Order is significant:
// it is preserved in prompts and in rendered output. Field names are unique.
type Schema []Field

// IsEmpty reports whether the schema declares no fields.
func (s Schema) IsEmpty() bool {
	return len(s) == 0
}

// FieldNames returns the declared field names in order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// ExtractionRequest describes a single-URL extraction job.
// Requests are constructed by the caller and treated as immutable.
type ExtractionRequest struct {
	URL          string
	Schema       Schema
	Instructions string // optional free-text guidance for the extractor

	// ScriptOverride, when set, replaces the pipeline-level default for
	// whether the script-capable strategy is tried first.
	ScriptOverride *bool

	// MaxRetries bounds the fetch retry loop (total attempts = MaxRetries+1).
	// Zero means the default of 2.
	MaxRetries int
}

// DefaultMaxRetries is applied when ExtractionRequest.MaxRetries is zero.
const DefaultMaxRetries = 2

// Retries returns the effective retry count for the request.
func (r ExtractionRequest) Retries() int {
	if r.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return r.MaxRetries
}

// ExtractionResult is the unit returned to callers for both single and
// batch extraction. Exactly one of Data/Error is populated, gated by
// Success. Elapsed covers the whole pipeline run for the URL, including
// all retries and strategy fallbacks. Immutable once constructed.
type ExtractionResult struct {
	Success     bool           `json:"success"`
	Data        map[string]any `json:"data,omitempty"`
	Error       string         `json:"error,omitempty"`
	Elapsed     time.Duration  `json:"elapsed"`
	ProviderTag string         `json:"provider"`
	URL         string         `json:"url"`
}

// BatchRequest describes a multi-URL extraction job sharing one schema.
type BatchRequest struct {
	URLs   []string // order-significant, duplicates allowed
	Schema Schema

	// Concurrency is the ceiling on simultaneously running pipelines.
	// Zero means the default of 3; values < 1 are rejected.
	Concurrency int

	// ContinueOnError controls the partial-failure policy. When true
	// (the default via NewBatchRequest), failed URLs are dropped from the
	// output; when false the first failure aborts the batch.
	ContinueOnError bool

	ScriptOverride *bool
	Instructions   string
	MaxRetries     int
}

// DefaultConcurrency is applied when BatchRequest.Concurrency is zero.
const DefaultConcurrency = 3

// NewBatchRequest builds a BatchRequest with the documented defaults
// (concurrency 3, continue-on-error true).
func NewBatchRequest(urls []string, schema Schema) BatchRequest {
	return BatchRequest{
		URLs:            urls,
		Schema:          schema,
		Concurrency:     DefaultConcurrency,
		ContinueOnError: true,
	}
}

// EffectiveConcurrency returns the concurrency ceiling with the default applied.
func (b BatchRequest) EffectiveConcurrency() int {
	if b.Concurrency == 0 {
		return DefaultConcurrency
	}
	return b.Concurrency
}
