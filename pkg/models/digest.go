package models

// PageDigest is the structured intermediate representation produced by the
// script-capable fetcher's comprehensive mode. The pipeline serializes it
// into the plain-text document handed to the extractor; see
// internal/pipeline for the rendering rules.
type PageDigest struct {
	Title       string `json:"title,omitempty"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Keywords    string `json:"keywords,omitempty"`

	// EventContent holds the named "event-like" block detected on the page,
	// with card/schedule/session/speaker/time sub-lists.
	EventContent *EventContent `json:"event_content,omitempty"`

	// Headings groups heading text by level ("h1".."h6"), document order
	// within each level.
	Headings map[string][]string `json:"headings,omitempty"`

	// ContentBlocks are substantial text blocks, already truncated by the
	// fetcher to the limits the pipeline renders (20 blocks, 500 chars each).
	ContentBlocks []string `json:"content_blocks,omitempty"`

	// Links are text -> href pairs, at most 50.
	Links []Link `json:"links,omitempty"`

	// Stats are aggregate page statistics (element counts, text length).
	Stats map[string]int `json:"stats,omitempty"`

	// FullText is the full-body-text fallback, truncated to 5000 chars.
	FullText string `json:"full_text,omitempty"`
}

// Link is a single anchor rendered as "text -> href" in the digest.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// EventContent is the event-like content block of a digest.
type EventContent struct {
	Cards    []string `json:"cards,omitempty"`
	Schedule []string `json:"schedule,omitempty"`
	Sessions []string `json:"sessions,omitempty"`
	Speakers []string `json:"speakers,omitempty"`
	Times    []string `json:"times,omitempty"`
}

// IsEmpty reports whether no event-like content was found.
func (e *EventContent) IsEmpty() bool {
	if e == nil {
		return true
	}
	return len(e.Cards) == 0 && len(e.Schedule) == 0 && len(e.Sessions) == 0 &&
		len(e.Speakers) == 0 && len(e.Times) == 0
}
