// internal/fetch/dynamic/digest_test.go
package dynamic

import (
	"fmt"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Tech Summit 2026</title>
	<meta name="description" content="Annual technology summit">
	<meta name="keywords" content="tech, conference, summit">
</head>
<body>
	<h1>Tech Summit 2026</h1>
	<h2>Program</h2>
	<div class="event-listing">
		<div class="event-card">Opening keynote with industry leaders covering the state of the ecosystem</div>
		<div class="session">Workshop: building resilient data pipelines for production workloads</div>
		<span class="speaker">Dr. Ada Voss</span>
		<time>09:00</time>
	</div>
	<p>The summit brings together practitioners from around the world for two days of talks, workshops, and hallway conversations about modern infrastructure.</p>
	<a href="/register">Register now</a>
	<a href="javascript:void(0)">noop</a>
	<a href="/schedule"></a>
</body>
</html>`

func TestBuildDigest(t *testing.T) {
	digest, err := BuildDigest("https://example.com/summit", samplePage)
	if err != nil {
		t.Fatalf("BuildDigest failed: %v", err)
	}

	if digest.Title != "Tech Summit 2026" {
		t.Errorf("Title = %q, want %q", digest.Title, "Tech Summit 2026")
	}
	if digest.URL != "https://example.com/summit" {
		t.Errorf("URL = %q", digest.URL)
	}
	if digest.Description != "Annual technology summit" {
		t.Errorf("Description = %q", digest.Description)
	}
	if digest.Keywords != "tech, conference, summit" {
		t.Errorf("Keywords = %q", digest.Keywords)
	}

	if digest.EventContent == nil {
		t.Fatal("expected event content to be detected")
	}
	if len(digest.EventContent.Cards) != 1 || !strings.Contains(digest.EventContent.Cards[0], "Opening keynote") {
		t.Errorf("Cards = %v", digest.EventContent.Cards)
	}
	if len(digest.EventContent.Sessions) != 1 {
		t.Errorf("Sessions = %v", digest.EventContent.Sessions)
	}
	if len(digest.EventContent.Speakers) != 1 || digest.EventContent.Speakers[0] != "Dr. Ada Voss" {
		t.Errorf("Speakers = %v", digest.EventContent.Speakers)
	}
	if len(digest.EventContent.Times) == 0 {
		t.Errorf("expected at least one time entry")
	}

	if got := digest.Headings["h1"]; len(got) != 1 || got[0] != "Tech Summit 2026" {
		t.Errorf("h1 headings = %v", got)
	}
	if got := digest.Headings["h2"]; len(got) != 1 || got[0] != "Program" {
		t.Errorf("h2 headings = %v", got)
	}

	if len(digest.ContentBlocks) == 0 {
		t.Fatal("expected content blocks")
	}
	found := false
	for _, block := range digest.ContentBlocks {
		if strings.Contains(block, "brings together practitioners") {
			found = true
		}
	}
	if !found {
		t.Errorf("paragraph not captured in content blocks: %v", digest.ContentBlocks)
	}

	// javascript: links are dropped; relative hrefs resolve against the page
	// URL; links with no text fall back to the resolved href.
	if len(digest.Links) != 2 {
		t.Fatalf("Links = %v, want 2 entries", digest.Links)
	}
	if digest.Links[0].Text != "Register now" || digest.Links[0].Href != "https://example.com/register" {
		t.Errorf("first link = %+v", digest.Links[0])
	}
	if digest.Links[1].Text != "https://example.com/schedule" {
		t.Errorf("empty-text link should use resolved href as text, got %+v", digest.Links[1])
	}

	if digest.Stats["headings"] != 2 {
		t.Errorf("Stats[headings] = %d, want 2", digest.Stats["headings"])
	}
	if digest.Stats["links"] != 3 {
		t.Errorf("Stats[links] = %d, want 3", digest.Stats["links"])
	}

	if digest.FullText == "" || !strings.Contains(digest.FullText, "Tech Summit 2026") {
		t.Errorf("FullText missing page text: %q", digest.FullText)
	}
}

func TestBuildDigestNoEventContent(t *testing.T) {
	html := `<html><head><title>Plain</title></head><body><p>Just a plain page with enough text to count as a content block here.</p></body></html>`
	digest, err := BuildDigest("https://example.com", html)
	if err != nil {
		t.Fatalf("BuildDigest failed: %v", err)
	}
	if digest.EventContent != nil {
		t.Errorf("expected no event content, got %+v", digest.EventContent)
	}
}

func TestBuildDigestLimits(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "<p>Block %02d: %s</p>", i, strings.Repeat("x", 600))
	}
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, `<a href="/page-%d">Page %d</a>`, i, i)
	}
	b.WriteString("</body></html>")

	digest, err := BuildDigest("https://example.com", b.String())
	if err != nil {
		t.Fatalf("BuildDigest failed: %v", err)
	}

	if len(digest.ContentBlocks) != maxContentBlocks {
		t.Errorf("ContentBlocks = %d, want %d", len(digest.ContentBlocks), maxContentBlocks)
	}
	for i, block := range digest.ContentBlocks {
		if len(block) > maxBlockLen+3 {
			t.Errorf("block %d exceeds limit: %d chars", i, len(block))
		}
	}
	if len(digest.Links) != maxLinks {
		t.Errorf("Links = %d, want %d", len(digest.Links), maxLinks)
	}
	if len(digest.FullText) > maxFullTextLen+3 {
		t.Errorf("FullText = %d chars, exceeds limit", len(digest.FullText))
	}
}
