// internal/pipeline/digest_test.go
package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pagelift/pagelift/pkg/models"
)

func fullDigest() *models.PageDigest {
	return &models.PageDigest{
		Title:       "Tech Summit 2026",
		URL:         "https://example.com/summit",
		Description: "Annual technology summit",
		Keywords:    "tech, summit",
		EventContent: &models.EventContent{
			Cards:    []string{"Opening keynote"},
			Speakers: []string{"Dr. Ada Voss", "J. Rivera"},
			Times:    []string{"09:00"},
		},
		Headings: map[string][]string{
			"h1": {"Tech Summit 2026"},
			"h2": {"Program", "Venue"},
		},
		ContentBlocks: []string{"The summit brings together practitioners."},
		Links: []models.Link{
			{Text: "Register now", Href: "/register"},
		},
		Stats:    map[string]int{"links": 3, "headings": 2},
		FullText: "Tech Summit 2026 Program Venue",
	}
}

func TestRenderDigestSections(t *testing.T) {
	out := RenderDigest(fullDigest())

	wantOrder := []string{
		"=== PAGE INFORMATION ===",
		"Title: Tech Summit 2026",
		"URL: https://example.com/summit",
		"=== META DATA ===",
		"Description: Annual technology summit",
		"Keywords: tech, summit",
		"=== EVENT CONTENT ===",
		"Cards:\n  - Opening keynote",
		"Speakers:\n  - Dr. Ada Voss\n  - J. Rivera",
		"Times:\n  - 09:00",
		"=== HEADINGS ===",
		"H1:\n  - Tech Summit 2026",
		"H2:\n  - Program\n  - Venue",
		"=== CONTENT SECTIONS ===",
		"  - The summit brings together practitioners.",
		"=== LINKS ===",
		"  - Register now -> /register",
		"=== PAGE STATISTICS ===",
		"headings: 2",
		"links: 3",
		"=== FULL PAGE TEXT ===",
		"Tech Summit 2026 Program Venue",
	}

	pos := 0
	for _, want := range wantOrder {
		idx := strings.Index(out[pos:], want)
		if idx == -1 {
			t.Fatalf("missing or out-of-order fragment %q in:\n%s", want, out)
		}
		pos += idx + len(want)
	}
}

func TestRenderDigestOmitsEmptySections(t *testing.T) {
	out := RenderDigest(&models.PageDigest{
		Title: "Plain",
		URL:   "https://example.com",
	})

	if !strings.Contains(out, "=== PAGE INFORMATION ===") {
		t.Error("page information section must always be present")
	}
	for _, header := range []string{
		"=== META DATA ===",
		"=== EVENT CONTENT ===",
		"=== HEADINGS ===",
		"=== CONTENT SECTIONS ===",
		"=== LINKS ===",
		"=== PAGE STATISTICS ===",
		"=== FULL PAGE TEXT ===",
	} {
		if strings.Contains(out, header) {
			t.Errorf("empty section %q must be omitted", header)
		}
	}
}

func TestRenderDigestSubListLimit(t *testing.T) {
	d := &models.PageDigest{Title: "T", URL: "u"}
	d.EventContent = &models.EventContent{}
	for i := 0; i < 15; i++ {
		d.EventContent.Speakers = append(d.EventContent.Speakers, fmt.Sprintf("Speaker %d", i))
	}

	out := RenderDigest(d)
	if n := strings.Count(out, "  - Speaker "); n != maxSubListItems {
		t.Errorf("rendered %d speakers, want %d", n, maxSubListItems)
	}
}

func TestRenderDigestDeterministic(t *testing.T) {
	a := RenderDigest(fullDigest())
	b := RenderDigest(fullDigest())
	if a != b {
		t.Error("identical digests rendered differently")
	}
}
