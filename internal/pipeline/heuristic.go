// internal/pipeline/heuristic.go
package pipeline

import "strings"

// clientRenderingTokens are substrings that suggest a plain HTTP fetch
// failed because the page builds its content in the browser. Matching is
// case-insensitive. The list is ordered most-specific first and is a
// heuristic: tuning it changes escalation behavior, not correctness.
var clientRenderingTokens = []string{
	"javascript",
	"js",
	"dynamic",
	"react",
	"vue",
	"angular",
	"spa",
	"empty",
	"no content",
}

// suggestsClientRendering reports whether a fetch error looks like the page
// needs a browser to render. Used to decide HTTP → script escalation.
func suggestsClientRendering(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, token := range clientRenderingTokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}
