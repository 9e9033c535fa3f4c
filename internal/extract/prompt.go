// internal/extract/prompt.go
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pagelift/pagelift/pkg/models"
)

const systemPrompt = `You are a data extraction engine. You read page content and emit structured data.
Respond with a single JSON object and nothing else: no prose, no markdown fences.
Use null for fields the content does not answer. Never invent values.`

// buildPrompt renders a deterministic extraction prompt: same content,
// schema and instructions always produce the same string, which keeps the
// result cache effective.
func buildPrompt(content string, schema models.Schema, instructions string) string {
	var b strings.Builder

	b.WriteString("Extract the following fields from the page content below.\n\n")
	b.WriteString("Fields:\n")
	for _, field := range schema {
		fmt.Fprintf(&b, "  - %s (%s)\n", field.Name, field.Type)
	}

	if instructions != "" {
		b.WriteString("\nAdditional instructions:\n")
		b.WriteString(instructions)
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with a JSON object whose keys are exactly the field names above.\n")
	b.WriteString("\n--- PAGE CONTENT ---\n")
	b.WriteString(content)

	return b.String()
}

// parseResponse decodes a model response into a field map. Models sometimes
// wrap JSON in markdown fences or lead with commentary despite instructions,
// so the parser strips fences and falls back to the outermost JSON object.
func parseResponse(text string, schema models.Schema) (map[string]any, error) {
	cleaned := stripCodeFences(strings.TrimSpace(text))

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		// Try the outermost {...} span.
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("response is not a JSON object: %w", err)
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &data); err != nil {
			return nil, fmt.Errorf("response is not a JSON object: %w", err)
		}
	}

	// Fields the model omitted are reported as explicit nulls so the output
	// shape matches the requested schema.
	for _, field := range schema {
		if _, ok := data[field.Name]; !ok {
			data[field.Name] = nil
		}
	}

	return data, nil
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" on the fence line.
	if idx := strings.Index(s, "\n"); idx != -1 {
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine != "" && !strings.HasPrefix(firstLine, "{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
