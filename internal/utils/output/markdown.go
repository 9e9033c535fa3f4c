package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/pagelift/pagelift/pkg/models"
)

// SaveMarkdown writes extraction results as a Markdown table, one row per
// result. Pipe characters in values are escaped so the table stays parseable.
func SaveMarkdown(results []*models.ExtractionResult, schema models.Schema, filepath string) error {
	var b strings.Builder

	names := schema.FieldNames()
	b.WriteString("| URL |")
	for _, name := range names {
		fmt.Fprintf(&b, " %s |", name)
	}
	b.WriteString("\n|")
	for i := 0; i < len(names)+1; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, result := range results {
		fmt.Fprintf(&b, "| %s |", escapeCell(result.URL))
		for _, name := range names {
			fmt.Fprintf(&b, " %s |", escapeCell(formatValue(result.Data[name])))
		}
		b.WriteString("\n")
	}

	return os.WriteFile(filepath, []byte(b.String()), 0644)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
