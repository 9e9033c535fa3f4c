package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pagelift/pagelift/pkg/models"
)

// WriteJSON streams extraction results as indented JSON.
func WriteJSON(w io.Writer, results []*models.ExtractionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// SaveJSON writes extraction results as indented JSON to filepath.
func SaveJSON(results []*models.ExtractionResult, filepath string) error {
	content, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, content, 0644)
}
