package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/pagelift/pagelift/pkg/models"
)

// SaveCSV writes extraction results to a CSV file: one row per result, one
// column per schema field plus the url. Schema order fixes the column order
// so re-runs produce diffable files.
func SaveCSV(results []*models.ExtractionResult, schema models.Schema, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := append([]string{"url"}, schema.FieldNames()...)
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, result := range results {
		row := make([]string, 0, len(headers))
		row = append(row, result.URL)
		for _, name := range schema.FieldNames() {
			row = append(row, formatValue(result.Data[name]))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; render integers without a
		// trailing ".0".
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
