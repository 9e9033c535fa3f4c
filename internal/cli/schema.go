// internal/cli/schema.go
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pagelift/pagelift/pkg/models"
)

// parseFieldsFlag turns "title:string,price:number" into a schema. A field
// without a type defaults to "string".
func parseFieldsFlag(spec string) (models.Schema, error) {
	var schema models.Schema
	seen := make(map[string]bool)

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, fieldType := part, "string"
		if idx := strings.Index(part, ":"); idx != -1 {
			name = strings.TrimSpace(part[:idx])
			fieldType = strings.TrimSpace(part[idx+1:])
		}
		if name == "" {
			return nil, fmt.Errorf("empty field name in %q", part)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate field %q", name)
		}
		seen[name] = true
		schema = append(schema, models.Field{Name: name, Type: fieldType})
	}

	if schema.IsEmpty() {
		return nil, fmt.Errorf("no fields specified")
	}
	return schema, nil
}

// loadSchemaFile reads a JSON schema file: either a list of
// {"name": ..., "type": ...} objects or a {"field": "type"} map.
func loadSchemaFile(path string) (models.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	var schema models.Schema
	if err := json.Unmarshal(data, &schema); err == nil && !schema.IsEmpty() {
		if err := checkFieldNames(schema); err != nil {
			return nil, err
		}
		return schema, nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(data, &asMap); err != nil {
		return nil, fmt.Errorf("schema file must be a field list or a name/type map: %w", err)
	}
	// Map iteration order is randomized per run; sort the names so the same
	// file always yields the same field order. Prompts, cache keys and CSV
	// column order all depend on it.
	names := make([]string, 0, len(asMap))
	for name := range asMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		schema = append(schema, models.Field{Name: name, Type: asMap[name]})
	}
	if schema.IsEmpty() {
		return nil, fmt.Errorf("schema file declares no fields")
	}
	if err := checkFieldNames(schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// checkFieldNames rejects empty and duplicate field names in a loaded schema.
func checkFieldNames(schema models.Schema) error {
	seen := make(map[string]bool, len(schema))
	for _, f := range schema {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema file contains an empty field name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q in schema file", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// resolveSchema combines the --fields and --schema flags; exactly one must
// be provided.
func resolveSchema(fields, schemaFile string) (models.Schema, error) {
	switch {
	case fields != "" && schemaFile != "":
		return nil, fmt.Errorf("use either --fields or --schema, not both")
	case fields != "":
		return parseFieldsFlag(fields)
	case schemaFile != "":
		return loadSchemaFile(schemaFile)
	default:
		return nil, fmt.Errorf("a schema is required: pass --fields or --schema")
	}
}
