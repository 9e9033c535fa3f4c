// internal/cli/extract.go
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/ui"
	headerutil "github.com/pagelift/pagelift/internal/utils/headers"
	"github.com/pagelift/pagelift/internal/utils/output"
	"github.com/pagelift/pagelift/pkg/models"
)

var (
	extractFields       string
	extractSchemaFile   string
	extractInstructions string
	extractOutput       string
	extractRetries      int
	extractHeaders      []string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract structured data from one URL",
	Long: `Fetches the page (plain HTTP by default, headless Chrome with --script
or when the content looks client-rendered), then asks the configured AI
provider to fill in the fields you request.`,
	Example: `  # Extract two fields from a product page
  pagelift extract https://shop.example/widget --fields "title:string,price:number"

  # Use a schema file and steer the extraction
  pagelift extract https://shop.example/widget --schema fields.json --instructions "prices in USD"

  # Force browser rendering for a JS-heavy page
  pagelift extract https://app.example/dashboard --fields "status:string" --script

  # Save the result to a file
  pagelift extract https://shop.example/widget --fields "title" -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractFields, "fields", "f", "", "Comma-separated fields as name:type (e.g., \"title:string,price:number\")")
	extractCmd.Flags().StringVar(&extractSchemaFile, "schema", "", "Path to a JSON schema file")
	extractCmd.Flags().StringVarP(&extractInstructions, "instructions", "i", "", "Free-text guidance for the extractor")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "File path to save the result as JSON")
	extractCmd.Flags().IntVar(&extractRetries, "retries", 0, "Fetch retries per URL (default 2)")
	extractCmd.Flags().StringArrayVarP(&extractHeaders, "header", "H", []string{}, "Custom headers (e.g., -H \"Authorization: Bearer token\")")
}

func runExtract(cmd *cobra.Command, args []string) error {
	application := GetApp()
	if application == nil {
		return fmt.Errorf("application not initialized")
	}

	schema, err := resolveSchema(extractFields, extractSchemaFile)
	if err != nil {
		return err
	}

	if len(extractHeaders) > 0 {
		application.StaticFetcher.SetHeaders(headerutil.ParseHeaders(extractHeaders))
	}

	req := models.ExtractionRequest{
		URL:          args[0],
		Schema:       schema,
		Instructions: extractInstructions,
		MaxRetries:   extractRetries,
	}
	if scriptFlag := cmd.Flags().Lookup("script"); scriptFlag != nil && scriptFlag.Changed {
		preferScript := scriptFlag.Value.String() == "true"
		req.ScriptOverride = &preferScript
		if preferScript {
			if err := application.EnsureBrowserPool(cmd.Context()); err != nil {
				return err
			}
		}
	}

	result := application.Pipeline.ExtractOne(cmd.Context(), req)

	if extractOutput != "" {
		if err := output.SaveJSON([]*models.ExtractionResult{result}, extractOutput); err != nil {
			return err
		}
		fmt.Printf("Saved to %s\n", extractOutput)
	} else {
		printResult(result)
	}

	if !result.Success {
		return fmt.Errorf("extraction failed for %s", result.URL)
	}
	return nil
}

func printResult(result *models.ExtractionResult) {
	fmt.Printf("\nURL:       %s\n", ui.Bold(result.URL))
	fmt.Printf("Provider:  %s\n", result.ProviderTag)
	fmt.Printf("Elapsed:   %s\n", result.Elapsed.Round(time.Millisecond))

	if !result.Success {
		fmt.Printf("Error:     %s\n", ui.Error(result.Error))
		return
	}

	data, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render data: %v\n", err)
		return
	}
	fmt.Printf("\n%s\n", data)
}
