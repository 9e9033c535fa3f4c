// internal/cli/batch.go
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/ui"
	"github.com/pagelift/pagelift/internal/utils/output"
	"github.com/pagelift/pagelift/pkg/models"
)

var (
	batchFields       string
	batchSchemaFile   string
	batchInstructions string
	batchOutput       string
	batchConcurrency  int
	batchRetries      int
	batchChunkSize    int
	batchFailFast     bool
	batchNoProgress   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <urls-file>",
	Short: "Extract structured data from many URLs",
	Long: `Reads URLs from a file (one per line, # comments allowed) and runs the
extraction pipeline over them with bounded concurrency. Failed URLs are
dropped from the output unless --fail-fast is set, in which case the first
failure aborts the whole batch.`,
	Example: `  # Extract from a list of product pages, 5 at a time
  pagelift batch urls.txt --fields "title:string,price:number" --concurrency 5

  # Abort on the first failure
  pagelift batch urls.txt --schema fields.json --fail-fast

  # Bound peak browser/connection usage with chunking
  pagelift batch urls.txt --fields "title" --chunk-size 10 -o results.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchFields, "fields", "f", "", "Comma-separated fields as name:type")
	batchCmd.Flags().StringVar(&batchSchemaFile, "schema", "", "Path to a JSON schema file")
	batchCmd.Flags().StringVarP(&batchInstructions, "instructions", "i", "", "Free-text guidance for the extractor")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "File path for results (.json, .csv, or .md)")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "Max URLs processed simultaneously (default 3)")
	batchCmd.Flags().IntVar(&batchRetries, "retries", 0, "Fetch retries per URL (default 2)")
	batchCmd.Flags().IntVar(&batchChunkSize, "chunk-size", 0, "Process URLs in sequential chunks of this size (0 disables)")
	batchCmd.Flags().BoolVar(&batchFailFast, "fail-fast", false, "Abort the batch on the first failed URL")
	batchCmd.Flags().BoolVar(&batchNoProgress, "no-progress", false, "Disable the progress bar")
}

func runBatch(cmd *cobra.Command, args []string) error {
	application := GetApp()
	if application == nil {
		return fmt.Errorf("application not initialized")
	}

	schema, err := resolveSchema(batchFields, batchSchemaFile)
	if err != nil {
		return err
	}

	urls, err := readURLFile(args[0])
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", args[0])
	}

	req := models.NewBatchRequest(urls, schema)
	req.Instructions = batchInstructions
	req.MaxRetries = batchRetries
	if batchConcurrency > 0 {
		req.Concurrency = batchConcurrency
	} else {
		req.Concurrency = application.Config.Concurrency
	}
	req.ContinueOnError = !batchFailFast

	if scriptFlag := cmd.Flags().Lookup("script"); scriptFlag != nil && scriptFlag.Changed {
		preferScript := scriptFlag.Value.String() == "true"
		req.ScriptOverride = &preferScript
		if preferScript {
			if err := application.EnsureBrowserPool(cmd.Context()); err != nil {
				return err
			}
		}
	}

	if !batchNoProgress {
		bar := progressbar.NewOptions(len(urls),
			progressbar.OptionSetDescription("extracting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		application.Runner.SetProgress(func(completed, total int) {
			_ = bar.Set(completed)
		})
	}

	chunkSize := batchChunkSize
	if chunkSize == 0 {
		chunkSize = application.Config.ChunkSize
	}

	var results []*models.ExtractionResult
	if chunkSize > 0 {
		results, err = application.Runner.RunChunked(cmd.Context(), req, chunkSize)
	} else {
		results, err = application.Runner.Run(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, ui.Info(fmt.Sprintf("%d of %d URLs extracted", len(results), len(urls))))

	if batchOutput == "" {
		return output.WriteJSON(os.Stdout, results)
	}

	switch {
	case strings.HasSuffix(batchOutput, ".csv"):
		err = output.SaveCSV(results, schema, batchOutput)
	case strings.HasSuffix(batchOutput, ".md"):
		err = output.SaveMarkdown(results, schema, batchOutput)
	default:
		err = output.SaveJSON(results, batchOutput)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d results to %s\n", len(results), batchOutput)
	return nil
}

// readURLFile loads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL file: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
