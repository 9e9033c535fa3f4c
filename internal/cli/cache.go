// internal/cli/cache.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/ui"
)

// cacheCmd groups extraction-cache subcommands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the extraction result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache hit/miss statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		application := GetApp()
		if application == nil || application.Cache == nil {
			fmt.Println("Cache is disabled.")
			return nil
		}

		stats := application.Cache.Stats()
		fmt.Printf("Entries:     %v\n", stats["entries"])
		fmt.Printf("Size:        %v bytes\n", stats["size_bytes"])
		fmt.Printf("Utilization: %.1f%%\n", stats["utilization"])
		fmt.Printf("Hits:        %v\n", stats["hits"])
		fmt.Printf("Misses:      %v\n", stats["misses"])
		fmt.Printf("Hit rate:    %.1f%%\n", stats["hit_rate"])
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached extraction results",
	RunE: func(cmd *cobra.Command, args []string) error {
		application := GetApp()
		if application == nil || application.Cache == nil {
			fmt.Println("Cache is disabled.")
			return nil
		}

		if err := application.Cache.Clear(); err != nil {
			return err
		}
		fmt.Println(ui.Success("✓ Cache cleared"))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
