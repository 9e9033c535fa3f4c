// internal/cli/keys.go
package cli

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pagelift/pagelift/internal/keys"
	"github.com/pagelift/pagelift/internal/ui"
)

// keysCmd groups API key management subcommands.
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys",
	Long: `Stores API keys in the OS keyring (or a file fallback in CI).
Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY) always take
precedence over stored keys.`,
}

var keysSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store an API key for a provider",
	Example: `  # Prompted for the key (not echoed)
  pagelift keys set anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := strings.ToLower(args[0])

		fmt.Printf("API key for %s: ", provider)
		keyBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}

		if err := keys.Set(provider, string(keyBytes)); err != nil {
			return err
		}
		fmt.Println(ui.Success("✓ Key stored for " + provider))
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove a stored API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := strings.ToLower(args[0])
		if err := keys.Delete(provider); err != nil {
			return err
		}
		fmt.Println(ui.Success("✓ Key deleted for " + provider))
		return nil
	},
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers with stored keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, err := keys.List()
		if err != nil {
			return err
		}
		if len(providers) == 0 {
			fmt.Println("No API keys stored.")
			return nil
		}
		for _, p := range providers {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysSetCmd, keysDeleteCmd, keysListCmd)
	rootCmd.AddCommand(keysCmd)
}
