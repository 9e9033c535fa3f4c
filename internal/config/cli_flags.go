package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format only")
	cmd.PersistentFlags().String("provider", "", "AI provider (anthropic or openai)")
	cmd.PersistentFlags().String("model", "", "Model name (defaults to the provider's standard model)")
	cmd.PersistentFlags().Bool("script", false, "Prefer the browser-rendering fetch strategy")
	cmd.PersistentFlags().Bool("no-cache", false, "Disable extraction result caching")
	cmd.PersistentFlags().String("proxy", "", "Comma-separated HTTP/SOCKS5 proxies (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "30s", "Hard timeout for each fetch")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
}
