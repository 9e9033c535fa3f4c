// Package cli provides the command-line interface for the pagelift application.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/app"
)

// SetApp stores the Application for commands to access.
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	globalApp = a
}

// GetApp retrieves the Application.
func GetApp() *app.Application {
	return globalApp
}

// GetAppFromCmd retrieves the Application for the given command.
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	return globalApp
}

var globalApp *app.Application
