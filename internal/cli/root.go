package cli

import (
	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/branding"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` manages the plugins of the ` + branding.DisplayName() + ` client: it downloads
plugin catalogs, installs plugins from them, and keeps track of which
installed plugins are enabled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Commands that load or manage catalogs themselves skip the
		// staleness hint.
		switch cmd.Name() {
		case "plugins", "install", "info", "version", "doctor", "list", "add", "remove", "refresh":
			return
		}
		printStaleCatalogHint(cmd.ErrOrStderr())
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
