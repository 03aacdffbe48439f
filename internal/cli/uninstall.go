package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallYes bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <plugin>",
	Short: "Remove an installed plugin",
	Long: `Remove a plugin's files from ~/.kestrel/plugins/ and drop its
installation record. An enabled plugin is disabled first, after
confirmation.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVarP(&uninstallYes, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	pluginID := args[0]

	mgr, err := buildManager(cmd, uninstallYes)
	if err != nil {
		return err
	}
	if err := mgr.Bootstrap(); err != nil {
		return err
	}
	mgr.Drain()

	if _, ok := mgr.Config().InstallSourceFor(pluginID); !ok {
		return fmt.Errorf("plugin %s is not installed", pluginID)
	}

	if mgr.Registry().IsEnabled(pluginID) {
		if !uninstallYes && !promptYesNo(cmd, fmt.Sprintf("Plugin %s is enabled. Disable and uninstall it?", pluginID)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Uninstall cancelled.")
			return nil
		}
		if err := mgr.Disable(pluginID); err != nil {
			return err
		}
	}

	if err := mgr.Uninstall(pluginID); err != nil {
		return err
	}
	mgr.Drain()

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", pluginID)
	return nil
}
