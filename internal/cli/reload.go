package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload <plugin>",
	Short: "Reload a plugin from disk",
	Long: `Re-read a plugin's files from ~/.kestrel/plugins/ and refresh its
metadata. A plugin that was enabled stays enabled when the reload
succeeds. Useful after editing a plugin in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runReload,
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	pluginID := args[0]

	mgr, err := buildManager(cmd, false)
	if err != nil {
		return err
	}
	if err := mgr.Bootstrap(); err != nil {
		return err
	}
	mgr.Drain()

	if err := mgr.ReloadPlugin(pluginID); err != nil {
		return err
	}
	mgr.Drain()

	handle := mgr.Registry().Handle(pluginID)
	if handle != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Reloaded %s (version %s)\n", pluginID, handle.Version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reloaded %s\n", pluginID)
	return nil
}
