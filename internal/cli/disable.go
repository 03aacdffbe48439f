package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var disableCmd = &cobra.Command{
	Use:   "disable <plugin>",
	Short: "Disable an enabled plugin",
	Long:  `Mark a plugin as disabled without removing it. The setting persists across restarts.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDisable,
}

func init() {
	rootCmd.AddCommand(disableCmd)
}

func runDisable(cmd *cobra.Command, args []string) error {
	pluginID := args[0]

	mgr, err := buildManager(cmd, false)
	if err != nil {
		return err
	}
	if err := mgr.Bootstrap(); err != nil {
		return err
	}
	mgr.Drain()

	if err := mgr.Disable(pluginID); err != nil {
		return err
	}
	mgr.Drain()

	fmt.Fprintf(cmd.OutOrStdout(), "Disabled %s\n", pluginID)
	return nil
}
