package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/manager"
)

var enableCmd = &cobra.Command{
	Use:   "enable <plugin>",
	Short: "Enable an installed plugin",
	Long: `Mark an installed plugin as enabled. The plugin must load cleanly and
be compatible with this client. The setting persists across restarts.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnable,
}

func init() {
	rootCmd.AddCommand(enableCmd)
}

func runEnable(cmd *cobra.Command, args []string) error {
	pluginID := args[0]

	mgr, err := buildManager(cmd, false)
	if err != nil {
		return err
	}
	if err := mgr.Bootstrap(); err != nil {
		return err
	}
	mgr.Drain()

	if err := mgr.Enable(pluginID); err != nil {
		if errors.Is(err, manager.ErrLoadFailed) {
			if loadErr, ok := mgr.ModuleError(pluginID); ok {
				fmt.Fprintln(cmd.ErrOrStderr(), loadErr.Trace)
			}
		}
		return err
	}
	mgr.Drain()

	fmt.Fprintf(cmd.OutOrStdout(), "Enabled %s\n", pluginID)
	return nil
}
