package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/manager"
)

var installYes bool

var installCmd = &cobra.Command{
	Use:   "install <catalog>/<repository>/<plugin>",
	Short: "Download and install a plugin from a catalog",
	Long: `Download a plugin's files from a catalog repository, verify their
checksums, and install them into ~/.kestrel/plugins/.

If the plugin is already installed from a different catalog or repository,
the existing copy is replaced after confirmation.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	catalogID, repoID, pluginID, err := parseTarget(args[0])
	if err != nil {
		return err
	}

	mgr, err := buildManager(cmd, installYes)
	if err != nil {
		return err
	}
	if err := mgr.Refresh(cmd.Context(), false); err != nil {
		return err
	}
	mgr.Drain()

	if err := mgr.Install(cmd.Context(), catalogID, repoID, pluginID); err != nil {
		if errors.Is(err, manager.ErrDeclined) {
			fmt.Fprintln(cmd.OutOrStdout(), "Installation cancelled.")
			return nil
		}
		return err
	}
	mgr.Drain()

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s from %s/%s.\n", pluginID, catalogID, repoID)
	if loadErr, ok := mgr.ModuleError(pluginID); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s installed but failed to load: %v\n", pluginID, loadErr)
	}
	return nil
}
