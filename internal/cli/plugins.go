package cli

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/manager"
)

var (
	pluginsRefresh bool
	pluginsOffline bool
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Show every known plugin and its state",
	Long: `Show all plugins from the configured catalogs together with locally
installed ones, grouped by catalog and repository. The Installed and
Enabled columns reflect the persistent plugin state.`,
	Args: cobra.NoArgs,
	RunE: runPlugins,
}

func init() {
	pluginsCmd.Flags().BoolVar(&pluginsRefresh, "refresh", false, "Re-download every catalog even if the cache is fresh")
	pluginsCmd.Flags().BoolVar(&pluginsOffline, "offline", false, "Skip catalog downloads, show cached and local data only")
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, args []string) error {
	mgr, err := buildManager(cmd, false)
	if err != nil {
		return err
	}
	if err := mgr.Bootstrap(); err != nil {
		return err
	}

	if pluginsOffline {
		mgr.LoadCached()
	} else {
		mgr.StartCatalogLoad(cmd.Context(), pluginsRefresh)
		mgr.Wait()
	}
	mgr.Drain()

	renderTree(cmd.OutOrStdout(), mgr.Tree())
	return nil
}

// renderTree prints the display-row tree as a table, indenting the title
// column by tree depth.
func renderTree(w io.Writer, tree *manager.Tree) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Plugin", "Installed", "Enabled", "Compatible", "Version"})

	tree.Walk(func(idx int, row *manager.Row) bool {
		t.AppendRow(table.Row{
			indentTitle(tree, idx, row),
			toggleCell(row.Installed, row.VisibleInstalled),
			toggleCell(row.Enabled, row.VisibleEnabled),
			row.Compatibility,
			row.Version,
		})
		return true
	})

	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}

func indentTitle(tree *manager.Tree, idx int, row *manager.Row) string {
	depth := 0
	for p := tree.Parent(idx); p != manager.RootID; p = tree.Parent(p) {
		depth++
	}
	return strings.Repeat("  ", depth) + row.Title
}

// toggleCell renders a boolean column: blank when the toggle is hidden
// for this row, otherwise a checkbox.
func toggleCell(on, visible bool) string {
	if !visible {
		return ""
	}
	if on {
		return "[x]"
	}
	return "[ ]"
}
