package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/compat"
	"github.com/kestrel-labs/kestrel/internal/manager"
)

var infoCmd = &cobra.Command{
	Use:   "info <plugin-or-path>",
	Short: "Show details for a plugin, catalog, or repository",
	Long: `Show detailed information about an installed plugin (by id), a catalog
(by id), a repository (<catalog>/<repository>), or a published plugin
(<catalog>/<repository>/<plugin>).`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	target := args[0]

	mgr, err := buildManager(cmd, false)
	if err != nil {
		return err
	}
	if err := mgr.Refresh(cmd.Context(), false); err != nil {
		return err
	}
	mgr.Drain()

	out := cmd.OutOrStdout()
	parts := strings.Split(target, "/")
	switch len(parts) {
	case 1:
		return infoSingle(out, mgr, target)
	case 2:
		return infoRepository(out, mgr, parts[0], parts[1])
	case 3:
		return infoEntry(out, mgr, parts[0], parts[1], parts[2])
	}
	return fmt.Errorf("expected an id or <catalog>/<repository>[/<plugin>], got %q", target)
}

// infoSingle resolves a bare id: a loaded plugin first, then a plugin
// with a load error, then a catalog.
func infoSingle(w io.Writer, mgr *manager.Manager, id string) error {
	if handle := mgr.Registry().Handle(id); handle != nil {
		src, _ := mgr.Config().InstallSourceFor(id)
		origin := "local"
		if src != nil {
			origin = src.CatalogID + "/" + src.RepoID
		}

		fmt.Fprintf(w, "ID:          %s\n", handle.ID)
		fmt.Fprintf(w, "Title:       %s\n", handle.Title)
		fmt.Fprintf(w, "Version:     %s\n", handle.Version)
		if len(handle.Authors) > 0 {
			fmt.Fprintf(w, "Authors:     %s\n", strings.Join(handle.Authors, ", "))
		}
		if handle.Description != "" {
			fmt.Fprintf(w, "Description: %s\n", handle.Description)
		}
		if handle.Homepage != "" {
			fmt.Fprintf(w, "Homepage:    %s\n", handle.Homepage)
		}
		fmt.Fprintf(w, "Path:        %s\n", handle.Path())
		fmt.Fprintf(w, "Source:      %s\n", origin)
		fmt.Fprintf(w, "Enabled:     %s\n", yesNo(mgr.Config().IsEnabled(id)))
		fmt.Fprintf(w, "Compatible:  %s\n", yesNo(handle.IsCompatible()))
		renderRequirements(w, handle.Compatibility())
		return nil
	}

	if loadErr, ok := mgr.ModuleError(id); ok {
		fmt.Fprintf(w, "ID:     %s\n", id)
		fmt.Fprintf(w, "Status: failed to load\n")
		fmt.Fprintln(w)
		fmt.Fprintln(w, loadErr.Trace)
		return nil
	}

	if doc := mgr.Catalogs().Catalog(id); doc != nil {
		fmt.Fprintf(w, "ID:           %s\n", doc.ID)
		fmt.Fprintf(w, "Title:        %s\n", doc.DisplayTitle())
		if doc.Description != "" {
			fmt.Fprintf(w, "Description:  %s\n", doc.Description)
		}
		if len(doc.Maintainers) > 0 {
			fmt.Fprintf(w, "Maintainers:  %s\n", strings.Join(doc.Maintainers, ", "))
		}
		if doc.Homepage != "" {
			fmt.Fprintf(w, "Homepage:     %s\n", doc.Homepage)
		}
		fmt.Fprintf(w, "URL:          %s\n", mgr.Catalogs().URL(id))
		fmt.Fprintf(w, "Repositories: %d\n", len(doc.Repositories))
		for _, repo := range doc.Repositories {
			fmt.Fprintf(w, "  %s (%d plugins)\n", repo.ID, len(repo.Collection))
		}
		return nil
	}

	return fmt.Errorf("no plugin or catalog named %s", id)
}

func infoRepository(w io.Writer, mgr *manager.Manager, catalogID, repoID string) error {
	doc := mgr.Catalogs().Catalog(catalogID)
	if doc == nil {
		return fmt.Errorf("catalog %s: %w", catalogID, manager.ErrUnknownCatalog)
	}
	repo := doc.Repository(repoID)
	if repo == nil {
		return fmt.Errorf("repository %s/%s: %w", catalogID, repoID, manager.ErrUnknownRepository)
	}

	fmt.Fprintf(w, "ID:          %s/%s\n", catalogID, repo.ID)
	fmt.Fprintf(w, "Title:       %s\n", repo.DisplayTitle())
	if repo.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", repo.Description)
	}
	if repo.Homepage != "" {
		fmt.Fprintf(w, "Homepage:    %s\n", repo.Homepage)
	}
	if repo.URLBase != "" {
		fmt.Fprintf(w, "Files from:  %s\n", repo.URLBase)
	}
	fmt.Fprintf(w, "Plugins:     %d\n", len(repo.Collection))
	return nil
}

func infoEntry(w io.Writer, mgr *manager.Manager, catalogID, repoID, pluginID string) error {
	entry := mgr.Catalogs().Entry(catalogID, repoID, pluginID)
	if entry == nil {
		return fmt.Errorf("plugin %s is not listed in %s/%s", pluginID, catalogID, repoID)
	}

	src, recorded := mgr.Config().InstallSourceFor(pluginID)
	installedHere := recorded && src != nil && src.CatalogID == catalogID && src.RepoID == repoID

	fmt.Fprintf(w, "ID:          %s\n", pluginID)
	fmt.Fprintf(w, "Title:       %s\n", entry.Title)
	fmt.Fprintf(w, "Version:     %s\n", entry.Version)
	if len(entry.Authors) > 0 {
		fmt.Fprintf(w, "Authors:     %s\n", strings.Join(entry.Authors, ", "))
	}
	if entry.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", entry.Description)
	}
	if entry.Homepage != "" {
		fmt.Fprintf(w, "Homepage:    %s\n", entry.Homepage)
	}
	fmt.Fprintf(w, "Installed:   %s\n", yesNo(installedHere))
	if installedHere {
		fmt.Fprintf(w, "Enabled:     %s\n", yesNo(mgr.Config().IsEnabled(pluginID)))
	}
	fmt.Fprintf(w, "Compatible:  %s\n", yesNo(mgr.Catalogs().IsCompatible(catalogID, repoID, pluginID, mgr.Env())))
	renderRequirements(w, mgr.Catalogs().Compatibility(catalogID, repoID, pluginID, mgr.Env()))
	return nil
}

// renderRequirements prints the evaluated requirement table, or nothing
// when the plugin declares no requirements.
func renderRequirements(w io.Writer, reqs []compat.Requirement) {
	if len(reqs) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Requirement", "Value", "Met"})
	for _, r := range reqs {
		t.AppendRow(table.Row{r.Type, r.Value, yesNo(r.Met)})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
