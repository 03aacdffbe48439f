package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/branding"
	"github.com/kestrel-labs/kestrel/internal/catalog"
	"github.com/kestrel-labs/kestrel/internal/compat"
	"github.com/kestrel-labs/kestrel/internal/config"
	"github.com/kestrel-labs/kestrel/internal/registry"
	"github.com/kestrel-labs/kestrel/internal/userdata"
)

var (
	doctorFix      bool
	doctorManifest string
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Create missing directories and repair permissions")
	doctorCmd.Flags().StringVar(&doctorManifest, "check-manifest", "", "Validate a plugin manifest at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the plugin environment",
	Long:  `Run diagnostic checks on the configuration, catalog cache, and installed plugins.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if doctorManifest != "" {
			return runManifestCheck(out, doctorManifest)
		}

		if err := userdata.CheckLayout(out, doctorFix); err != nil {
			return err
		}
		runConfigCheck(out)
		runCacheCheck(out)
		runPluginCheck(out)
		return nil
	},
}

func runConfigCheck(w io.Writer) {
	fmt.Fprintln(w, "Config check:")

	path, err := userdata.GetConfigFile()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Fprintf(w, "  [MISS] %s not written yet\n", path)
		return
	}
	cfg, err := config.Open(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] Cannot parse %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s is valid\n", path)

	if urls := cfg.CatalogURLs(); len(urls) == 0 {
		fmt.Fprintf(w, "  [INFO] No catalog URLs configured; run '%s catalog add <url>'\n", branding.CLIName())
	} else {
		fmt.Fprintf(w, "  [ OK ] %d catalog URL(s) configured\n", len(urls))
	}
	fmt.Fprintf(w, "  [ OK ] %d plugin(s) recorded, %d enabled\n",
		len(cfg.InstalledPlugins()), len(cfg.EnabledPlugins()))
}

func runCacheCheck(w io.Writer) {
	fmt.Fprintln(w, "Catalog cache check:")

	path, err := userdata.GetCacheFile()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Fprintf(w, "  [MISS] No cache yet; run '%s plugins' to download catalogs\n", branding.CLIName())
		return
	}
	cache, err := catalog.LoadCache(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] Cannot parse %s: %v\n", path, err)
		return
	}
	ids := cache.IDs()
	if len(ids) == 0 {
		fmt.Fprintln(w, "  [INFO] Cache is empty")
		return
	}
	for _, id := range ids {
		entry := cache.GetByID(id)
		if entry == nil {
			continue
		}
		if entry.Fresh(catalog.DefaultMaxAge) {
			fmt.Fprintf(w, "  [ OK ] %s (fresh)\n", id)
		} else {
			fmt.Fprintf(w, "  [WARN] %s is stale; run '%s plugins --refresh'\n", id, branding.CLIName())
		}
	}
}

func runPluginCheck(w io.Writer) {
	fmt.Fprintln(w, "Plugin check:")

	root, err := userdata.GetPluginsRoot()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return
	}
	if _, statErr := os.Stat(root); os.IsNotExist(statErr) {
		fmt.Fprintln(w, "  [INFO] No plugins directory yet")
		return
	}

	env := compat.CurrentEnvironment(buildVersion)
	reg := registry.New(root, env, buildLogger().Named("doctor"))
	failed := 0
	if err := reg.LoadAll(func(id string, loadErr error) {
		failed++
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", id, loadErr)
	}); err != nil {
		fmt.Fprintf(w, "  [FAIL] Scanning %s: %v\n", root, err)
		return
	}
	ids := reg.IDs()
	for _, id := range ids {
		h := reg.Handle(id)
		if h == nil {
			continue
		}
		if h.IsCompatible() {
			fmt.Fprintf(w, "  [ OK ] %s (version %s)\n", id, h.Version)
		} else {
			fmt.Fprintf(w, "  [WARN] %s (version %s) has unmet requirements\n", id, h.Version)
		}
	}
	if failed == 0 && len(ids) == 0 {
		fmt.Fprintln(w, "  [INFO] No plugins installed")
	}
}

func runManifestCheck(w io.Writer, path string) error {
	fmt.Fprintf(w, "Manifest validation: %s\n", path)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return err
	}
	m, err := registry.ParseManifest(data)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("manifest validation failed: %w", err)
	}
	fmt.Fprintf(w, "  [ OK ] Valid manifest: %s (version %s)\n", m.ID, m.Version)

	env := compat.CurrentEnvironment(buildVersion)
	for _, req := range compat.Evaluate(m.Requirements, env) {
		if req.Met {
			fmt.Fprintf(w, "  [ OK ] %s %s\n", req.Type, req.Value)
		} else {
			fmt.Fprintf(w, "  [WARN] %s %s not met by this client\n", req.Type, req.Value)
		}
	}
	return nil
}
