package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/branding"
	"github.com/kestrel-labs/kestrel/internal/catalog"
	"github.com/kestrel-labs/kestrel/internal/compat"
	"github.com/kestrel-labs/kestrel/internal/config"
	"github.com/kestrel-labs/kestrel/internal/manager"
	"github.com/kestrel-labs/kestrel/internal/registry"
	"github.com/kestrel-labs/kestrel/internal/userdata"
)

// buildLogger constructs the process logger. The level comes from
// KESTREL_LOG_LEVEL and defaults to warn.
func buildLogger() hclog.Logger {
	level := hclog.LevelFromString(os.Getenv(branding.EnvVar("LOG_LEVEL")))
	if level == hclog.NoLevel {
		level = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   branding.CLIName(),
		Level:  level,
		Output: os.Stderr,
	})
}

// buildManager wires a plugin manager over the user's config file,
// plugin directory, and catalog cache. With assumeYes set, confirmation
// prompts are answered yes without asking; otherwise they read stdin.
// Notices and progress lines go to the command's error stream.
func buildManager(cmd *cobra.Command, assumeYes bool) (*manager.Manager, error) {
	log := buildLogger()

	cfg, err := config.Default()
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	pluginsRoot, err := userdata.GetPluginsRoot()
	if err != nil {
		return nil, err
	}
	cachePath, err := userdata.GetCacheFile()
	if err != nil {
		return nil, err
	}
	cache, err := catalog.LoadCache(cachePath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog cache: %w", err)
	}

	env := compat.CurrentEnvironment(buildVersion)
	reg := registry.New(pluginsRoot, env, log.Named("plugin-registry"))
	cats := catalog.NewManager(cache, log.Named("catalog"))
	fetcher := catalog.NewHTTPFetcher(catalog.WithUserAgent(userAgent()))

	confirm := func(title, question string) bool {
		if assumeYes {
			return true
		}
		return promptYesNo(cmd, question)
	}

	return manager.New(cfg, reg, cats, fetcher, env,
		manager.WithLogger(log.Named("plugin-manager")),
		manager.WithConfirm(confirm),
		manager.WithNotify(func(severity, title, message string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", severity, title, message)
		}),
		manager.WithStatus(func(message string) {
			fmt.Fprintln(cmd.ErrOrStderr(), message)
		}),
	), nil
}

func userAgent() string {
	return branding.CLIName() + "/" + buildVersion
}

// promptYesNo asks a question on stdout and reads one line from stdin.
// Only an explicit yes accepts; empty input declines.
func promptYesNo(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "? %s (y/N) ", question)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// printStaleCatalogHint nags on stderr when catalogs are cached but every
// cached copy is older than the freshness window. No network is touched.
func printStaleCatalogHint(w io.Writer) {
	cachePath, err := userdata.GetCacheFile()
	if err != nil {
		return
	}
	cache, err := catalog.LoadCache(cachePath)
	if err != nil {
		return
	}
	ids := cache.IDs()
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if e := cache.GetByID(id); e != nil && e.Fresh(catalog.DefaultMaxAge) {
			return
		}
	}
	fmt.Fprintf(w, "Catalog cache is stale. Run '%s plugins --refresh' to update it.\n", branding.CLIName())
}

// parseTarget splits a <catalog>/<repository>/<plugin> path.
func parseTarget(s string) (catalogID, repoID, pluginID string, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("expected <catalog>/<repository>/<plugin>, got %q", s)
	}
	return parts[0], parts[1], parts[2], nil
}
