package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/catalog"
	"github.com/kestrel-labs/kestrel/internal/config"
	"github.com/kestrel-labs/kestrel/internal/userdata"
)

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogRemoveCmd)
	catalogCmd.AddCommand(catalogRefreshCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the configured plugin catalogs",
	Long: `Manage the list of plugin catalogs this client reads from.

Catalogs are JSON documents fetched over HTTP and cached at
~/.kestrel/catalog-cache.json. The configured URLs live in
~/.kestrel/config.yaml.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured catalogs and their cache state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cache, err := openCatalogState()
		if err != nil {
			return err
		}

		urls := cfg.CatalogURLs()
		if len(urls) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No catalogs configured.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tUPDATED\tSTATUS")
		for _, url := range urls {
			entry := cache.GetByURL(url)
			if entry == nil || entry.Value == nil {
				fmt.Fprintf(w, "-\t%s\t-\tnot downloaded\n", url)
				continue
			}
			status := "fresh"
			if !entry.Fresh(catalog.DefaultMaxAge) {
				status = "stale"
			}
			age := time.Since(entry.Created).Truncate(time.Minute)
			fmt.Fprintf(w, "%s\t%s\t%s ago\t%s\n", entry.Value.ID, url, age, status)
		}
		return w.Flush()
	},
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a catalog by URL",
	Long: `Download the catalog document at the given URL, validate it, and add
the URL to the configured catalog list. Nothing is persisted when the
download or validation fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]

		cfg, cache, err := openCatalogState()
		if err != nil {
			return err
		}

		fetcher := catalog.NewHTTPFetcher(catalog.WithUserAgent(userAgent()))
		doc, err := fetcher.FetchDocument(cmd.Context(), url)
		if err != nil {
			return err
		}

		if err := cfg.AddCatalogURL(url); err != nil {
			return fmt.Errorf("adding catalog url: %w", err)
		}
		cache.Put(url, doc)
		if err := cache.Save(); err != nil {
			return err
		}

		plugins := 0
		for _, repo := range doc.Repositories {
			plugins += len(repo.Collection)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added catalog %s (%d repositories, %d plugins).\n",
			doc.ID, len(doc.Repositories), plugins)
		return nil
	},
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a configured catalog",
	Long: `Remove a catalog from the configured list and drop its cached
document. The catalog may be named by id or by URL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]

		cfg, cache, err := openCatalogState()
		if err != nil {
			return err
		}

		url := target
		if entry := cache.GetByID(target); entry != nil {
			url = entry.URL
			cache.Remove(target)
		} else if !strings.Contains(target, "://") {
			return fmt.Errorf("unknown catalog %s", target)
		} else if entry := cache.GetByURL(target); entry != nil && entry.Value != nil {
			cache.Remove(entry.Value.ID)
		}

		if err := cfg.RemoveCatalogURL(url); err != nil {
			return fmt.Errorf("removing catalog url: %w", err)
		}
		if err := cache.Save(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed catalog %s.\n", target)
		return nil
	},
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh [id]",
	Short: "Re-download catalogs",
	Long: `Re-download one catalog by id, or every configured catalog when no id
is given. The cache is updated on success.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := buildManager(cmd, false)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if err := mgr.ReloadCatalog(cmd.Context(), args[0]); err != nil {
				return err
			}
			mgr.Drain()
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed catalog %s.\n", args[0])
			return nil
		}

		mgr.ReloadAll(cmd.Context())
		mgr.Wait()
		fmt.Fprintln(cmd.OutOrStdout(), "Catalogs refreshed.")
		return nil
	},
}

// openCatalogState opens the config store and catalog cache without
// building a full manager.
func openCatalogState() (*config.Store, *catalog.Cache, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	cachePath, err := userdata.GetCacheFile()
	if err != nil {
		return nil, nil, err
	}
	cache, err := catalog.LoadCache(cachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog cache: %w", err)
	}
	return cfg, cache, nil
}
