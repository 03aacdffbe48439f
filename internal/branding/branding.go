// Package branding provides compile-time identity values for the client.
//
// Forkers edit branding.yaml at the repo root, then run `make build`.
// The Makefile syncs branding.yaml into this package before compilation,
// and Go's //go:embed bakes it into the binary.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

// Parsed branding values, loaded once on first access.
var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName           string `yaml:"cli_name"`
	DisplayName       string `yaml:"display_name"`
	Description       string `yaml:"description"`
	HomeDir           string `yaml:"home_dir"`
	EnvPrefix         string `yaml:"env_prefix"`
	GoModule          string `yaml:"go_module"`
	DefaultCatalogURL string `yaml:"default_catalog_url"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:           "kestrel",
			DisplayName:       "Kestrel",
			Description:       "Plugin manager for the Kestrel client",
			HomeDir:           ".kestrel",
			EnvPrefix:         "KESTREL",
			GoModule:          "github.com/kestrel-labs/kestrel",
			DefaultCatalogURL: "https://plugins.kestrel.dev/catalog.json",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "kestrel").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Kestrel").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".kestrel").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "KESTREL").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path (e.g., "github.com/kestrel-labs/kestrel").
// Recorded for forks that rename the module; not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// DefaultCatalogURL returns the catalog URL seeded into a fresh config.
func DefaultCatalogURL() string { load(); return defaults.DefaultCatalogURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("PLUGINS") → "KESTREL_PLUGINS".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
