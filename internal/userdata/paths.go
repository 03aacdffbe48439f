package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kestrel-labs/kestrel/internal/branding"
)

// Directory and file name constants under ~/.kestrel/.
const (
	PluginsDir = "plugins"
	CacheFile  = "catalog-cache.json"
	ConfigFile = "config.yaml"
)

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
	DirPermNormal  os.FileMode = 0755
	FilePermNormal os.FileMode = 0644
)

// Dir returns the path to the client's dot directory (~/.kestrel).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.HomeDir()), nil
}

// GetPluginsRoot returns the directory plugin artifacts are installed into.
// It checks the KESTREL_PLUGINS environment variable first,
// then falls back to ~/.kestrel/plugins.
func GetPluginsRoot() (string, error) {
	if v := os.Getenv(branding.EnvVar("PLUGINS")); v != "" {
		return v, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PluginsDir), nil
}

// GetCacheFile returns the path to the catalog cache file.
// It checks the KESTREL_CATALOG_CACHE environment variable first,
// then falls back to ~/.kestrel/catalog-cache.json.
func GetCacheFile() (string, error) {
	if v := os.Getenv(branding.EnvVar("CATALOG_CACHE")); v != "" {
		return v, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CacheFile), nil
}

// GetConfigFile returns the path to the persistent config file.
// It checks the KESTREL_CONFIG environment variable first,
// then falls back to ~/.kestrel/config.yaml.
func GetConfigFile() (string, error) {
	if v := os.Getenv(branding.EnvVar("CONFIG")); v != "" {
		return v, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// EnsurePluginsRoot creates the plugins directory if it does not exist
// and returns its path.
func EnsurePluginsRoot() (string, error) {
	root, err := GetPluginsRoot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, DirPermNormal); err != nil {
		return "", fmt.Errorf("creating plugins directory %s: %w", root, err)
	}
	return root, nil
}
