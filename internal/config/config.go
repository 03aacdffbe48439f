package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/kestrel-labs/kestrel/internal/branding"
	"github.com/kestrel-labs/kestrel/internal/userdata"
)

// Persisted keys. plugins.installed maps plugin id to its install source
// (or null for a plugin installed with no known remote origin);
// plugins.enabled is the ordered list of enabled plugin ids; catalogs is
// the list of catalog URLs to load.
const (
	KeyCatalogs  = "catalogs"
	KeyInstalled = "plugins.installed"
	KeyEnabled   = "plugins.enabled"
)

// InstallSource records where an installed plugin came from.
type InstallSource struct {
	CatalogID string
	RepoID    string
}

// Store is the persistent key-value configuration backing the plugin
// manager. Every mutation is written through to disk immediately, so the
// installed/enabled state survives process restarts.
type Store struct {
	v    *viper.Viper
	path string
}

// Open binds a Store to the config file at path. A missing file is not an
// error; it is created on first write.
func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return &Store{v: v, path: path}, nil
}

// Default opens the Store at the standard location (~/.kestrel/config.yaml).
// On first run the catalog list is seeded with the built-in catalog URL.
func Default() (*Store, error) {
	path, err := userdata.GetConfigFile()
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(path)
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if os.IsNotExist(statErr) {
		if err := s.AddCatalogURL(branding.DefaultCatalogURL()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the config file location this Store writes to.
func (s *Store) Path() string {
	return s.path
}

// CatalogURLs returns the configured catalog URLs in order.
func (s *Store) CatalogURLs() []string {
	return s.v.GetStringSlice(KeyCatalogs)
}

// AddCatalogURL appends a catalog URL, ignoring duplicates.
func (s *Store) AddCatalogURL(url string) error {
	urls := s.CatalogURLs()
	for _, u := range urls {
		if u == url {
			return nil
		}
	}
	s.v.Set(KeyCatalogs, append(urls, url))
	return s.save()
}

// RemoveCatalogURL removes a catalog URL if present.
func (s *Store) RemoveCatalogURL(url string) error {
	urls := s.CatalogURLs()
	out := urls[:0]
	for _, u := range urls {
		if u != url {
			out = append(out, u)
		}
	}
	if len(out) == len(urls) {
		return nil
	}
	s.v.Set(KeyCatalogs, append([]string(nil), out...))
	return s.save()
}

// InstalledPlugins returns the installation records for every installed
// plugin. A nil InstallSource means the plugin is installed with no known
// remote origin.
func (s *Store) InstalledPlugins() map[string]*InstallSource {
	raw := s.v.GetStringMap(KeyInstalled)
	out := make(map[string]*InstallSource, len(raw))
	for id, val := range raw {
		out[id] = decodeSource(val)
	}
	return out
}

// InstallSourceFor returns the installation record for a plugin id. The
// second return reports whether a record exists at all; a (nil, true)
// result is a plugin installed from an unknown origin.
func (s *Store) InstallSourceFor(id string) (*InstallSource, bool) {
	raw := s.v.GetStringMap(KeyInstalled)
	val, ok := raw[id]
	if !ok {
		return nil, false
	}
	return decodeSource(val), true
}

// IsInstalled reports whether an installation record exists for id.
func (s *Store) IsInstalled(id string) bool {
	_, ok := s.InstallSourceFor(id)
	return ok
}

// SetInstalled writes the installation record for a plugin id, replacing
// any previous record.
func (s *Store) SetInstalled(id string, src *InstallSource) error {
	records := s.rawInstalled()
	records[id] = encodeSource(src)
	s.v.Set(KeyInstalled, records)
	return s.save()
}

// RemoveInstalled deletes the installation record for a plugin id. The id
// is also dropped from the enabled list so that an enabled plugin always
// has an installation record.
func (s *Store) RemoveInstalled(id string) error {
	records := s.rawInstalled()
	if _, ok := records[id]; !ok {
		return nil
	}
	delete(records, id)
	s.v.Set(KeyInstalled, records)
	s.v.Set(KeyEnabled, removeString(s.EnabledPlugins(), id))
	return s.save()
}

// EnabledPlugins returns the enabled plugin ids in their persisted order.
func (s *Store) EnabledPlugins() []string {
	return s.v.GetStringSlice(KeyEnabled)
}

// IsEnabled reports whether a plugin id is in the enabled list.
func (s *Store) IsEnabled(id string) bool {
	for _, e := range s.EnabledPlugins() {
		if e == id {
			return true
		}
	}
	return false
}

// AppendEnabled adds a plugin id to the end of the enabled list. The
// plugin must already have an installation record; ids already present
// are left where they are.
func (s *Store) AppendEnabled(id string) error {
	if !s.IsInstalled(id) {
		return fmt.Errorf("plugin %s has no installation record", id)
	}
	if s.IsEnabled(id) {
		return nil
	}
	s.v.Set(KeyEnabled, append(s.EnabledPlugins(), id))
	return s.save()
}

// RemoveEnabled drops a plugin id from the enabled list; absent ids are
// a no-op.
func (s *Store) RemoveEnabled(id string) error {
	enabled := s.EnabledPlugins()
	out := removeString(enabled, id)
	if len(out) == len(enabled) {
		return nil
	}
	s.v.Set(KeyEnabled, out)
	return s.save()
}

// SetEnabled replaces the enabled list wholesale, preserving order.
func (s *Store) SetEnabled(ids []string) error {
	s.v.Set(KeyEnabled, append([]string(nil), ids...))
	return s.save()
}

// rawInstalled returns a mutable copy of the raw installed map.
func (s *Store) rawInstalled() map[string]any {
	raw := s.v.GetStringMap(KeyInstalled)
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}

// save writes the full merged configuration back to the config file.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), userdata.DirPermNormal); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// decodeSource converts a raw config value into an InstallSource. A nil
// or non-map value is an unknown-origin record.
func decodeSource(val any) *InstallSource {
	m, ok := val.(map[string]any)
	if !ok || m == nil {
		return nil
	}
	src := &InstallSource{}
	if v, ok := m["catalog_id"].(string); ok {
		src.CatalogID = v
	}
	if v, ok := m["repo_id"].(string); ok {
		src.RepoID = v
	}
	if src.CatalogID == "" && src.RepoID == "" {
		return nil
	}
	return src
}

// encodeSource converts an InstallSource to the persisted form; nil maps
// to an explicit null in the config file.
func encodeSource(src *InstallSource) any {
	if src == nil {
		return nil
	}
	return map[string]any{
		"catalog_id": src.CatalogID,
		"repo_id":    src.RepoID,
	}
}

// removeString returns s without any occurrence of v.
func removeString(s []string, v string) []string {
	out := make([]string, 0, len(s))
	for _, e := range s {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}
