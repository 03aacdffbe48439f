package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/kestrel-labs/kestrel/internal/compat"
)

// Registry tracks the plugins installed under one plugins directory and
// which of them are enabled in this process. It is not safe for
// concurrent use; callers serialize access through the dispatch queue.
type Registry struct {
	root    string
	env     compat.Environment
	log     hclog.Logger
	loaded  map[string]*Handle
	enabled map[string]bool
}

// New creates a Registry rooted at the plugins directory. A nil logger is
// replaced with a no-op logger.
func New(root string, env compat.Environment, log hclog.Logger) *Registry {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Registry{
		root:    root,
		env:     env,
		log:     log,
		loaded:  map[string]*Handle{},
		enabled: map[string]bool{},
	}
}

// Root returns the plugins directory.
func (r *Registry) Root() string {
	return r.root
}

// LoadAll rescans the plugins directory and loads every artifact found.
// Failures do not stop the scan: each failing id is reported through
// onError and left out of the loaded set. Previously loaded handles are
// replaced wholesale; an enabled flag survives only if its id loaded
// again.
func (r *Registry) LoadAll(onError func(id string, err error)) error {
	ids, err := r.scan()
	if err != nil {
		return err
	}

	loaded := make(map[string]*Handle, len(ids))
	for _, id := range ids {
		h, err := r.load(id)
		if err != nil {
			r.log.Warn("plugin failed to load", "plugin_id", id, "error", err)
			if onError != nil {
				onError(id, err)
			}
			continue
		}
		loaded[id] = h
	}
	r.loaded = loaded

	for id := range r.enabled {
		if _, ok := loaded[id]; !ok {
			delete(r.enabled, id)
		}
	}

	r.log.Debug("plugins loaded", "loaded", len(loaded), "scanned", len(ids))
	return nil
}

// Load parses and registers one plugin artifact. Without reload, loading
// an already-loaded id returns the existing handle untouched; with
// reload the artifact is reparsed from disk and the handle replaced.
func (r *Registry) Load(id string, reload bool) (*Handle, error) {
	if h, ok := r.loaded[id]; ok && !reload {
		return h, nil
	}
	h, err := r.load(id)
	if err != nil {
		return nil, err
	}
	r.loaded[id] = h
	r.log.Debug("plugin loaded", "plugin_id", id, "version", h.Version, "reload", reload)
	return h, nil
}

// Unload drops a plugin from the loaded set, clearing its enabled flag.
func (r *Registry) Unload(id string) {
	delete(r.enabled, id)
	delete(r.loaded, id)
}

// Contains reports whether a plugin id is loaded.
func (r *Registry) Contains(id string) bool {
	_, ok := r.loaded[id]
	return ok
}

// Handle returns the loaded handle for a plugin id, or nil.
func (r *Registry) Handle(id string) *Handle {
	return r.loaded[id]
}

// LoadedPlugins returns a copy of the loaded map.
func (r *Registry) LoadedPlugins() map[string]*Handle {
	out := make(map[string]*Handle, len(r.loaded))
	for id, h := range r.loaded {
		out[id] = h
	}
	return out
}

// IDs returns the loaded plugin ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.loaded))
	for id := range r.loaded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Enable marks a loaded plugin enabled. It reports false when the id is
// not loaded.
func (r *Registry) Enable(id string) bool {
	if _, ok := r.loaded[id]; !ok {
		return false
	}
	r.enabled[id] = true
	return true
}

// Disable clears the enabled flag for a plugin id.
func (r *Registry) Disable(id string) {
	delete(r.enabled, id)
}

// IsEnabled reports whether a plugin is currently enabled.
func (r *Registry) IsEnabled(id string) bool {
	return r.enabled[id]
}

// EnabledPlugins returns a copy of the enabled set.
func (r *Registry) EnabledPlugins() map[string]bool {
	out := make(map[string]bool, len(r.enabled))
	for id := range r.enabled {
		out[id] = true
	}
	return out
}

// ArtifactPath locates the on-disk artifact for a plugin id.
func (r *Registry) ArtifactPath(id string) (string, bool, error) {
	return ArtifactPath(r.root, id)
}

// RemoveArtifact deletes the on-disk artifact for a plugin id.
func (r *Registry) RemoveArtifact(id string) error {
	return RemoveArtifact(r.root, id)
}

// load reads and validates one artifact's manifest.
func (r *Registry) load(id string) (*Handle, error) {
	path, dirForm, err := ArtifactPath(r.root, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ManifestPath(path, dirForm))
	if err != nil {
		return nil, fmt.Errorf("reading plugin manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if m.ID != id {
		return nil, fmt.Errorf("manifest id %q does not match artifact name %q", m.ID, id)
	}
	return &Handle{Manifest: *m, path: path, dirForm: dirForm, env: r.env}, nil
}

// scan lists the plugin ids present in the plugins directory. Dotfiles,
// files without a .yaml suffix, and directories without the plugin.yaml
// marker are skipped. A missing directory is an empty result, not an
// error.
func (r *Registry) scan() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning plugins directory: %w", err)
	}

	seen := map[string]bool{}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		var id string
		if entry.IsDir() {
			if _, err := os.Stat(filepath.Join(r.root, name, MarkerFile)); err != nil {
				continue
			}
			id = name
		} else if strings.HasSuffix(name, ".yaml") {
			id = strings.TrimSuffix(name, ".yaml")
		} else {
			continue
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
