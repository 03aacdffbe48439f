package manager

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/kestrel-labs/kestrel/internal/catalog"
	"github.com/kestrel-labs/kestrel/internal/compat"
	"github.com/kestrel-labs/kestrel/internal/config"
	"github.com/kestrel-labs/kestrel/internal/dispatch"
	"github.com/kestrel-labs/kestrel/internal/registry"
)

// Notification severities passed to the notify callback.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Manager coordinates the catalog, registry, and configuration layers
// and owns the reconciled display tree. Tree swaps, notifications, and
// status lines from background work arrive through the dispatch queue
// and take effect on the next Drain.
type Manager struct {
	cfg      *config.Store
	registry *registry.Registry
	catalogs *catalog.Manager
	fetcher  catalog.Fetcher
	env      compat.Environment

	queue  *dispatch.Queue
	slot   *dispatch.Slot
	tree   *Tree
	errors map[string]*LoadError
	log    hclog.Logger

	confirm func(title, question string) bool
	notify  func(severity, title, message string)
	status  func(message string)
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log hclog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithConfirm installs the prompt asked before destructive transitions,
// such as replacing a plugin installed from another source. Without it
// the manager proceeds as if the user agreed.
func WithConfirm(fn func(title, question string) bool) Option {
	return func(m *Manager) { m.confirm = fn }
}

// WithNotify installs the callback for user-facing notices. Messages
// are delivered through the dispatch queue.
func WithNotify(fn func(severity, title, message string)) Option {
	return func(m *Manager) { m.notify = fn }
}

// WithStatus installs the callback for transient progress lines, also
// delivered through the dispatch queue.
func WithStatus(fn func(message string)) Option {
	return func(m *Manager) { m.status = fn }
}

// New builds a Manager over the given stores. The display tree starts
// empty; call Bootstrap and then a catalog load to populate it.
func New(cfg *config.Store, reg *registry.Registry, cats *catalog.Manager, fetcher catalog.Fetcher, env compat.Environment, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		registry: reg,
		catalogs: cats,
		fetcher:  fetcher,
		env:      env,
		queue:    dispatch.NewQueue(),
		tree:     NewTree(),
		errors:   map[string]*LoadError{},
		log:      hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.slot = dispatch.NewSlot(m.log.Named("loader"))
	return m
}

// Tree returns the current display tree.
func (m *Manager) Tree() *Tree { return m.tree }

// Env returns the environment plugin requirements are evaluated against.
func (m *Manager) Env() compat.Environment { return m.env }

// Catalogs returns the live catalog state.
func (m *Manager) Catalogs() *catalog.Manager { return m.catalogs }

// Registry returns the installed-plugin registry.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Config returns the backing configuration store.
func (m *Manager) Config() *config.Store { return m.cfg }

// ModuleError returns the recorded load failure for a plugin.
func (m *Manager) ModuleError(pluginID string) (*LoadError, bool) {
	e, ok := m.errors[pluginID]
	return e, ok
}

// ModuleErrors returns a copy of the module error map.
func (m *Manager) ModuleErrors() map[string]*LoadError {
	out := make(map[string]*LoadError, len(m.errors))
	for id, e := range m.errors {
		out[id] = e
	}
	return out
}

// Drain runs callbacks queued by background work and returns how many
// ran.
func (m *Manager) Drain() int { return m.queue.Drain() }

// Busy reports whether a background catalog load is running.
func (m *Manager) Busy() bool { return m.slot.Active() }

// Wait blocks until background work completes, draining queued
// callbacks while it runs and once more after it finishes.
func (m *Manager) Wait() {
	for m.slot.Active() {
		m.queue.Drain()
		time.Sleep(20 * time.Millisecond)
	}
	m.queue.Drain()
}

// Bootstrap loads every plugin found on disk, heals installation
// records for plugins that have none, and re-enables the persisted
// enabled set. Entries that fail to load are recorded as module errors
// and dropped from the persisted set.
func (m *Manager) Bootstrap() error {
	m.errors = map[string]*LoadError{}
	if err := m.registry.LoadAll(m.recordLoadError); err != nil {
		return err
	}

	// A plugin on disk with no record is a local installation.
	for id := range m.registry.LoadedPlugins() {
		if _, ok := m.cfg.InstallSourceFor(id); !ok {
			if err := m.cfg.SetInstalled(id, nil); err != nil {
				return fmt.Errorf("recording local plugin %s: %w", id, err)
			}
		}
	}

	enabled := m.cfg.EnabledPlugins()
	keep := make([]string, 0, len(enabled))
	for _, id := range enabled {
		if m.registry.Enable(id) {
			keep = append(keep, id)
			continue
		}
		m.log.Warn("dropping enabled plugin that is not loaded", "plugin_id", id)
	}
	if len(keep) != len(enabled) {
		if err := m.cfg.SetEnabled(keep); err != nil {
			return fmt.Errorf("pruning enabled plugins: %w", err)
		}
	}

	m.Reconcile()
	return nil
}

// Reconcile rebuilds the display tree from a fresh snapshot. The swap
// is posted through the dispatch queue, so the new tree becomes visible
// on the next Drain.
func (m *Manager) Reconcile() {
	tree := BuildTree(m.snapshot())
	m.queue.Post(func() { m.tree = tree })
}

// snapshot captures the reconciliation inputs from every collaborator.
func (m *Manager) snapshot() Snapshot {
	live := map[string]*catalog.Document{}
	for _, id := range m.catalogs.CatalogIDs() {
		live[id] = m.catalogs.Catalog(id)
	}

	cachedOnly := map[string]*catalog.Document{}
	cache := m.catalogs.Cache()
	for _, id := range cache.IDs() {
		if _, ok := live[id]; ok {
			continue
		}
		if entry := cache.GetByID(id); entry != nil && entry.Value != nil {
			cachedOnly[id] = entry.Value
		}
	}

	enabled := map[string]bool{}
	for _, id := range m.cfg.EnabledPlugins() {
		enabled[id] = true
	}

	errs := make(map[string]*LoadError, len(m.errors))
	for id, e := range m.errors {
		errs[id] = e
	}

	return Snapshot{
		Loaded:          m.registry.LoadedPlugins(),
		RegistryEnabled: m.registry.EnabledPlugins(),
		Errors:          errs,
		Live:            live,
		CachedOnly:      cachedOnly,
		Installed:       m.cfg.InstalledPlugins(),
		Enabled:         enabled,
		Env:             m.env,
	}
}

func (m *Manager) recordLoadError(id string, err error) {
	m.errors[id] = &LoadError{Err: err, Trace: formatTrace(err)}
}

// findPluginRow locates the display row for a plugin under its install
// origin: the named catalog and repository, or the local catalog when
// src is nil.
func (m *Manager) findPluginRow(pluginID string, src *config.InstallSource) int {
	for _, catIdx := range m.tree.Children(RootID) {
		cat := m.tree.Row(catIdx)
		if src == nil {
			if cat.ID != LocalCatalogID {
				continue
			}
			for _, idx := range m.tree.Children(catIdx) {
				if r := m.tree.Row(idx); r.Type == RowPlugin && r.ID == pluginID {
					return idx
				}
			}
			return -1
		}
		if cat.ID != src.CatalogID || cat.ID == LocalCatalogID {
			continue
		}
		for _, repoIdx := range m.tree.Children(catIdx) {
			repo := m.tree.Row(repoIdx)
			if repo.Type != RowRepository || repo.ID != src.RepoID {
				continue
			}
			for _, idx := range m.tree.Children(repoIdx) {
				if r := m.tree.Row(idx); r.Type == RowPlugin && r.ID == pluginID {
					return idx
				}
			}
		}
	}
	return -1
}

// locatePluginRow finds the first display row carrying a plugin id
// anywhere in the tree. The local catalog is walked first.
func (m *Manager) locatePluginRow(pluginID string) int {
	return m.tree.Find(func(r *Row) bool {
		return r.Type == RowPlugin && r.ID == pluginID
	})
}

func (m *Manager) askConfirm(title, question string) bool {
	if m.confirm == nil {
		return true
	}
	return m.confirm(title, question)
}

func (m *Manager) notifyf(severity, title, format string, args ...any) {
	if m.notify == nil {
		return
	}
	message := fmt.Sprintf(format, args...)
	m.queue.Post(func() { m.notify(severity, title, message) })
}

func (m *Manager) setStatus(message string) {
	if m.status == nil {
		return
	}
	m.queue.Post(func() { m.status(message) })
}
