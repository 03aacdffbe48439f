package catalog

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/kestrel-labs/kestrel/internal/compat"
)

// Manager holds every catalog the client currently knows about, together
// with the URL each was loaded from and the shared file cache. It is not
// safe for concurrent use; callers serialize access through the dispatch
// queue.
type Manager struct {
	cache    *Cache
	catalogs map[string]*Document
	urls     map[string]string
	log      hclog.Logger
}

// NewManager creates a Manager around an already loaded cache. A nil
// logger is replaced with a no-op logger.
func NewManager(cache *Cache, log hclog.Logger) *Manager {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Manager{
		cache:    cache,
		catalogs: map[string]*Document{},
		urls:     map[string]string{},
		log:      log,
	}
}

// AddCatalog registers a catalog document fetched from url, replacing any
// previous document with the same id. With writeCache the document is also
// stored in the file cache; a cache write failure is reported after the
// in-memory state has been updated.
func (m *Manager) AddCatalog(doc *Document, url string, writeCache bool) error {
	m.catalogs[doc.ID] = doc
	m.urls[doc.ID] = url
	m.log.Debug("catalog added", "catalog_id", doc.ID, "url", url, "repositories", len(doc.Repositories))

	if !writeCache {
		return nil
	}
	m.cache.Put(url, doc)
	if err := m.cache.Save(); err != nil {
		return fmt.Errorf("caching catalog %s: %w", doc.ID, err)
	}
	return nil
}

// RemoveCatalog drops a catalog from the live set. The cache entry is left
// in place so installed plugins from that catalog stay manageable offline.
func (m *Manager) RemoveCatalog(id string) {
	delete(m.catalogs, id)
	delete(m.urls, id)
	m.log.Debug("catalog removed", "catalog_id", id)
}

// CatalogIDs returns the live catalog ids, sorted.
func (m *Manager) CatalogIDs() []string {
	ids := make([]string, 0, len(m.catalogs))
	for id := range m.catalogs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Catalog returns the live document for a catalog id, or nil.
func (m *Manager) Catalog(id string) *Document {
	return m.catalogs[id]
}

// Contains reports whether a catalog id is live.
func (m *Manager) Contains(id string) bool {
	_, ok := m.catalogs[id]
	return ok
}

// URL returns the URL a live catalog was loaded from, or "".
func (m *Manager) URL(id string) string {
	return m.urls[id]
}

// Cache returns the shared file cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Repositories returns the repositories of a live catalog, or nil for an
// unknown catalog id.
func (m *Manager) Repositories(catalogID string) []Repository {
	doc := m.catalogs[catalogID]
	if doc == nil {
		return nil
	}
	return doc.Repositories
}

// Collection returns the plugin collection of one repository, or nil.
func (m *Manager) Collection(catalogID, repoID string) map[string]PluginEntry {
	doc := m.catalogs[catalogID]
	if doc == nil {
		return nil
	}
	repo := doc.Repository(repoID)
	if repo == nil {
		return nil
	}
	return repo.Collection
}

// Entry returns one published plugin entry, or nil if the catalog, the
// repository, or the plugin is unknown.
func (m *Manager) Entry(catalogID, repoID, pluginID string) *PluginEntry {
	collection := m.Collection(catalogID, repoID)
	if collection == nil {
		return nil
	}
	entry, ok := collection[pluginID]
	if !ok {
		return nil
	}
	return &entry
}

// Compatibility evaluates a published plugin's declared requirements
// against env. An unknown plugin yields nil.
func (m *Manager) Compatibility(catalogID, repoID, pluginID string, env compat.Environment) []compat.Requirement {
	entry := m.Entry(catalogID, repoID, pluginID)
	if entry == nil {
		return nil
	}
	return compat.Evaluate(entry.Requirements, env)
}

// IsCompatible reports whether a published plugin's declared requirements
// are all met by env. Unknown plugins are not compatible.
func (m *Manager) IsCompatible(catalogID, repoID, pluginID string, env compat.Environment) bool {
	entry := m.Entry(catalogID, repoID, pluginID)
	if entry == nil {
		return false
	}
	return compat.Compatible(entry.Requirements, env)
}
