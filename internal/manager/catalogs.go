package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrel-labs/kestrel/internal/catalog"
)

// StartCatalogLoad runs LoadCatalogs on the background slot and reports
// whether it started; false means a load is already running. While the
// slot is active the worker owns the catalog state, so callers must not
// touch it until Wait returns.
func (m *Manager) StartCatalogLoad(ctx context.Context, refresh bool) bool {
	return m.slot.TryStart("catalog-load", func() {
		m.LoadCatalogs(ctx, refresh)
	})
}

// LoadCatalogs walks the configured catalog URLs and brings each one
// live: a fresh cache entry is used as-is unless refresh is set,
// anything else is downloaded. A download that fails with a
// connectivity error falls back to a stale cache entry when one exists;
// other failures skip the catalog, leaving any cached copy to surface
// as a stub. Finishes with a full reconcile.
func (m *Manager) LoadCatalogs(ctx context.Context, refresh bool) {
	m.setStatus("Loading catalogs")
	cache := m.catalogs.Cache()
	for _, url := range m.cfg.CatalogURLs() {
		entry := cache.GetByURL(url)
		usable := entry != nil && entry.Value != nil && entry.Value.ID != ""

		if !refresh && usable && entry.Fresh(catalog.DefaultMaxAge) {
			if err := m.catalogs.AddCatalog(entry.Value, url, false); err != nil {
				m.log.Warn("failed to add cached catalog", "url", url, "error", err)
			}
			continue
		}

		m.setStatus(fmt.Sprintf("Downloading catalog: %s", url))
		m.log.Debug("downloading catalog", "url", url)
		doc, err := m.fetcher.FetchDocument(ctx, url)
		if err != nil {
			var connErr *catalog.ConnectivityError
			if errors.As(err, &connErr) {
				if usable {
					m.log.Warn("connection error, using stale catalog cache", "url", url, "error", err)
					if addErr := m.catalogs.AddCatalog(entry.Value, url, false); addErr != nil {
						m.log.Warn("failed to add cached catalog", "url", url, "error", addErr)
					}
					continue
				}
				m.log.Warn("connection error downloading catalog", "url", url, "error", err)
				m.notifyf(SeverityError, "Catalog Loading Error",
					"Failed to download %s, check the network connection.", url)
				continue
			}
			m.log.Warn("failed to load catalog", "url", url, "error", err)
			m.notifyf(SeverityError, "Catalog Loading Error",
				"Failed to load the catalog at %s.", url)
			continue
		}

		if err := m.catalogs.AddCatalog(doc, url, true); err != nil {
			m.log.Warn("failed to cache catalog", "url", url, "error", err)
		}
	}
	m.Reconcile()
	m.setStatus("Catalog loading complete")
}

// ReloadAll starts a background reload of every configured catalog,
// forcing fresh downloads. Reports false if a load is already running.
func (m *Manager) ReloadAll(ctx context.Context) bool {
	return m.StartCatalogLoad(ctx, true)
}

// LoadCached brings every usable cached catalog live without touching
// the network. Stale entries are used as-is.
func (m *Manager) LoadCached() {
	cache := m.catalogs.Cache()
	for _, url := range m.cfg.CatalogURLs() {
		entry := cache.GetByURL(url)
		if entry == nil || entry.Value == nil || entry.Value.ID == "" {
			continue
		}
		if err := m.catalogs.AddCatalog(entry.Value, url, false); err != nil {
			m.log.Warn("failed to add cached catalog", "url", url, "error", err)
		}
	}
	m.Reconcile()
}

// Refresh re-reads plugins from disk and reloads every configured
// catalog on the calling goroutine. With refresh set, fresh cache
// entries are re-downloaded too.
func (m *Manager) Refresh(ctx context.Context, refresh bool) error {
	if err := m.Bootstrap(); err != nil {
		return err
	}
	m.LoadCatalogs(ctx, refresh)
	return nil
}

// ReloadCatalog drops a catalog and refetches its document from the
// recorded URL. The removal is optimistic: when the refetch fails the
// subtree stays gone for this session, while the cache keeps the last
// good copy.
func (m *Manager) ReloadCatalog(ctx context.Context, catalogID string) error {
	if catalogID == LocalCatalogID {
		return fmt.Errorf("catalog %s: %w", catalogID, ErrUnknownCatalog)
	}
	url := m.catalogs.URL(catalogID)
	if url == "" {
		if entry := m.catalogs.Cache().GetByID(catalogID); entry != nil {
			url = entry.URL
		}
	}
	if url == "" {
		return fmt.Errorf("catalog %s: %w", catalogID, ErrUnknownCatalog)
	}

	m.catalogs.RemoveCatalog(catalogID)
	if idx := m.tree.Find(func(r *Row) bool { return r.Type == RowCatalog && r.ID == catalogID }); idx >= 0 {
		m.tree.Remove(idx)
	}

	doc, err := m.fetcher.FetchDocument(ctx, url)
	if err != nil {
		m.log.Warn("failed to reload catalog", "catalog_id", catalogID, "url", url, "error", err)
		return err
	}
	if err := m.catalogs.AddCatalog(doc, url, true); err != nil {
		m.log.Warn("failed to cache catalog", "catalog_id", catalogID, "error", err)
	}
	m.Reconcile()
	return nil
}
