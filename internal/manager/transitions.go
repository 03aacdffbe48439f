package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrel-labs/kestrel/internal/catalog"
	"github.com/kestrel-labs/kestrel/internal/config"
)

// Install downloads a plugin from a catalog repository, records where it
// came from, and loads it. When the plugin is already installed from a
// different origin the old copy is removed first, behind the confirm
// prompt. A connectivity failure passes through untouched and leaves
// the installation record exactly as it was.
func (m *Manager) Install(ctx context.Context, catalogID, repoID, pluginID string) error {
	doc := m.catalogs.Catalog(catalogID)
	if doc == nil {
		return fmt.Errorf("catalog %s: %w", catalogID, ErrUnknownCatalog)
	}
	repo := doc.Repository(repoID)
	if repo == nil {
		return fmt.Errorf("repository %s/%s: %w", catalogID, repoID, ErrUnknownRepository)
	}
	entry := m.catalogs.Entry(catalogID, repoID, pluginID)
	if entry == nil {
		return fmt.Errorf("plugin %s: %w", pluginID, ErrUnknownPlugin)
	}

	if src, ok := m.cfg.InstallSourceFor(pluginID); ok && !sourceMatches(src, catalogID, repoID) {
		if err := m.replaceExisting(pluginID, src, catalogID, repoID); err != nil {
			return err
		}
	}

	m.log.Info("installing plugin", "plugin_id", pluginID, "catalog_id", catalogID, "repo_id", repoID)
	if err := m.installArtifact(ctx, entry, repo.URLBase, pluginID); err != nil {
		var connErr *catalog.ConnectivityError
		if errors.As(err, &connErr) {
			return err
		}
		return &InstallError{PluginID: pluginID, Err: err}
	}

	src := &config.InstallSource{CatalogID: catalogID, RepoID: repoID}
	if err := m.cfg.SetInstalled(pluginID, src); err != nil {
		return &InstallError{PluginID: pluginID, Err: err}
	}

	m.errors = map[string]*LoadError{}
	if err := m.registry.LoadAll(m.recordLoadError); err != nil {
		return &InstallError{PluginID: pluginID, Err: err}
	}
	m.Reconcile()
	return nil
}

// replaceExisting clears an installation that points at a different
// origin than a new install. The current copy must still have a display
// row; replacing a plugin whose old source vanished is refused so the
// record is never silently overwritten.
func (m *Manager) replaceExisting(pluginID string, src *config.InstallSource, newCatalogID, newRepoID string) error {
	question := fmt.Sprintf(
		"Plugin %s is already installed from another source. Replace it with the copy from %s/%s?",
		pluginID, newCatalogID, newRepoID)
	if !m.askConfirm("Plugin Installed From Another Source", question) {
		return fmt.Errorf("replacing plugin %s: %w", pluginID, ErrDeclined)
	}
	if m.findPluginRow(pluginID, src) < 0 {
		return &ReplaceConflictError{PluginID: pluginID, Reason: "the installed copy could not be located"}
	}
	if m.registry.IsEnabled(pluginID) {
		if err := m.Disable(pluginID); err != nil {
			return err
		}
	}
	return m.Uninstall(pluginID)
}

func sourceMatches(src *config.InstallSource, catalogID, repoID string) bool {
	return src != nil && src.CatalogID == catalogID && src.RepoID == repoID
}

// Uninstall unloads a plugin, deletes its files, and clears its
// installation record. The record survives when the files cannot be
// removed, so the plugin keeps showing as installed.
func (m *Manager) Uninstall(pluginID string) error {
	src, _ := m.cfg.InstallSourceFor(pluginID)
	if _, _, err := m.registry.ArtifactPath(pluginID); err != nil {
		return &UninstallError{PluginID: pluginID, Err: err}
	}
	m.registry.Unload(pluginID)
	if err := m.registry.RemoveArtifact(pluginID); err != nil {
		return &UninstallError{PluginID: pluginID, Err: err}
	}
	delete(m.errors, pluginID)
	if err := m.cfg.RemoveInstalled(pluginID); err != nil {
		return &UninstallError{PluginID: pluginID, Err: err}
	}
	m.log.Info("uninstalled plugin", "plugin_id", pluginID)
	m.patchUninstalled(pluginID, src)
	return nil
}

// Enable turns a plugin on and appends it to the persisted enabled
// list. Plugins with a recorded load error or unmet requirements are
// refused.
func (m *Manager) Enable(pluginID string) error {
	if _, failed := m.errors[pluginID]; failed {
		return fmt.Errorf("plugin %s: %w", pluginID, ErrLoadFailed)
	}
	handle := m.registry.Handle(pluginID)
	if handle == nil {
		return fmt.Errorf("plugin %s: %w", pluginID, ErrNotLoaded)
	}
	if !handle.IsCompatible() {
		return &IncompatibleError{PluginID: pluginID}
	}
	m.registry.Enable(pluginID)
	if err := m.cfg.AppendEnabled(pluginID); err != nil {
		return err
	}
	m.log.Debug("enabled plugin", "plugin_id", pluginID)
	m.patchEnabled(pluginID, true)
	return nil
}

// Disable turns a plugin off and drops it from the persisted enabled
// list. Disabling a plugin that is not enabled is a no-op.
func (m *Manager) Disable(pluginID string) error {
	m.registry.Disable(pluginID)
	if err := m.cfg.RemoveEnabled(pluginID); err != nil {
		return err
	}
	m.log.Debug("disabled plugin", "plugin_id", pluginID)
	m.patchEnabled(pluginID, false)
	return nil
}

// ReloadPlugin drops a plugin's loaded state and loads it again from
// disk. The enabled flag is restored only when the fresh load succeeds;
// the persisted enabled list is left alone either way, so the plugin
// comes back enabled on the next start once the fault is fixed.
func (m *Manager) ReloadPlugin(pluginID string) error {
	enabled := m.registry.IsEnabled(pluginID)
	m.registry.Unload(pluginID)
	handle, err := m.registry.Load(pluginID, true)
	if err != nil {
		m.recordLoadError(pluginID, err)
		m.log.Warn("failed to reload plugin", "plugin_id", pluginID, "error", err)
		if idx := m.locatePluginRow(pluginID); idx >= 0 {
			m.tree.Row(idx).Title = pluginID + " (Reload Failed)"
		}
		return err
	}
	delete(m.errors, pluginID)
	if enabled {
		m.registry.Enable(pluginID)
	}
	m.log.Debug("reloaded plugin", "plugin_id", pluginID)
	if idx := m.locatePluginRow(pluginID); idx >= 0 {
		row := m.tree.Row(idx)
		row.Title = handle.Title
		row.Compatibility = compatLabel(handle.IsCompatible())
		row.Version = handle.Version
	}
	return nil
}

// patchUninstalled updates the display rows after a successful
// uninstall: the row under the local catalog disappears, a remote row
// flips to uninstalled and disabled.
func (m *Manager) patchUninstalled(pluginID string, src *config.InstallSource) {
	if src != nil {
		if idx := m.findPluginRow(pluginID, src); idx >= 0 {
			row := m.tree.Row(idx)
			row.Installed = false
			row.Enabled = false
		}
	}
	if idx := m.findPluginRow(pluginID, nil); idx >= 0 {
		m.tree.Remove(idx)
	}
}

func (m *Manager) patchEnabled(pluginID string, enabled bool) {
	src, _ := m.cfg.InstallSourceFor(pluginID)
	if idx := m.findPluginRow(pluginID, src); idx >= 0 {
		m.tree.Row(idx).Enabled = enabled
	}
}
