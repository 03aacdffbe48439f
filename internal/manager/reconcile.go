package manager

import (
	"sort"

	"github.com/kestrel-labs/kestrel/internal/catalog"
	"github.com/kestrel-labs/kestrel/internal/compat"
	"github.com/kestrel-labs/kestrel/internal/config"
	"github.com/kestrel-labs/kestrel/internal/registry"
)

// Snapshot is the full input to a display-tree rebuild: the loaded
// plugin set and its in-process enabled flags, the recorded module
// errors, the live and cached-only catalog documents, and the persisted
// install and enabled state.
type Snapshot struct {
	Loaded          map[string]*registry.Handle
	RegistryEnabled map[string]bool
	Errors          map[string]*LoadError

	Live       map[string]*catalog.Document
	CachedOnly map[string]*catalog.Document

	Installed map[string]*config.InstallSource
	Enabled   map[string]bool

	Env compat.Environment
}

// BuildTree reconciles a snapshot into a fresh display tree. The local
// pseudo-catalog comes first, then live catalogs by id, then stubs for
// cached catalogs that installed plugins still point at. Sibling rows
// within a level are ordered by title, then id.
func BuildTree(snap Snapshot) *Tree {
	t := NewTree()
	buildLocal(t, snap)
	for _, catID := range sortedDocIDs(snap.Live) {
		buildLiveCatalog(t, snap, catID)
	}
	for _, catID := range sortedDocIDs(snap.CachedOnly) {
		buildCachedCatalog(t, snap, catID)
	}
	return t
}

// buildLocal emits the [Locally Installed] row and, under it, one row
// per loaded plugin that no remote row accounts for, plus one row per
// module load error. Plugin rows attach straight to the catalog row;
// the local catalog has no repository level.
func buildLocal(t *Tree, snap Snapshot) {
	catIdx := t.Append(RootID, Row{
		ID:      LocalCatalogID,
		Type:    RowCatalog,
		Title:   LocalCatalogTitle,
		Enabled: true,
	})

	var rows []Row
	for id, handle := range snap.Loaded {
		if remoteAccounted(snap, id) {
			continue
		}
		rows = append(rows, Row{
			ID:               id,
			Type:             RowPlugin,
			Title:            handle.Title,
			Installed:        true,
			InstalledValid:   true,
			Enabled:          snap.RegistryEnabled[id],
			Compatibility:    compatLabel(handle.IsCompatible()),
			Version:          handle.Version,
			VisibleEnabled:   true,
			VisibleInstalled: true,
		})
	}
	for id := range snap.Errors {
		rows = append(rows, Row{
			ID:               id,
			Type:             RowPlugin,
			Title:            id + " (Load Failed)",
			Installed:        true,
			InstalledValid:   true,
			Compatibility:    CompatNo,
			Version:          VersionUnknown,
			VisibleEnabled:   true,
			VisibleInstalled: true,
		})
	}
	sortRows(rows)
	for _, row := range rows {
		t.Append(catIdx, row)
	}
}

// remoteAccounted reports whether a loaded plugin is represented by a
// remote row: its installation record points at a live catalog entry,
// or at a cached catalog stub the tree will emit.
func remoteAccounted(snap Snapshot, id string) bool {
	src, ok := snap.Installed[id]
	if !ok || src == nil {
		return false
	}
	if doc := snap.Live[src.CatalogID]; doc != nil {
		repo := doc.Repository(src.RepoID)
		if repo == nil {
			return false
		}
		_, listed := repo.Collection[id]
		return listed
	}
	if doc := snap.CachedOnly[src.CatalogID]; doc != nil {
		return doc.Repository(src.RepoID) != nil
	}
	return false
}

func buildLiveCatalog(t *Tree, snap Snapshot, catID string) {
	doc := snap.Live[catID]
	catIdx := t.Append(RootID, Row{
		ID:      catID,
		Type:    RowCatalog,
		Title:   catID,
		Enabled: true,
	})

	repos := append([]catalog.Repository(nil), doc.Repositories...)
	sort.Slice(repos, func(i, j int) bool {
		ti, tj := repos[i].DisplayTitle(), repos[j].DisplayTitle()
		if ti != tj {
			return ti < tj
		}
		return repos[i].ID < repos[j].ID
	})

	for i := range repos {
		repo := &repos[i]
		repoIdx := t.Append(catIdx, Row{
			ID:      repo.ID,
			Type:    RowRepository,
			Title:   repo.DisplayTitle(),
			Enabled: true,
		})
		var rows []Row
		for plugID, entry := range repo.Collection {
			rows = append(rows, liveEntryRow(snap, catID, repo.ID, plugID, entry))
		}
		sortRows(rows)
		for _, row := range rows {
			t.Append(repoIdx, row)
		}
	}
}

// liveEntryRow builds the row for one collection entry. The install flag
// demands an exact record match on catalog and repository; a record
// pointing elsewhere leaves the entry uninstalled here, even for the
// same plugin id.
func liveEntryRow(snap Snapshot, catID, repoID, plugID string, entry catalog.PluginEntry) Row {
	src := snap.Installed[plugID]
	installed := src != nil && src.CatalogID == catID && src.RepoID == repoID
	ok := entryCompatible(snap, entry, plugID)
	return Row{
		ID:                 plugID,
		Type:               RowPlugin,
		Title:              entry.Title,
		Installed:          installed,
		InstalledValid:     true,
		Enabled:            installed && snap.Enabled[plugID],
		Compatibility:      compatLabel(ok),
		Version:            entry.Version,
		VisibleEnabled:     true,
		VisibleInstalled:   true,
		SensitiveInstalled: ok,
	}
}

// entryCompatible evaluates an entry's declared requirements and, when
// the same plugin is loaded, cross-checks the verdict of the live
// handle. Both must pass.
func entryCompatible(snap Snapshot, entry catalog.PluginEntry, plugID string) bool {
	if !compat.Compatible(entry.Requirements, snap.Env) {
		return false
	}
	if handle := snap.Loaded[plugID]; handle != nil {
		return handle.IsCompatible()
	}
	return true
}

// buildCachedCatalog emits a stub for a cached catalog that is not live
// this session. Only repositories that installed, loaded plugins still
// point at are shown, and row metadata comes from the loaded handles
// since no live collection is available. The install toggle stays
// insensitive; nothing can be downloaded from a cached stub.
func buildCachedCatalog(t *Tree, snap Snapshot, catID string) {
	doc := snap.CachedOnly[catID]
	byRepo := map[string][]string{}
	for plugID, src := range snap.Installed {
		if src == nil || src.CatalogID != catID {
			continue
		}
		if snap.Loaded[plugID] == nil || doc.Repository(src.RepoID) == nil {
			continue
		}
		byRepo[src.RepoID] = append(byRepo[src.RepoID], plugID)
	}
	if len(byRepo) == 0 {
		return
	}

	catIdx := t.Append(RootID, Row{
		ID:      catID,
		Type:    RowCatalog,
		Title:   catID,
		Enabled: true,
	})

	repoIDs := make([]string, 0, len(byRepo))
	for repoID := range byRepo {
		repoIDs = append(repoIDs, repoID)
	}
	sort.Slice(repoIDs, func(i, j int) bool {
		ti := doc.Repository(repoIDs[i]).DisplayTitle()
		tj := doc.Repository(repoIDs[j]).DisplayTitle()
		if ti != tj {
			return ti < tj
		}
		return repoIDs[i] < repoIDs[j]
	})

	for _, repoID := range repoIDs {
		repoIdx := t.Append(catIdx, Row{
			ID:      repoID,
			Type:    RowRepository,
			Title:   doc.Repository(repoID).DisplayTitle(),
			Enabled: true,
		})
		var rows []Row
		for _, plugID := range byRepo[repoID] {
			handle := snap.Loaded[plugID]
			rows = append(rows, Row{
				ID:               plugID,
				Type:             RowPlugin,
				Title:            handle.Title,
				Installed:        true,
				InstalledValid:   true,
				Enabled:          snap.Enabled[plugID],
				Compatibility:    compatLabel(handle.IsCompatible()),
				Version:          handle.Version,
				VisibleEnabled:   true,
				VisibleInstalled: true,
			})
		}
		sortRows(rows)
		for _, row := range rows {
			t.Append(repoIdx, row)
		}
	}
}

func compatLabel(ok bool) string {
	if ok {
		return CompatYes
	}
	return CompatNo
}

// sortRows orders sibling rows by title, then id for equal titles.
func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Title != rows[j].Title {
			return rows[i].Title < rows[j].Title
		}
		return rows[i].ID < rows[j].ID
	})
}

func sortedDocIDs(docs map[string]*catalog.Document) []string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
