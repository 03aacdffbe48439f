//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/kestrel-labs/kestrel/internal/catalog"
)

func TestFreshCacheServesSecondLoad(t *testing.T) {
	cs := startCatalogServer(t)
	cs.doc = catalogDoc("main", "community", cs.fileBase(), nil)

	env := newTestEnv(t)
	mgr := env.newManager(t)
	if err := mgr.Config().AddCatalogURL(cs.docURL()); err != nil {
		t.Fatal(err)
	}

	mgr.LoadCatalogs(context.Background(), false)
	if got := cs.docHits.Load(); got != 1 {
		t.Fatalf("docHits = %d, want 1", got)
	}

	// A restarted client finds the cache fresh and skips the download.
	mgr2 := env.newManager(t)
	mgr2.LoadCatalogs(context.Background(), false)
	if got := cs.docHits.Load(); got != 1 {
		t.Fatalf("docHits after cached load = %d, want 1", got)
	}
	if !mgr2.Catalogs().Contains("main") {
		t.Fatal("cached catalog did not come live")
	}
}

func TestRefreshForcesRedownload(t *testing.T) {
	cs := startCatalogServer(t)
	cs.doc = catalogDoc("main", "community", cs.fileBase(), nil)

	env := newTestEnv(t)
	mgr := env.newManager(t)
	if err := mgr.Config().AddCatalogURL(cs.docURL()); err != nil {
		t.Fatal(err)
	}

	mgr.LoadCatalogs(context.Background(), false)
	mgr.LoadCatalogs(context.Background(), true)
	if got := cs.docHits.Load(); got != 2 {
		t.Fatalf("docHits = %d, want 2", got)
	}
}

func TestStaleCacheFallbackWhenServerUnreachable(t *testing.T) {
	cs := startCatalogServer(t)
	cs.doc = catalogDoc("main", "community", cs.fileBase(), nil)

	env := newTestEnv(t)
	mgr := env.newManager(t)
	if err := mgr.Config().AddCatalogURL(cs.docURL()); err != nil {
		t.Fatal(err)
	}
	mgr.LoadCatalogs(context.Background(), false)

	ageCacheEntries(t, env.cachePath(), 6*time.Hour)
	cs.Close()

	mgr2 := env.newManager(t)
	mgr2.LoadCatalogs(context.Background(), false)
	if !mgr2.Catalogs().Contains("main") {
		t.Fatal("stale cache entry was not used when the server is gone")
	}
}

func TestCatalogDocumentRoundTrip(t *testing.T) {
	cs := startCatalogServer(t)
	cs.doc = &catalog.Document{
		ID:          "main",
		Title:       "Main Catalog",
		Maintainers: []string{"team@kestrel.dev"},
		Repositories: []catalog.Repository{
			{ID: "community", Title: "Community", URLBase: cs.fileBase()},
		},
	}

	env := newTestEnv(t)
	mgr := env.newManager(t)
	if err := mgr.Config().AddCatalogURL(cs.docURL()); err != nil {
		t.Fatal(err)
	}
	mgr.LoadCatalogs(context.Background(), false)

	doc := mgr.Catalogs().Catalog("main")
	if doc == nil {
		t.Fatal("catalog not live")
	}
	if doc.Title != "Main Catalog" || len(doc.Maintainers) != 1 {
		t.Fatalf("document lost fields: %+v", doc)
	}
	if repo := doc.Repository("community"); repo == nil || repo.DisplayTitle() != "Community" {
		t.Fatalf("repository lost fields: %+v", repo)
	}
}
