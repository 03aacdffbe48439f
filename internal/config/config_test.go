package config

import (
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestOpen_MissingFile(t *testing.T) {
	s := openTemp(t)
	if got := s.CatalogURLs(); len(got) != 0 {
		t.Errorf("expected no catalogs, got %v", got)
	}
	if got := s.InstalledPlugins(); len(got) != 0 {
		t.Errorf("expected no installed plugins, got %v", got)
	}
	if got := s.EnabledPlugins(); len(got) != 0 {
		t.Errorf("expected no enabled plugins, got %v", got)
	}
	// Opening a missing file must not create it.
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("expected config file to remain absent, stat err = %v", err)
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("catalogs: [unclosed"), 0o600); err != nil {
		t.Fatalf("writing corrupt config: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error opening corrupt config")
	}
}

func TestDefault_SeedsCatalog(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("KESTREL_CONFIG", filepath.Join(tmp, "config.yaml"))

	s, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	urls := s.CatalogURLs()
	if len(urls) != 1 {
		t.Fatalf("expected one seeded catalog, got %v", urls)
	}

	// A second open sees the persisted seed, not a fresh one.
	s2, err := Default()
	if err != nil {
		t.Fatalf("second Default failed: %v", err)
	}
	if got := s2.CatalogURLs(); len(got) != 1 || got[0] != urls[0] {
		t.Errorf("expected persisted seed %v, got %v", urls, got)
	}
}

func TestAddCatalogURL_Dedup(t *testing.T) {
	s := openTemp(t)
	if err := s.AddCatalogURL("https://example.com/catalog.json"); err != nil {
		t.Fatalf("AddCatalogURL failed: %v", err)
	}
	if err := s.AddCatalogURL("https://example.com/catalog.json"); err != nil {
		t.Fatalf("second AddCatalogURL failed: %v", err)
	}
	if err := s.AddCatalogURL("https://other.example.com/catalog.json"); err != nil {
		t.Fatalf("third AddCatalogURL failed: %v", err)
	}
	urls := s.CatalogURLs()
	if len(urls) != 2 {
		t.Fatalf("expected 2 catalogs after dedup, got %v", urls)
	}
}

func TestRemoveCatalogURL(t *testing.T) {
	s := openTemp(t)
	s.AddCatalogURL("https://a.example.com/catalog.json")
	s.AddCatalogURL("https://b.example.com/catalog.json")

	if err := s.RemoveCatalogURL("https://a.example.com/catalog.json"); err != nil {
		t.Fatalf("RemoveCatalogURL failed: %v", err)
	}
	urls := s.CatalogURLs()
	if len(urls) != 1 || urls[0] != "https://b.example.com/catalog.json" {
		t.Errorf("expected only b to remain, got %v", urls)
	}

	// Removing an absent URL is a no-op.
	if err := s.RemoveCatalogURL("https://absent.example.com/catalog.json"); err != nil {
		t.Fatalf("removing absent URL: %v", err)
	}
}

func TestSetInstalled_SourceRoundTrip(t *testing.T) {
	s := openTemp(t)
	if err := s.SetInstalled("clock-drift", &InstallSource{CatalogID: "main", RepoID: "community"}); err != nil {
		t.Fatalf("SetInstalled failed: %v", err)
	}

	src, ok := s.InstallSourceFor("clock-drift")
	if !ok {
		t.Fatal("expected install record for clock-drift")
	}
	if src == nil || src.CatalogID != "main" || src.RepoID != "community" {
		t.Errorf("unexpected source: %+v", src)
	}
	if !s.IsInstalled("clock-drift") {
		t.Error("IsInstalled should report true")
	}
}

func TestSetInstalled_UnknownOrigin(t *testing.T) {
	s := openTemp(t)
	if err := s.SetInstalled("mystery", nil); err != nil {
		t.Fatalf("SetInstalled failed: %v", err)
	}

	src, ok := s.InstallSourceFor("mystery")
	if !ok {
		t.Fatal("expected install record for mystery")
	}
	if src != nil {
		t.Errorf("expected nil source for unknown origin, got %+v", src)
	}
	if !s.IsInstalled("mystery") {
		t.Error("IsInstalled should report true for unknown-origin record")
	}
}

func TestInstallSourceFor_Absent(t *testing.T) {
	s := openTemp(t)
	if _, ok := s.InstallSourceFor("absent"); ok {
		t.Error("expected no record for absent plugin")
	}
}

func TestRemoveInstalled_DropsEnabled(t *testing.T) {
	s := openTemp(t)
	s.SetInstalled("alpha", &InstallSource{CatalogID: "main", RepoID: "community"})
	s.SetInstalled("beta", nil)
	if err := s.AppendEnabled("alpha"); err != nil {
		t.Fatalf("AppendEnabled alpha: %v", err)
	}
	if err := s.AppendEnabled("beta"); err != nil {
		t.Fatalf("AppendEnabled beta: %v", err)
	}

	if err := s.RemoveInstalled("alpha"); err != nil {
		t.Fatalf("RemoveInstalled failed: %v", err)
	}
	if s.IsInstalled("alpha") {
		t.Error("alpha should no longer be installed")
	}
	if s.IsEnabled("alpha") {
		t.Error("alpha should have been dropped from the enabled list")
	}
	if !s.IsEnabled("beta") {
		t.Error("beta should remain enabled")
	}

	// Removing an absent record is a no-op.
	if err := s.RemoveInstalled("alpha"); err != nil {
		t.Fatalf("second RemoveInstalled: %v", err)
	}
}

func TestAppendEnabled_RequiresRecord(t *testing.T) {
	s := openTemp(t)
	if err := s.AppendEnabled("ghost"); err == nil {
		t.Fatal("expected error enabling plugin without an installation record")
	}
	if len(s.EnabledPlugins()) != 0 {
		t.Error("failed enable must not modify the enabled list")
	}
}

func TestAppendEnabled_NoDuplicates(t *testing.T) {
	s := openTemp(t)
	s.SetInstalled("alpha", nil)
	if err := s.AppendEnabled("alpha"); err != nil {
		t.Fatalf("AppendEnabled failed: %v", err)
	}
	if err := s.AppendEnabled("alpha"); err != nil {
		t.Fatalf("second AppendEnabled failed: %v", err)
	}
	if got := s.EnabledPlugins(); len(got) != 1 {
		t.Errorf("expected single enabled entry, got %v", got)
	}
}

func TestEnabledPlugins_PreservesOrder(t *testing.T) {
	s := openTemp(t)
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		s.SetInstalled(id, nil)
		if err := s.AppendEnabled(id); err != nil {
			t.Fatalf("AppendEnabled %s: %v", id, err)
		}
	}
	got := s.EnabledPlugins()
	want := []string{"charlie", "alpha", "bravo"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRemoveEnabled_AbsentNoop(t *testing.T) {
	s := openTemp(t)
	if err := s.RemoveEnabled("absent"); err != nil {
		t.Fatalf("RemoveEnabled on absent id: %v", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.AddCatalogURL("https://example.com/catalog.json")
	s.SetInstalled("alpha", &InstallSource{CatalogID: "main", RepoID: "community"})
	s.SetInstalled("beta", nil)
	if err := s.AppendEnabled("alpha"); err != nil {
		t.Fatalf("AppendEnabled: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopening config: %v", err)
	}
	if got := s2.CatalogURLs(); len(got) != 1 {
		t.Errorf("catalogs lost on reopen: %v", got)
	}
	src, ok := s2.InstallSourceFor("alpha")
	if !ok || src == nil || src.CatalogID != "main" || src.RepoID != "community" {
		t.Errorf("alpha source lost on reopen: %+v ok=%v", src, ok)
	}
	src, ok = s2.InstallSourceFor("beta")
	if !ok || src != nil {
		t.Errorf("beta unknown-origin record lost on reopen: %+v ok=%v", src, ok)
	}
	if got := s2.EnabledPlugins(); len(got) != 1 || got[0] != "alpha" {
		t.Errorf("enabled list lost on reopen: %v", got)
	}
}
