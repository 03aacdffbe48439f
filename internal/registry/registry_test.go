package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/kestrel-labs/kestrel/internal/compat"
)

func testEnv() compat.Environment {
	return compat.Environment{
		ClientVersion: semver.MustParse("1.4.0"),
		Platform:      "linux",
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(t.TempDir(), testEnv(), nil)
}

func TestLoadAll_MixedArtifacts(t *testing.T) {
	r := newTestRegistry(t)
	writeDirPlugin(t, r.Root(), "alpha", manifestYAML("alpha", "Alpha", "1.0.0"))
	writeFilePlugin(t, r.Root(), "beta", manifestYAML("beta", "Beta", "2.0.0"))
	writeFilePlugin(t, r.Root(), "broken", "title: no id\n")

	failures := map[string]error{}
	if err := r.LoadAll(func(id string, err error) { failures[id] = err }); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if got := r.IDs(); len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("expected loaded ids [alpha beta], got %v", got)
	}
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %v", failures)
	}
	if failures["broken"] == nil {
		t.Error("broken plugin should have been reported through onError")
	}
	if r.Contains("broken") {
		t.Error("failed plugin must stay out of the loaded set")
	}
}

func TestLoadAll_EmptyAndMissingDir(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "does-not-exist"), testEnv(), nil)
	if err := r.LoadAll(nil); err != nil {
		t.Fatalf("LoadAll on missing dir: %v", err)
	}
	if len(r.IDs()) != 0 {
		t.Errorf("expected no plugins, got %v", r.IDs())
	}
}

func TestLoadAll_SkipsNonPluginEntries(t *testing.T) {
	r := newTestRegistry(t)
	writeFilePlugin(t, r.Root(), "alpha", manifestYAML("alpha", "Alpha", "1.0.0"))

	// Not plugins: dotfiles, non-yaml files, marker-less directories.
	os.WriteFile(filepath.Join(r.Root(), ".staging-tmp"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(r.Root(), "README.md"), []byte("x"), 0o644)
	os.MkdirAll(filepath.Join(r.Root(), "not-a-plugin"), 0o755)

	failures := 0
	if err := r.LoadAll(func(string, error) { failures++ }); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if failures != 0 {
		t.Errorf("expected no failures, got %d", failures)
	}
	if got := r.IDs(); len(got) != 1 || got[0] != "alpha" {
		t.Errorf("expected only alpha, got %v", got)
	}
}

func TestLoadAll_DuplicateFormsReported(t *testing.T) {
	r := newTestRegistry(t)
	writeDirPlugin(t, r.Root(), "dup", manifestYAML("dup", "Dup", "1.0.0"))
	writeFilePlugin(t, r.Root(), "dup", manifestYAML("dup", "Dup", "1.0.0"))

	failures := map[string]error{}
	if err := r.LoadAll(func(id string, err error) { failures[id] = err }); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if failures["dup"] == nil {
		t.Fatal("duplicate-form plugin should fail to load")
	}
	if !strings.Contains(failures["dup"].Error(), "both") {
		t.Errorf("expected duplicate-form error, got %v", failures["dup"])
	}
	if r.Contains("dup") {
		t.Error("duplicate-form plugin must not be loaded")
	}
}

func TestLoadAll_ReplacesWholesale(t *testing.T) {
	r := newTestRegistry(t)
	writeFilePlugin(t, r.Root(), "alpha", manifestYAML("alpha", "Alpha", "1.0.0"))
	writeFilePlugin(t, r.Root(), "beta", manifestYAML("beta", "Beta", "1.0.0"))

	if err := r.LoadAll(nil); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if !r.Enable("alpha") || !r.Enable("beta") {
		t.Fatal("Enable should succeed for loaded plugins")
	}

	// beta's artifact disappears; a rescan must drop it and its flag.
	if err := os.Remove(filepath.Join(r.Root(), "beta.yaml")); err != nil {
		t.Fatalf("removing beta: %v", err)
	}
	if err := r.LoadAll(nil); err != nil {
		t.Fatalf("second LoadAll failed: %v", err)
	}

	if r.Contains("beta") {
		t.Error("beta should be gone after rescan")
	}
	if r.IsEnabled("beta") {
		t.Error("beta's enabled flag should not survive the rescan")
	}
	if !r.IsEnabled("alpha") {
		t.Error("alpha's enabled flag should survive the rescan")
	}
}

func TestLoad_IDMismatch(t *testing.T) {
	r := newTestRegistry(t)
	writeFilePlugin(t, r.Root(), "alpha", manifestYAML("other", "Other", "1.0.0"))

	_, err := r.Load("alpha", false)
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("expected id mismatch error, got %v", err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Load("ghost", false)
	if !errors.Is(err, ErrNotFoundOnDisk) {
		t.Fatalf("expected ErrNotFoundOnDisk, got %v", err)
	}
}

func TestLoad_ReloadSemantics(t *testing.T) {
	r := newTestRegistry(t)
	writeFilePlugin(t, r.Root(), "alpha", manifestYAML("alpha", "Alpha", "1.0.0"))

	h1, err := r.Load("alpha", false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Without reload, the existing handle comes back untouched even
	// after the artifact changes on disk.
	writeFilePlugin(t, r.Root(), "alpha", manifestYAML("alpha", "Alpha Two", "1.1.0"))
	h2, err := r.Load("alpha", false)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if h2 != h1 {
		t.Error("Load without reload must return the existing handle")
	}

	// With reload, the artifact is reparsed.
	h3, err := r.Load("alpha", true)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if h3.Title != "Alpha Two" || h3.Version != "1.1.0" {
		t.Errorf("reload did not reparse: %+v", h3.Manifest)
	}
	if r.Handle("alpha") != h3 {
		t.Error("reload must replace the registered handle")
	}
}

func TestUnload(t *testing.T) {
	r := newTestRegistry(t)
	writeFilePlugin(t, r.Root(), "alpha", manifestYAML("alpha", "Alpha", "1.0.0"))
	if _, err := r.Load("alpha", false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	r.Enable("alpha")

	r.Unload("alpha")
	if r.Contains("alpha") {
		t.Error("plugin should be gone after Unload")
	}
	if r.IsEnabled("alpha") {
		t.Error("enabled flag should be cleared by Unload")
	}
	if r.Handle("alpha") != nil {
		t.Error("Handle should return nil after Unload")
	}
}

func TestEnableDisable(t *testing.T) {
	r := newTestRegistry(t)
	writeFilePlugin(t, r.Root(), "alpha", manifestYAML("alpha", "Alpha", "1.0.0"))
	if _, err := r.Load("alpha", false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if r.Enable("ghost") {
		t.Error("Enable must report false for unloaded ids")
	}
	if !r.Enable("alpha") {
		t.Error("Enable should succeed for a loaded plugin")
	}
	if !r.IsEnabled("alpha") {
		t.Error("IsEnabled should report true after Enable")
	}

	enabled := r.EnabledPlugins()
	if !enabled["alpha"] || len(enabled) != 1 {
		t.Errorf("unexpected enabled set %v", enabled)
	}
	// The returned map is a copy.
	delete(enabled, "alpha")
	if !r.IsEnabled("alpha") {
		t.Error("mutating the returned map must not affect the registry")
	}

	r.Disable("alpha")
	if r.IsEnabled("alpha") {
		t.Error("IsEnabled should report false after Disable")
	}
	if !r.Contains("alpha") {
		t.Error("Disable must not unload the plugin")
	}
}

func TestHandle_Introspection(t *testing.T) {
	r := newTestRegistry(t)
	writeDirPlugin(t, r.Root(), "alpha", `id: alpha
title: Alpha
version: 1.0.0
authors:
  - Ada Example
description: Example plugin.
homepage: https://example.com/alpha
requirements:
  minimum_version: 1.0.0
  platforms:
    - linux
`)

	h, err := r.Load("alpha", false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !h.DirForm() {
		t.Error("expected directory-form handle")
	}
	if h.Path() != filepath.Join(r.Root(), "alpha") {
		t.Errorf("unexpected path %s", h.Path())
	}
	if !h.IsCompatible() {
		t.Errorf("expected compatible handle, requirements: %+v", h.Compatibility())
	}
	if reqs := h.Compatibility(); len(reqs) != 2 {
		t.Errorf("expected 2 evaluated requirements, got %+v", reqs)
	}

	meta := h.Metadata()
	if meta["description"] != "Example plugin." || meta["homepage"] != "https://example.com/alpha" {
		t.Errorf("unexpected metadata %v", meta)
	}
}

func TestHandle_Incompatible(t *testing.T) {
	r := New(t.TempDir(), compat.Environment{ClientVersion: semver.MustParse("0.9.0"), Platform: "linux"}, nil)
	writeFilePlugin(t, r.Root(), "alpha", `id: alpha
title: Alpha
version: 1.0.0
requirements:
  minimum_version: 1.0.0
`)
	h, err := r.Load("alpha", false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if h.IsCompatible() {
		t.Error("expected handle incompatible with older client")
	}
}
