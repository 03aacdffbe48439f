//go:build integration

package integration_test

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/kestrel-labs/kestrel/internal/catalog"
	"github.com/kestrel-labs/kestrel/internal/compat"
	"github.com/kestrel-labs/kestrel/internal/config"
	"github.com/kestrel-labs/kestrel/internal/manager"
	"github.com/kestrel-labs/kestrel/internal/registry"
)

// testEnv holds the isolated state directory a manager runs against.
// Building a second manager over the same env simulates a client restart.
type testEnv struct {
	Dir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{Dir: t.TempDir()}
}

func (e *testEnv) pluginsDir() string { return filepath.Join(e.Dir, "plugins") }
func (e *testEnv) cachePath() string { return filepath.Join(e.Dir, "catalog-cache.json") }

func (e *testEnv) newManager(t *testing.T) *manager.Manager {
	t.Helper()
	cfg, err := config.Open(filepath.Join(e.Dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config.Open: %v", err)
	}
	cache, err := catalog.LoadCache(e.cachePath())
	if err != nil {
		t.Fatalf("catalog.LoadCache: %v", err)
	}
	env := compat.CurrentEnvironment("1.0.0")
	log := hclog.NewNullLogger()
	reg := registry.New(e.pluginsDir(), env, log)
	cats := catalog.NewManager(cache, log)
	return manager.New(cfg, reg, cats, catalog.NewHTTPFetcher(), env)
}

// catalogServer serves one catalog document and its plugin files over
// local HTTP. Set doc and files before issuing requests.
type catalogServer struct {
	*httptest.Server
	docHits atomic.Int64
	doc     *catalog.Document
	files   map[string][]byte
}

func startCatalogServer(t *testing.T) *catalogServer {
	t.Helper()
	cs := &catalogServer{files: map[string][]byte{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/catalog.json", func(w http.ResponseWriter, r *http.Request) {
		cs.docHits.Add(1)
		data, err := json.Marshal(cs.doc)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		data, ok := cs.files[strings.TrimPrefix(r.URL.Path, "/files/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})

	cs.Server = httptest.NewServer(mux)
	t.Cleanup(cs.Close)
	return cs
}

func (cs *catalogServer) docURL() string { return cs.URL + "/catalog.json" }
func (cs *catalogServer) fileBase() string { return cs.URL + "/files" }

func manifestYAML(id, title, version string) []byte {
	return []byte("id: " + id + "\ntitle: " + title + "\nversion: " + version + "\n")
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// singleFileEntry publishes a one-file plugin on the server and returns
// its catalog entry.
func singleFileEntry(cs *catalogServer, id, title, version string) catalog.PluginEntry {
	data := manifestYAML(id, title, version)
	cs.files[id+".yaml"] = data
	return catalog.PluginEntry{
		Name:    id,
		Title:   title,
		Version: version,
		Files:   []catalog.FileRef{{Path: id + ".yaml", SHA256: digest(data)}},
	}
}

func catalogDoc(id, repoID, urlBase string, entries map[string]catalog.PluginEntry) *catalog.Document {
	return &catalog.Document{
		ID: id,
		Repositories: []catalog.Repository{
			{ID: repoID, URLBase: urlBase, Collection: entries},
		},
	}
}

// ageCacheEntries rewrites every cache entry's created stamp so fresh
// entries look old.
func ageCacheEntries(t *testing.T, path string, age time.Duration) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading cache: %v", err)
	}
	var entries map[string]*catalog.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("parsing cache: %v", err)
	}
	for _, e := range entries {
		e.Created = time.Now().Add(-age)
	}
	out, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatal(err)
	}
}
