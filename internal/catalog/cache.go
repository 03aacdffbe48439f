package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kestrel-labs/kestrel/internal/userdata"
)

// DefaultMaxAge is how long a cached catalog document stays fresh.
const DefaultMaxAge = 4 * time.Hour

// Entry is one cached catalog document.
type Entry struct {
	URL     string    `json:"url"`
	Created time.Time `json:"created"`
	Value   *Document `json:"value"`
}

// Fresh reports whether the entry is younger than maxAge.
func (e *Entry) Fresh(maxAge time.Duration) bool {
	if e == nil {
		return false
	}
	return time.Since(e.Created) < maxAge
}

// Cache is the file-backed catalog cache, keyed by catalog id.
type Cache struct {
	path    string
	entries map[string]*Entry
}

// LoadCache reads the cache file at path. A missing file yields an empty
// cache bound to that path; a corrupt file is an error.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: map[string]*Entry{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parsing catalog cache: %w", err)
	}
	return c, nil
}

// Save writes the cache back to its file.
func (c *Cache) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), userdata.DirPermNormal); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, userdata.FilePermNormal); err != nil {
		return fmt.Errorf("writing catalog cache: %w", err)
	}
	return nil
}

// Put stores a document fetched from url, stamped with the current time
// and keyed by the document id. Any previous entry for that id is replaced.
func (c *Cache) Put(url string, doc *Document) {
	c.entries[doc.ID] = &Entry{URL: url, Created: time.Now(), Value: doc}
}

// GetByID returns the entry for a catalog id, or nil.
func (c *Cache) GetByID(id string) *Entry {
	return c.entries[id]
}

// GetByURL returns the entry fetched from url, or nil.
func (c *Cache) GetByURL(url string) *Entry {
	for _, e := range c.entries {
		if e.URL == url {
			return e
		}
	}
	return nil
}

// Remove drops the entry for a catalog id.
func (c *Cache) Remove(id string) {
	delete(c.entries, id)
}

// IDs returns the cached catalog ids, sorted.
func (c *Cache) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}
