package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/kestrel-labs/kestrel/internal/compat"
)

// Document is a parsed catalog: a named collection of plugin repositories.
type Document struct {
	ID           string       `json:"id"`
	Title        string       `json:"title,omitempty"`
	Description  string       `json:"description,omitempty"`
	Maintainers  []string     `json:"maintainers,omitempty"`
	Homepage     string       `json:"homepage,omitempty"`
	Repositories []Repository `json:"repositories"`
}

// Repository is one plugin source within a catalog. Collection maps plugin
// ids to their published entries; URLBase is the download root for the
// entries' files.
type Repository struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Homepage    string                 `json:"homepage,omitempty"`
	URLBase     string                 `json:"url_base,omitempty"`
	Collection  map[string]PluginEntry `json:"collection,omitempty"`
}

// PluginEntry is a plugin as published in a repository collection.
type PluginEntry struct {
	Name         string              `json:"name"`
	Title        string              `json:"title"`
	Version      string              `json:"version"`
	Authors      []string            `json:"authors,omitempty"`
	Description  string              `json:"description,omitempty"`
	Homepage     string              `json:"homepage,omitempty"`
	Requirements compat.Requirements `json:"requirements"`
	Files        []FileRef           `json:"files,omitempty"`
}

// FileRef names one downloadable payload file and its expected digest.
type FileRef struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256,omitempty"`
}

// Repository returns the repository with the given id, or nil.
func (d *Document) Repository(id string) *Repository {
	for i := range d.Repositories {
		if d.Repositories[i].ID == id {
			return &d.Repositories[i]
		}
	}
	return nil
}

// DisplayTitle returns the catalog title, falling back to the id.
func (d *Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.ID
}

// DisplayTitle returns the repository title, falling back to the id.
func (r *Repository) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

// ParseDocument decodes and validates a catalog document. The raw bytes
// are checked against the embedded JSON schema before decoding, so a
// returned Document always has its required fields populated.
func ParseDocument(data []byte) (*Document, error) {
	issues, err := ValidateDocument(data)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return nil, fmt.Errorf("invalid catalog document: %s", summarizeIssues(issues))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog document: %w", err)
	}
	return &doc, nil
}
