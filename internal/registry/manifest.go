package registry

import (
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/kestrel-labs/kestrel/internal/compat"
)

// Manifest is the declarative head of a plugin artifact.
type Manifest struct {
	ID           string              `yaml:"id" json:"id"`
	Title        string              `yaml:"title" json:"title"`
	Version      string              `yaml:"version" json:"version"`
	Authors      []string            `yaml:"authors,omitempty" json:"authors,omitempty"`
	Description  string              `yaml:"description,omitempty" json:"description,omitempty"`
	Homepage     string              `yaml:"homepage,omitempty" json:"homepage,omitempty"`
	Requirements compat.Requirements `yaml:"requirements,omitempty" json:"requirements,omitempty"`
}

// ParseManifest decodes manifest YAML and checks the required fields.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing plugin manifest: %w", err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("plugin manifest missing required 'id' field")
	}
	if m.Title == "" {
		return nil, fmt.Errorf("plugin manifest missing required 'title' field")
	}
	if m.Version == "" {
		return nil, fmt.Errorf("plugin manifest missing required 'version' field")
	}
	return &m, nil
}
