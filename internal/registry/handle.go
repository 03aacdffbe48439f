package registry

import (
	"github.com/kestrel-labs/kestrel/internal/compat"
)

// Handle is a loaded plugin: its parsed manifest plus where it came from.
// Compatibility is evaluated against the environment captured when the
// registry was constructed.
type Handle struct {
	Manifest

	path    string
	dirForm bool
	env     compat.Environment
}

// Path returns the artifact location on disk.
func (h *Handle) Path() string {
	return h.path
}

// DirForm reports whether the artifact is the directory form.
func (h *Handle) DirForm() bool {
	return h.dirForm
}

// IsCompatible reports whether every declared requirement is met.
func (h *Handle) IsCompatible() bool {
	return compat.Compatible(h.Requirements, h.env)
}

// Compatibility returns the evaluated requirement list.
func (h *Handle) Compatibility() []compat.Requirement {
	return compat.Evaluate(h.Requirements, h.env)
}

// Metadata returns the descriptive manifest fields as a generic map, the
// shape collaborating surfaces consume for detail views.
func (h *Handle) Metadata() map[string]any {
	return map[string]any{
		"authors":     h.Authors,
		"description": h.Description,
		"homepage":    h.Homepage,
		"title":       h.Title,
		"version":     h.Version,
	}
}
