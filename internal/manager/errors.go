package manager

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownCatalog reports a catalog id with no loaded document.
	ErrUnknownCatalog = errors.New("catalog is not loaded")

	// ErrUnknownRepository reports a repository id the catalog does not
	// list.
	ErrUnknownRepository = errors.New("repository not present in catalog")

	// ErrUnknownPlugin reports a plugin id the repository collection does
	// not list.
	ErrUnknownPlugin = errors.New("plugin not present in the repository collection")

	// ErrNotLoaded reports an operation that needs a loaded plugin.
	ErrNotLoaded = errors.New("plugin is not loaded")

	// ErrLoadFailed reports an operation refused because the plugin has a
	// recorded load error.
	ErrLoadFailed = errors.New("plugin has a load error")

	// ErrDeclined reports a transition abandoned at the confirm prompt.
	ErrDeclined = errors.New("declined by user")
)

// InstallError wraps a failure while downloading or placing plugin
// files. Connectivity failures are not wrapped; they pass through as
// *catalog.ConnectivityError.
type InstallError struct {
	PluginID string
	Err      error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("installing plugin %s: %v", e.PluginID, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// UninstallError wraps a failure while removing plugin files. The
// installation record is left untouched when this is returned.
type UninstallError struct {
	PluginID string
	Err      error
}

func (e *UninstallError) Error() string {
	return fmt.Sprintf("uninstalling plugin %s: %v", e.PluginID, e.Err)
}

func (e *UninstallError) Unwrap() error { return e.Err }

// IncompatibleError reports an enable attempt on a plugin whose declared
// requirements are not met by the running client.
type IncompatibleError struct {
	PluginID string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("plugin %s is not compatible with this client", e.PluginID)
}

// ReplaceConflictError reports that the installed copy of a plugin could
// not be located before a cross-source replacement. The stale record is
// never overwritten when this is returned.
type ReplaceConflictError struct {
	PluginID string
	Reason   string
}

func (e *ReplaceConflictError) Error() string {
	return fmt.Sprintf("replacing plugin %s: %s", e.PluginID, e.Reason)
}

// LoadError records why a plugin module failed to load, along with the
// rendered cause chain shown in detail views.
type LoadError struct {
	Err   error
	Trace string
}

func (e *LoadError) Error() string { return e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }

// formatTrace renders the unwrap chain of err, outermost first, up to
// five entries.
func formatTrace(err error) string {
	var lines []string
	for depth := 0; err != nil && depth < 5; depth++ {
		lines = append(lines, err.Error())
		err = errors.Unwrap(err)
	}
	return strings.Join(lines, "\n")
}
