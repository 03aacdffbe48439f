// Package manager ties the catalog, registry, and configuration layers
// together. It reconciles their combined state into a display-row tree
// and carries out the transitions behind the plugin commands: install,
// uninstall, enable, disable, reload, and catalog loading.
//
// A Manager is not safe for concurrent use. Background catalog loads run
// on a single worker slot and hand results back through a dispatch
// queue; everything else runs on the caller's goroutine between drains.
package manager
