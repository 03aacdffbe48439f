// Package config manages the persistent plugin-manager state stored at
// ~/.kestrel/config.yaml: the catalog URL list, the per-plugin installation
// records, and the ordered enabled list. Writers persist synchronously so a
// crash never loses an acknowledged state change, and removal of an
// installation record always drops the plugin from the enabled list.
package config
