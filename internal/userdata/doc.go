// Package userdata resolves the on-disk locations the plugin manager works
// with: the ~/.kestrel/ dot directory, the plugins directory artifacts are
// installed into, the catalog cache file, and the persistent config file.
// Every location honors a KESTREL_* environment override for sandboxing.
package userdata
