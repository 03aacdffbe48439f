// Package registry tracks the plugins installed under the plugins
// directory and their in-process state. A plugin artifact is either a
// directory containing a plugin.yaml manifest plus payload files, or a
// single <id>.yaml manifest file; both forms for one id at once is a load
// error. Loading a plugin parses and validates its manifest and captures
// a Handle with live compatibility introspection.
package registry
