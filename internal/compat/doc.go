// Package compat evaluates plugin compatibility declarations against the
// running client: minimum client version (semver constraint), platform
// membership, and required client features. Results are reported per
// requirement so the CLI can show exactly which declaration failed.
package compat
