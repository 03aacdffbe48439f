// Package catalog manages remote plugin catalogs: the JSON document model
// and its schema validation, the HTTP fetcher, the file-backed cache at
// ~/.kestrel/catalog-cache.json, and the live Manager holding every catalog
// the client currently knows about. Transport failures and bad documents
// are reported as distinct error types so callers can fall back to cached
// data only when the network is at fault.
package catalog
