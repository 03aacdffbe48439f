package catalog

import "fmt"

// ConnectivityError reports a transport-level failure reaching a catalog
// server: connection refused, DNS failure, timeout. Only this class of
// failure permits falling back to a stale cache entry.
type ConnectivityError struct {
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connecting to catalog %s: %v", e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// FetchError reports that the server answered but the response was not a
// usable catalog document: a non-200 status, malformed JSON, or a schema
// violation.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching catalog %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
