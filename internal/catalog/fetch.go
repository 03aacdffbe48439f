package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultUserAgent = "kestrel-client"

// Fetcher retrieves catalog documents and plugin payload files.
type Fetcher interface {
	FetchDocument(ctx context.Context, url string) (*Document, error)
	FetchFile(ctx context.Context, urlBase, path string) ([]byte, error)
}

// HTTPFetcher fetches catalogs over HTTP(S).
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    http.DefaultClient,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchDocument retrieves and validates the catalog document at url.
// Transport failures return a *ConnectivityError; a bad response or an
// invalid document returns a *FetchError.
func (f *HTTPFetcher) FetchDocument(ctx context.Context, url string) (*Document, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return doc, nil
}

// FetchFile retrieves one plugin payload file relative to a repository's
// url_base.
func (f *HTTPFetcher) FetchFile(ctx context.Context, urlBase, path string) ([]byte, error) {
	url := strings.TrimRight(urlBase, "/") + "/" + strings.TrimLeft(path, "/")
	return f.get(ctx, url)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ConnectivityError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("server returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{URL: url, Err: err}
	}
	return body, nil
}
