package cache

import (
	"net/url"
	"strings"
)

// Key identifies a cached catalog response.
type Key struct {
	// Path is the catalog request path (e.g., "/cities/12/pubs")
	Path string

	// Query are optional query parameters
	Query url.Values
}

// String generates the deterministic request-path key.
// Format: /path[?sorted=query]
//
// Example:
//
//	/pubs/431/taps
//	/cities?lang=pl
func (k Key) String() string {
	path := "/" + strings.Trim(k.Path, "/")

	if len(k.Query) == 0 {
		return path
	}

	// Encode sorts by key
	return path + "?" + k.Query.Encode()
}

// KeyFromURL builds a key from a request URL, dropping scheme, host and any
// base path prefix so that keys stay stable across base URL changes.
func KeyFromURL(u *url.URL, basePath string) Key {
	path := strings.TrimPrefix(u.Path, strings.TrimRight(basePath, "/"))
	return Key{Path: path, Query: u.Query()}
}
