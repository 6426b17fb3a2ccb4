package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL returns the canonical form of raw used for hashing and storage.
//
// Scheme and authority are lower-cased and the fragment is dropped. Path and
// query are kept byte for byte: no percent-decoding, no trailing slash
// handling, no parameter reordering.
//
// Examples:
//   - "HTTP://Example.com/Path#top" -> "http://example.com/Path"
//   - "https://a.io/x?B=2&a=1"      -> "https://a.io/x?B=2&a=1"
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidURL)
	}

	sep := strings.Index(raw, "://")
	if sep <= 0 {
		return "", fmt.Errorf("%w: missing scheme in %q", ErrInvalidURL, raw)
	}
	scheme := raw[:sep]
	rest := raw[sep+len("://"):]

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}

	authority, tail := rest, ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority, tail = rest[:i], rest[i:]
	}

	// Only scheme and authority are validated; the tail is never parsed so
	// stray '%' in the path survives untouched.
	u, err := url.Parse(scheme + "://" + authority)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: missing scheme in %q", ErrInvalidURL, raw)
	}
	if u.Host == "" || u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}

	return strings.ToLower(scheme) + "://" + strings.ToLower(authority) + tail, nil
}

// HasHTTPScheme reports whether raw starts with http:// or https://
// (case-insensitive).
func HasHTTPScheme(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
