package redis

import "fmt"

const (
	// KeyPrefixRedirect is the prefix for short code -> bookmark resolutions
	KeyPrefixRedirect = "linkvault:redirect:"
)

// RedirectKey returns the Redis key for a cached short code resolution
func RedirectKey(shortCode string) string {
	return KeyPrefixRedirect + shortCode
}

// ExtractShortCode extracts the short code from a redirect key
func ExtractShortCode(key string) (string, error) {
	if len(key) <= len(KeyPrefixRedirect) || key[:len(KeyPrefixRedirect)] != KeyPrefixRedirect {
		return "", fmt.Errorf("invalid redirect key: %s", key)
	}
	return key[len(KeyPrefixRedirect):], nil
}
