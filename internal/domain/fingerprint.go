package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	// HashLength is the length of a hex-encoded SHA-256.
	HashLength = sha256.Size * 2

	// ShortCodeLength is the length of a redirect code.
	ShortCodeLength = 6

	// shortCodeHexPrefix is the number of hash characters (6 bytes) feeding a short code.
	shortCodeHexPrefix = 12
)

// HashURL returns the lower-case hex SHA-256 of a normalized URL.
func HashURL(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ShortCode derives the redirect code of a hash: the first 6 bytes of the
// hash, URL-safe base64 without padding, truncated to 6 characters.
//
// The result is not checked against existing codes; uniqueness is enforced
// by the store.
func ShortCode(hash string) (string, error) {
	if len(hash) < shortCodeHexPrefix {
		return "", fmt.Errorf("%w: hash needs at least %d hex characters, got %d",
			ErrInvalidInput, shortCodeHexPrefix, len(hash))
	}

	prefix, err := hex.DecodeString(hash[:shortCodeHexPrefix])
	if err != nil {
		return "", fmt.Errorf("%w: hash prefix is not hex: %v", ErrInvalidInput, err)
	}

	return base64.RawURLEncoding.EncodeToString(prefix)[:ShortCodeLength], nil
}

// Fingerprint hashes an already normalized URL and derives its short code
// in one call.
func Fingerprint(normalized string) (hash, code string, err error) {
	hash = HashURL(normalized)
	code, err = ShortCode(hash)
	if err != nil {
		return "", "", err
	}
	return hash, code, nil
}
