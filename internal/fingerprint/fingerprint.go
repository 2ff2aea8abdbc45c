// Package fingerprint derives deterministic dedup keys for ingested
// content. Two records whose normalised text collides here are treated
// as duplicates regardless of which connector produced them; collision
// is the intended dedup signal, not an error.
package fingerprint

import (
	"crypto/md5"  // #nosec G501 -- dedup keys, not security
	"crypto/sha1" // #nosec G505 -- dedup keys, not security
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultPrefixLength bounds how much text is hashed. A bounded prefix
// is enough for near-duplicate detection; hashing full documents would
// scale cost with content size for no dedup benefit.
const DefaultPrefixLength = 500

// Fingerprint returns the dedup key for the given text using the
// default prefix length. Pure and deterministic; safe on empty input.
func Fingerprint(text string) string {
	return FingerprintPrefix(text, DefaultPrefixLength)
}

// FingerprintPrefix returns the dedup key computed over at most
// prefixLength characters of the normalised text. A non-positive
// prefixLength falls back to DefaultPrefixLength.
func FingerprintPrefix(text string, prefixLength int) string {
	sum := sha256.Sum256([]byte(normalise(text, prefixLength)))
	return hex.EncodeToString(sum[:])
}

// Hash digests the raw text with the named algorithm ("md5", "sha1" or
// "sha256"). Unlike Fingerprint it does not normalise or truncate;
// callers needing different collision-resistance trade-offs use this.
// An unrecognised algorithm falls back to sha256.
func Hash(text, algorithm string) string {
	data := []byte(text)
	switch strings.ToLower(algorithm) {
	case "md5":
		sum := md5.Sum(data) // #nosec G401 -- dedup keys, not security
		return hex.EncodeToString(sum[:])
	case "sha1":
		sum := sha1.Sum(data) // #nosec G401 -- dedup keys, not security
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}

// normalise lowercases, trims, and truncates to a bounded number of
// characters (runes, so multi-byte text never splits mid-character).
func normalise(text string, prefixLength int) string {
	if prefixLength <= 0 {
		prefixLength = DefaultPrefixLength
	}

	s := strings.ToLower(strings.TrimSpace(text))
	runes := []rune(s)
	if len(runes) > prefixLength {
		return string(runes[:prefixLength])
	}
	return s
}
