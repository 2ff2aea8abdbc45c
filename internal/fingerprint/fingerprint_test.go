package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("my recent pull requests")
	b := Fingerprint("my recent pull requests")
	assert.Equal(t, a, b)
}

func TestFingerprintNormalisesCase(t *testing.T) {
	assert.Equal(t,
		Fingerprint("My Recent Pull Requests"),
		Fingerprint("my recent pull requests"))
}

func TestFingerprintTrimsWhitespace(t *testing.T) {
	assert.Equal(t,
		Fingerprint("  hello world\n"),
		Fingerprint("hello world"))
}

func TestFingerprintEmptyString(t *testing.T) {
	// Must not panic; returns the digest of the empty normalised string.
	got := Fingerprint("")
	assert.Len(t, got, 64)
	assert.Equal(t, got, Fingerprint("   "))
}

func TestFingerprintPrefixBound(t *testing.T) {
	prefix := strings.Repeat("a", 500)
	long := prefix + strings.Repeat("b", 2000)
	other := prefix + strings.Repeat("c", 100)

	// Content beyond the prefix does not affect the key.
	assert.Equal(t, Fingerprint(long), Fingerprint(other))
	assert.Equal(t, Fingerprint(long), Fingerprint(prefix))

	// A custom bound shorter than the difference distinguishes nothing...
	assert.Equal(t, FingerprintPrefix(long, 100), FingerprintPrefix(other, 100))
	// ...while content inside the bound does.
	assert.NotEqual(t, FingerprintPrefix("abc", 100), FingerprintPrefix("abd", 100))
}

func TestFingerprintPrefixNonPositiveUsesDefault(t *testing.T) {
	assert.Equal(t, Fingerprint("some text"), FingerprintPrefix("some text", 0))
	assert.Equal(t, Fingerprint("some text"), FingerprintPrefix("some text", -1))
}

func TestFingerprintMultibyteSafe(t *testing.T) {
	// Truncation must not split a multi-byte rune.
	text := strings.Repeat("é", 600)
	assert.NotPanics(t, func() { Fingerprint(text) })
	assert.Equal(t, Fingerprint(text), Fingerprint(strings.Repeat("é", 501)))
}

func TestHashAlgorithms(t *testing.T) {
	tests := []struct {
		algorithm string
		length    int
	}{
		{"md5", 32},
		{"sha1", 40},
		{"sha256", 64},
		{"SHA256", 64},
		{"unknown", 64}, // falls back to sha256
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			got := Hash("payload", tt.algorithm)
			assert.Len(t, got, tt.length)
			assert.Equal(t, got, Hash("payload", tt.algorithm))
		})
	}
}

func TestHashDoesNotNormalise(t *testing.T) {
	assert.NotEqual(t, Hash("Payload", "sha256"), Hash("payload", "sha256"))
}
