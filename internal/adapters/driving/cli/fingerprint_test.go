package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestFingerprintCmd_Executes(t *testing.T) {
	out, err := runCommand(t, "fingerprint", "Hello World")

	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.Len(t, hash, 64)

	// Normalisation makes case and padding irrelevant.
	out2, err := runCommand(t, "fingerprint", "  hello world  ")
	require.NoError(t, err)
	assert.Equal(t, hash, strings.TrimSpace(out2))
}

func TestFingerprintCmd_Algorithm(t *testing.T) {
	out, err := runCommand(t, "fingerprint", "--algorithm", "md5", "content")

	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 32)
}
