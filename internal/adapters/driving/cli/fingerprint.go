package cli

import (
	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/fingerprint"
)

var (
	fingerprintPrefix    int
	fingerprintAlgorithm string
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [text]",
	Short: "Compute the dedup fingerprint of a text",
	Long: `Computes the content fingerprint used for deduplication: SHA-256 of
the lowercased, trimmed text prefix. Two texts with the same
fingerprint are treated as duplicates across all sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runFingerprint,
}

func init() {
	fingerprintCmd.Flags().IntVar(&fingerprintPrefix, "prefix-length", 0, "normalised prefix length in runes (0 = default)")
	fingerprintCmd.Flags().StringVar(&fingerprintAlgorithm, "algorithm", "", "raw hash instead: md5, sha1, or sha256")
	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	text := args[0]

	if fingerprintAlgorithm != "" {
		cmd.Println(fingerprint.Hash(text, fingerprintAlgorithm))
		return nil
	}

	cmd.Println(fingerprint.FingerprintPrefix(text, fingerprintPrefix))
	return nil
}
