// Command recall is the CLI entry point for the Recall retrieval
// engine.
package main

import (
	"os"

	"github.com/recall-labs/recall-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
