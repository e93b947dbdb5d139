// Command prepdeck profiles delimited-text files and compares dataset
// versions, either offline against local files or as the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prepdeck",
	Short: "Profile delimited-text datasets and diff their versions",
	Long: `Prepdeck parses CSV/TSV files, infers column types, computes
per-column statistics and numeric correlations, and compares two
versions of a dataset row by row.

The profile and diff subcommands work offline against local files.
The serve subcommand runs the HTTP API backed by PostgreSQL.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
