package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prepdeck/prepdeck/internal/profile"
	"github.com/prepdeck/prepdeck/internal/tabular"
	"github.com/spf13/cobra"
)

var (
	profDelimiter string
	profFormat    string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a delimited-text file",
	Long: `Parse the file, infer column types, and print the resulting
profile with per-column statistics and numeric correlations.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadTable(args[0], profDelimiter)
		if err != nil {
			return err
		}

		prof := profile.Build(filepath.Base(args[0]), table, profile.Policy{})

		switch profFormat {
		case "json":
			return printJSON(cmd.OutOrStdout(), prof)
		case "text":
			printProfileSummary(cmd.OutOrStdout(), prof)
			return nil
		default:
			return fmt.Errorf("unsupported --format: %s (use json|text)", profFormat)
		}
	},
}

func init() {
	profileCmd.Flags().StringVar(&profDelimiter, "delimiter", "", "field delimiter (','|';'|'tab'|'|'), sniffed when empty")
	profileCmd.Flags().StringVar(&profFormat, "format", "text", "output format: json or text")
	rootCmd.AddCommand(profileCmd)
}

// loadTable reads and parses a local delimited-text file, applying the
// same BOM and UTF-8 handling the server uses on uploads.
func loadTable(path, delimiter string) (*tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(tabular.WrapReader(f, info.Size()))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	opts := tabular.Options{}
	switch delimiter {
	case "":
	case ",":
		opts.Delimiter = ','
	case ";":
		opts.Delimiter = ';'
	case "\t", "tab":
		opts.Delimiter = '\t'
	case "|":
		opts.Delimiter = '|'
	default:
		return nil, fmt.Errorf("unsupported --delimiter: %s", delimiter)
	}

	table, err := tabular.Parse(string(data), opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printProfileSummary(w io.Writer, prof *profile.DatasetProfile) {
	fmt.Fprintf(w, "%s: %d rows, %d columns\n\n", prof.Filename, prof.RowCount, len(prof.Columns))

	for _, col := range prof.Columns {
		fmt.Fprintf(w, "  %-24s %-12s missing=%d unique=%d\n",
			col.Name, col.Type, col.Missing, col.UniqueValues)
		if col.Numeric != nil {
			fmt.Fprintf(w, "  %-24s min=%g max=%g mean=%g median=%g std=%g\n",
				"", col.Numeric.Min, col.Numeric.Max, col.Numeric.Mean,
				col.Numeric.Median, col.Numeric.Std)
		}
	}

	if prof.DuplicateRows > 0 {
		fmt.Fprintf(w, "\n  duplicate rows: %d\n", prof.DuplicateRows)
	}
}
