package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// outputFormat selects how command results are printed.
type outputFormat string

const (
	// formatAuto prints tables on a terminal and JSON when piped.
	formatAuto  outputFormat = "auto"
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
)

// resolveFormat returns the effective format for cmd's output stream.
func resolveFormat(cmd *cobra.Command) (outputFormat, error) {
	switch f := outputFormat(outputFlag); f {
	case formatTable, formatJSON:
		return f, nil
	case formatAuto, "":
		if isTerminal(cmd.OutOrStdout()) {
			return formatTable, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use auto, table or json)", outputFlag)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printResult writes v as JSON, or calls table for the human format.
func printResult(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	format, err := resolveFormat(cmd)
	if err != nil {
		return err
	}
	if format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
