package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load movies from a JSON Lines export",
	Long: `Loads movies from a JSON Lines file (one document per line, as exported by
mongoexport from sample_mflix.embedded_movies). Reads stdin when the file is "-".
Documents without a plot_embedding are embedded with the configured model.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errNotConfigured
	}

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(filepath.Clean(args[0]))
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	report, err := catalogService.Load(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	cmd.Printf("Read:     %d\n", report.Read)
	cmd.Printf("Loaded:   %d\n", report.Loaded)
	cmd.Printf("Embedded: %d (%d tokens)\n", report.Embedded, report.Tokens)
	cmd.Printf("Skipped:  %d\n", report.Skipped)
	cmd.Printf("Failed:   %d\n", report.Failed)
	cmd.Printf("Took:     %s\n", report.Duration.Round(time.Millisecond))
	return nil
}
