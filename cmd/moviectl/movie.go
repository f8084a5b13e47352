package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/moviesearch/internal/domain"
)

var movieCmd = &cobra.Command{
	Use:   "movie",
	Short: "Inspect or remove stored movies",
}

var movieGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Print a stored movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if catalogService == nil {
			return errNotConfigured
		}
		m, err := catalogService.Get(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrMovieNotFound) {
			return fmt.Errorf("movie %q not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("get movie: %w", err)
		}
		cmd.Printf("ID:        %s\n", m.ID())
		cmd.Printf("Title:     %s\n", m.Title())
		cmd.Printf("Plot:      %s\n", m.Plot())
		cmd.Printf("Full plot: %s\n", m.FullPlot())
		cmd.Printf("Embedding: %d dims\n", len(m.Embedding()))
		return nil
	},
}

var movieDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if catalogService == nil {
			return errNotConfigured
		}
		err := catalogService.Delete(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrMovieNotFound) {
			return fmt.Errorf("movie %q not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("delete movie: %w", err)
		}
		cmd.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

func init() {
	movieCmd.AddCommand(movieGetCmd, movieDeleteCmd)
	rootCmd.AddCommand(movieCmd)
}
