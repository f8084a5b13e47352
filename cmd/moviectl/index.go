package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/moviesearch/internal/domain"
)

var dropDocs bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the movie index",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the movie index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if catalogService == nil {
			return errNotConfigured
		}
		err := catalogService.CreateIndex(cmd.Context())
		switch {
		case errors.Is(err, domain.ErrIndexExists):
			cmd.Println("Index already exists.")
			return nil
		case err != nil:
			return fmt.Errorf("create index: %w", err)
		}
		cmd.Println("Index created.")
		return nil
	},
}

var indexDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the movie index",
	Long: `Drops the movie index. With --delete-docs every stored movie is removed too;
otherwise the hashes stay and are re-indexed by the next "index create".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if catalogService == nil {
			return errNotConfigured
		}
		if err := catalogService.DropIndex(cmd.Context(), dropDocs); err != nil {
			return fmt.Errorf("drop index: %w", err)
		}
		cmd.Println("Index dropped.")
		return nil
	},
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index status and movie count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if catalogService == nil {
			return errNotConfigured
		}
		stats, err := catalogService.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		if !stats.IndexExists {
			cmd.Println("Index: missing")
			return nil
		}
		cmd.Println("Index: ready")
		cmd.Printf("Movies: %d\n", stats.Movies)
		return nil
	},
}

func init() {
	indexDropCmd.Flags().BoolVar(&dropDocs, "delete-docs", false, "also delete every stored movie")
	indexCmd.AddCommand(indexCreateCmd, indexDropCmd, indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}
