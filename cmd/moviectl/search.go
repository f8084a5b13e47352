package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/moviesearch/internal/usecase/search"
)

var (
	searchMode  string
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search movies",
	Long: `Searches the movie index.
lexical ranks by full-text (BM25) relevance, hybrid merges it with plot similarity,
and rag adds a synthesized answer built from the top results.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(mode.Hybrid), "search mode: lexical, hybrid, rag")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", request.DefaultLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured
	}

	m, err := mode.Parse(searchMode)
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	req, err := request.New(args[0], m, searchLimit)
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}

	resp, err := searchService.Search(cmd.Context(), &req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, &resp)
	}
	outputSearchTable(cmd, &resp)
	return nil
}

type jsonResult struct {
	ID            string   `json:"_id"`
	Title         string   `json:"title"`
	Plot          string   `json:"plot"`
	Score         *float64 `json:"score,omitempty"`
	Similarity    *float64 `json:"similarity,omitempty"`
	WeightedScore float64  `json:"weightedScore"`
}

func outputSearchJSON(cmd *cobra.Command, resp *searchuc.Response) error {
	out := struct {
		Results []jsonResult `json:"results"`
		Answer  *string      `json:"answer"`
	}{Results: make([]jsonResult, 0, len(resp.Results)), Answer: resp.Answer}

	for i := range resp.Results {
		r := &resp.Results[i]
		m := r.Movie()
		out.Results = append(out.Results, jsonResult{
			ID:            m.ID(),
			Title:         m.Title(),
			Plot:          m.Plot(),
			Score:         r.LexicalScore(),
			Similarity:    r.VectorScore(),
			WeightedScore: r.CombinedScore(),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	// stdout, so the output can be piped
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err //nolint:wrapcheck // terminal write
}

func outputSearchTable(cmd *cobra.Command, resp *searchuc.Response) {
	if resp.Answer != nil {
		cmd.Println("Answer:")
		cmd.Println(*resp.Answer)
		cmd.Println()
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	for i := range resp.Results {
		r := &resp.Results[i]
		m := r.Movie()
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, m.Title(), r.CombinedScore())
		if plot := m.Plot(); plot != "" {
			cmd.Printf("      %s\n", plot)
		}
	}
	cmd.Printf("\n%d results in %s\n", len(resp.Results), resp.Elapsed)
}
