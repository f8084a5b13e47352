package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/moviesearch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version number",
	Annotations: map[string]string{annotationNoServices: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("moviectl version %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
