package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/cache"
	"github.com/matsen/myref/internal/doi"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <doi>",
	Short: "Print the BibTeX record Crossref holds for a DOI",
	Long: `Print the BibTeX record Crossref holds for a DOI.

The result is cached, so repeated fetches do not hit the network.

Examples:
  myref fetch 10.5194/bg-8-515-2011`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	if err := doi.Validate(id); err != nil {
		return err
	}

	c, err := cache.Open(settings.CacheFile, cache.Options{Logger: logger})
	if err != nil {
		return err
	}
	client := newCrossrefClient()

	text, err := c.GetOrFetch(cmd.Context(), id, client.FetchBibTeX)
	if err != nil {
		return err
	}
	fmt.Print(text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Println()
	}
	return nil
}
