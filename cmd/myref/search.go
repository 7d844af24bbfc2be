package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/storage"
)

var (
	searchAuthors  []string
	searchTitle    string
	searchYearFrom int
	searchYearTo   int
	searchDOI      string
	searchLimit    int
)

func init() {
	searchCmd.Flags().StringArrayVarP(&searchAuthors, "author", "a", nil, "Author name, prefix matched (repeatable, AND)")
	searchCmd.Flags().StringVar(&searchTitle, "title", "", "Search in titles only")
	searchCmd.Flags().IntVar(&searchYearFrom, "year-from", 0, "Earliest year")
	searchCmd.Flags().IntVar(&searchYearTo, "year-to", 0, "Latest year")
	searchCmd.Flags().StringVar(&searchDOI, "doi", "", "Exact DOI")
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the bibliography",
	Long: `Search titles, authors, journals, and years of the bibliography.

Flags combine with AND.

Examples:
  myref search arctic blooms
  myref search --author Perrette --year-from 2010
  myref search --doi 10.5194/bg-8-515-2011`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters := storage.SearchFilters{
		Keyword:  strings.Join(args, " "),
		Authors:  searchAuthors,
		Title:    searchTitle,
		YearFrom: searchYearFrom,
		YearTo:   searchYearTo,
		DOI:      searchDOI,
	}
	if filters.Keyword == "" && len(filters.Authors) == 0 && filters.Title == "" &&
		filters.YearFrom == 0 && filters.YearTo == 0 && filters.DOI == "" {
		return fmt.Errorf("search needs a query or at least one filter")
	}

	db, err := openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	refs, err := db.SearchWithFilters(filters, searchLimit)
	if err != nil {
		return err
	}

	if !humanOutput {
		if refs == nil {
			refs = []storage.Reference{}
		}
		return outputJSON(refs)
	}

	if len(refs) == 0 {
		fmt.Println("No matches")
		return nil
	}
	fmt.Printf("%d matches:\n\n", len(refs))
	for _, ref := range refs {
		fmt.Printf("  %s (%d)\n", ref.ID, ref.Year)
		fmt.Printf("    %s\n", truncateString(ref.Title, ListTitleMaxLen))
		if len(ref.Authors) > 0 {
			fmt.Printf("    %s\n", formatAuthorsShort(ref.Authors, 3))
		}
	}
	return nil
}
