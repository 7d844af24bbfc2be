package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/storage"
)

var listLimit int

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum results to return (0 = all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all entries",
	Long: `List all entries of the bibliography in key order.

Examples:
  myref list
  myref list --limit 20 --human`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	refs, err := db.ListAll(listLimit)
	if err != nil {
		return fmt.Errorf("listing references: %w", err)
	}

	if !humanOutput {
		if refs == nil {
			refs = []storage.Reference{}
		}
		return outputJSON(refs)
	}

	total, _ := db.Count()
	if len(refs) == 0 {
		fmt.Println("No entries in bibliography")
		return nil
	}
	if listLimit > 0 && listLimit < total {
		fmt.Printf("%d entries (showing first %d):\n\n", total, len(refs))
	} else {
		fmt.Printf("%d entries:\n\n", len(refs))
	}
	printReferencesHuman(refs)
	return nil
}

// printReferencesHuman prints one line per reference.
func printReferencesHuman(refs []storage.Reference) {
	for _, ref := range refs {
		year := ""
		if ref.Year > 0 {
			year = fmt.Sprintf("%d", ref.Year)
		}
		fmt.Printf("  %-24s %4s  %s\n", ref.ID, year, truncateString(ref.Title, ListTitleMaxLen))
	}
}
