package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/ingest"
)

var (
	importReplace bool
	importDryRun  bool
)

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Replace entries whose key is already present")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Report what would change without saving")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.bib>",
	Short: "Merge another BibTeX file into the library",
	Long: `Merge another BibTeX file into the library.

Entries are inserted in key order. Entries whose key is already present are
skipped unless --replace is given.

Examples:
  myref import other.bib
  myref import other.bib --replace --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportResponse is the response for the import command.
type ImportResponse struct {
	*ingest.ImportResult
	Total  int  `json:"total"`
	DryRun bool `json:"dry_run"`
}

func runImport(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	p := &ingest.Pipeline{Library: lib, Logger: logger}
	res, err := p.ImportFile(args[0], importReplace)
	if err != nil {
		return err
	}

	if !importDryRun {
		if err := lib.Save(); err != nil {
			return err
		}
	}

	if humanOutput {
		outputHuman("Imported %s: %d added, %d replaced, %d skipped\n", args[0], res.Added, res.Replaced, res.Skipped)
		outputHuman("%d entries in %s\n", lib.Len(), lib.Path())
		if importDryRun {
			outputHuman("(dry run, nothing saved)\n")
		}
		return nil
	}
	return outputJSON(ImportResponse{ImportResult: res, Total: lib.Len(), DryRun: importDryRun})
}
