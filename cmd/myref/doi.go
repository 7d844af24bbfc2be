package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/doi"
	"github.com/matsen/myref/internal/pdf"
)

var (
	doiSpaceDigit   bool
	doiStrictPrefix bool
)

func init() {
	doiCmd.Flags().BoolVar(&doiSpaceDigit, "space-digit", false, "Read spaces between digits in the DOI as underscores")
	doiCmd.Flags().BoolVar(&doiStrictPrefix, "strict-prefix", false, "Require a full doi:/dx.doi.org/ prefix before the DOI")
	rootCmd.AddCommand(doiCmd)
}

var doiCmd = &cobra.Command{
	Use:   "doi <pdf>",
	Short: "Print the DOI found in a PDF",
	Long: `Print the DOI found in the first pages of a PDF.

Examples:
  myref doi paper.pdf
  myref doi --space-digit paper.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runDOI,
}

func runDOI(cmd *cobra.Command, args []string) error {
	text, err := pdf.NewTextExtractor(settings.Extractor)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	ex := doi.NewExtractor(text, doiOptions(doiSpaceDigit, doiStrictPrefix))
	ex.Logger = logger

	id, err := ex.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}
