// Package main provides the myref CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "myref",
	Short: "Personal reference library manager",
	Long: `myref keeps a BibTeX bibliography of the PDFs you read.

Adding a PDF extracts its DOI, fetches the BibTeX record from Crossref,
inserts it into the sorted bibliography, and optionally files the PDF
under <filesdir>/<year>/<key>.pdf. Lookups are cached in a JSON file.

Settings come from flags, MYREF_* environment variables (a .env file is
read if present), and ~/.config/myref/config.yml, in that order.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	pf.StringVar(&configFile, "config", "", "Config file (default ~/.config/myref/config.yml)")
	pf.String(flagBibtex, "", "Bibliography file (default myref.bib)")
	pf.String(flagFilesDir, "", "Root directory for renamed files (default files)")
	pf.String(flagCacheFile, "", "Crossref lookup cache (default .crossref-bibtex.json)")
	pf.String(flagExtractor, "", "Text extractor: pdftotext or native (default pdftotext)")
	pf.String(flagLogLevel, "", "Log level: debug, info, warn, error (default info)")
	rootCmd.Version = Version
}
