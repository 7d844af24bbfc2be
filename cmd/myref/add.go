package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/cache"
	"github.com/matsen/myref/internal/doi"
	"github.com/matsen/myref/internal/ingest"
	"github.com/matsen/myref/internal/library"
	"github.com/matsen/myref/internal/pdf"
)

var (
	addAttachments  []string
	addRename       bool
	addCopy         bool
	addDryRun       bool
	addAppend       bool
	addDOI          string
	addFulltext     bool
	addNoSpaceDigit bool
	addRecursive    bool
	addStrictPrefix bool
)

func init() {
	addCmd.Flags().StringSliceVarP(&addAttachments, "attachments", "a", nil, "Supplementary files to associate with the entry")
	addCmd.Flags().BoolVarP(&addRename, "rename", "r", false, "Rename files to <filesdir>/<year>/<key>")
	addCmd.Flags().BoolVarP(&addCopy, "copy", "c", false, "Copy files instead of moving them")
	addCmd.Flags().BoolVar(&addDryRun, "dry-run", false, "Do not touch files, the cache, or the bibliography")
	addCmd.Flags().BoolVar(&addAppend, "append", false, "Keep files already associated with an existing entry")
	addCmd.Flags().StringVar(&addDOI, "doi", "", "Use this DOI instead of extracting one")
	addCmd.Flags().BoolVar(&addFulltext, "fulltext", false, "Query Crossref by title when the PDF has no DOI")
	addCmd.Flags().BoolVar(&addNoSpaceDigit, "no-space-digit", false, "Do not read spaces between digits in the DOI as underscores")
	addCmd.Flags().BoolVar(&addStrictPrefix, "strict-prefix", false, "Require a full doi:/dx.doi.org/ prefix before the DOI")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "R", false, "Treat the argument as a directory and add every PDF and .bib file in it")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <pdf>",
	Short: "Add a PDF to the library",
	Long: `Add a PDF to the library.

Extracts the DOI from the first pages of the PDF, fetches the BibTeX record
from Crossref, and inserts it into the bibliography. If an entry with the
same key exists it is kept, and the PDF is associated with it.

Examples:
  myref add paper.pdf
  myref add paper.pdf -a supplement.pdf -r
  myref add paper.pdf --doi 10.5194/bg-8-515-2011 --dry-run
  myref add --recursive ~/Downloads/papers -r`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

// AddResult is the response for the add command.
type AddResult struct {
	*ingest.Result
	Bibtex string `json:"bibtex"`
	Saved  bool   `json:"saved"`
}

func runAdd(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	p, err := newPipeline(lib, addDryRun, addDOIOptions())
	if err != nil {
		return err
	}

	opts := ingest.Options{
		Attachments: addAttachments,
		Rename:      addRename,
		Copy:        addCopy,
		Append:      addAppend,
		DryRun:      addDryRun,
		DOI:         addDOI,
		Fulltext:    addFulltext,
	}
	if addRecursive {
		return runAddDir(cmd, lib, p, args[0], opts)
	}

	res, err := p.AddPDF(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}

	if !addDryRun {
		if err := lib.Save(); err != nil {
			return err
		}
	}

	if humanOutput {
		verb := "Added"
		if res.Action == ingest.ActionExisting {
			verb = "Updated"
		}
		outputHuman("%s %s (doi %s)\n", verb, res.Key, res.DOI)
		for _, f := range res.Files {
			outputHuman("  %s\n", f)
		}
		if addDryRun {
			outputHuman("\n%s", res.Record)
		}
		return nil
	}
	return outputJSON(AddResult{Result: res, Bibtex: res.Record.String(), Saved: !addDryRun})
}

// ScanResponse is the response for add --recursive.
type ScanResponse struct {
	*ingest.ScanResult
	Saved bool `json:"saved"`
}

func runAddDir(cmd *cobra.Command, lib *library.Library, p *ingest.Pipeline, dir string, opts ingest.Options) error {
	if opts.DOI != "" || len(opts.Attachments) > 0 {
		return fmt.Errorf("--doi and --attachments cannot be used with --recursive")
	}

	res, err := p.ScanDir(cmd.Context(), dir, opts)
	if err != nil {
		return err
	}

	if !opts.DryRun {
		if err := lib.Save(); err != nil {
			return err
		}
	}

	if humanOutput {
		outputHuman("Scanned %s: %d PDFs added, %d entries imported, %d failed\n",
			dir, len(res.Added), res.Imported.Added, len(res.Failed))
		for _, f := range res.Failed {
			outputHuman("  %s: %s\n", f.Path, f.Error)
		}
		return nil
	}
	return outputJSON(ScanResponse{ScanResult: res, Saved: !opts.DryRun})
}

// newPipeline wires the settings-driven collaborators of an ingest pipeline.
func newPipeline(lib *library.Library, dryRun bool, opts doi.Options) (*ingest.Pipeline, error) {
	text, err := pdf.NewTextExtractor(settings.Extractor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	c, err := cache.Open(settings.CacheFile, cache.Options{DryRun: dryRun, Logger: logger})
	if err != nil {
		return nil, err
	}
	client := newCrossrefClient()

	ex := doi.NewExtractor(text, opts)
	ex.Logger = logger

	return &ingest.Pipeline{
		Extractor: ex,
		Lookup: func(ctx context.Context, id string) (string, error) {
			return c.GetOrFetch(ctx, id, client.FetchBibTeX)
		},
		Search:  client.SearchDOI,
		Library: lib,
		Logger:  logger,
	}, nil
}

// addDOIOptions enables the space-digit fix unless --no-space-digit is set.
func addDOIOptions() doi.Options {
	return doiOptions(!addNoSpaceDigit, addStrictPrefix)
}

func doiOptions(spaceDigit, strictPrefix bool) doi.Options {
	opts := doi.Options{SpaceDigit: spaceDigit, Prefix: doi.PrefixLegacy}
	if strictPrefix {
		opts.Prefix = doi.PrefixStrict
	}
	return opts
}
