package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/library"
	"github.com/matsen/myref/internal/pdf"
)

var openFile int

func init() {
	openCmd.Flags().IntVar(&openFile, "file", 1, "Open the Nth associated file (1-indexed)")
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <key>",
	Short: "Open an entry's file in the configured reader",
	Long: `Open an entry's file in the configured reader.

Examples:
  myref open Perrette_2011
  myref open Perrette_2011 --file 2`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

// OpenResult is the response for the open command.
type OpenResult struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

func runOpen(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	r, ok := lib.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownKey, args[0])
	}
	files := library.GetFiles(r)
	if openFile < 1 || openFile > len(files) {
		return fmt.Errorf("%s has %d file(s), cannot open file %d", r.ID(), len(files), openFile)
	}
	path := files[openFile-1].Path

	if err := pdf.NewOpener(settings.PDFReader).Open(path); err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Opened %s\n", path)
		return nil
	}
	return outputJSON(OpenResult{Status: "opened", Path: path})
}
