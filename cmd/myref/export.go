package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/clipboard"
	"github.com/matsen/myref/internal/export"
)

const clipboardUnavailableMsg = "clipboard unavailable (install xclip or xsel on Linux)"

var (
	exportOutput string
	exportAppend bool
	exportCopy   bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this .bib file instead of stdout")
	exportCmd.Flags().BoolVar(&exportAppend, "append", false, "Append to --output, skipping entries it already has")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "Also copy the BibTeX to the system clipboard")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <key>...",
	Short: "Export library entries as BibTeX",
	Long: `Export library entries as BibTeX, without their file field.

Without --output the entries are printed to stdout. With --append, entries
already present in the output file (same DOI, or same key) are skipped.

Examples:
  myref export Smith2020 Doe2019
  myref export Smith2020 -o paper/refs.bib --append
  myref export Smith2020 --copy`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

// ExportResponse is the response for export to a file.
type ExportResponse struct {
	Output  string   `json:"output"`
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
	Copied  bool     `json:"copied"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportAppend && exportOutput == "" {
		return fmt.Errorf("--append requires --output")
	}

	lib, err := openLibrary()
	if err != nil {
		return err
	}

	records, missing := export.Select(lib, args)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errUnknownKey, formatIDList(missing))
	}
	text := export.ToBibTeX(records)

	copied := false
	if exportCopy {
		if err := clipboard.New().Copy(text); err != nil {
			if errors.Is(err, clipboard.ErrUnavailable) {
				logger.Warn(clipboardUnavailableMsg)
			} else {
				logger.Warn("clipboard error", "err", err)
			}
		} else {
			copied = true
		}
	}

	if exportOutput == "" {
		fmt.Print(text)
		return nil
	}

	resp := ExportResponse{Output: exportOutput, Skipped: []string{}, Copied: copied}
	if exportAppend {
		res, err := export.AppendToFile(exportOutput, records)
		if err != nil {
			return err
		}
		resp.Added, resp.Skipped = res.Added, res.Skipped
	} else {
		if err := os.WriteFile(exportOutput, []byte(text), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", exportOutput, err)
		}
		for _, r := range records {
			resp.Added = append(resp.Added, r.ID())
		}
	}

	if humanOutput {
		outputHuman("Exported %d entries to %s\n", len(resp.Added), exportOutput)
		if len(resp.Skipped) > 0 {
			outputHuman("Skipped (already present): %s\n", strings.Join(resp.Skipped, ", "))
		}
		return nil
	}
	return outputJSON(resp)
}
