// Package ingest adds PDFs and foreign bibliographies to a library.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matsen/myref/internal/doi"
	"github.com/matsen/myref/internal/library"
)

// Where a DOI came from.
const (
	SourceExplicit = "explicit"
	SourcePDF      = "pdf"
	SourceFulltext = "fulltext"
)

// What AddPDF did to the library.
const (
	ActionAdded    = "added"
	ActionExisting = "existing"
)

// LookupFunc resolves a DOI to BibTeX text.
type LookupFunc func(ctx context.Context, doi string) (string, error)

// SearchFunc resolves a free-text bibliographic query to a DOI.
type SearchFunc func(ctx context.Context, query string) (string, error)

// Pipeline wires DOI extraction, metadata lookup, and the library together.
type Pipeline struct {
	Extractor *doi.Extractor
	Lookup    LookupFunc
	// Search is optional; it is only used for fulltext fallback.
	Search  SearchFunc
	Library *library.Library
	Logger  *log.Logger
}

// Options controls a single AddPDF call.
type Options struct {
	Attachments []string
	Rename      bool
	Copy        bool
	// Append keeps the files already associated with an existing entry.
	Append bool
	DryRun bool
	// DOI skips extraction when set.
	DOI string
	// Fulltext queries Crossref with the guessed title when no DOI is found.
	Fulltext bool
}

// Result describes the outcome of AddPDF.
type Result struct {
	DOI       string          `json:"doi"`
	DOISource string          `json:"doi_source"`
	Key       string          `json:"key"`
	Action    string          `json:"action"`
	Files     []library.File  `json:"files"`
	Renamed   int             `json:"renamed"`
	Record    *library.Record `json:"-"`
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger == nil {
		return log.Default()
	}
	return p.Logger
}

// AddPDF resolves the DOI of pdf, fetches its record, inserts it into the
// library, and associates pdf and any attachments with it. The library is
// modified in memory only; saving is left to the caller.
func (p *Pipeline) AddPDF(ctx context.Context, pdf string, opts Options) (*Result, error) {
	if _, err := os.Stat(pdf); err != nil {
		return nil, fmt.Errorf("PDF not found: %w", err)
	}

	id, source, err := p.resolveDOI(ctx, pdf, opts)
	if err != nil {
		return nil, err
	}
	p.logger().Info("found doi", "doi", id, "source", source)

	text, err := p.Lookup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching bibtex for %s: %w", id, err)
	}
	records, err := library.ParseRecords(text)
	if err != nil {
		return nil, fmt.Errorf("parsing bibtex for %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no entry in record for %s", library.ErrParse, id)
	}

	entry, inserted := p.Library.Insert(records[0], false)
	action := ActionAdded
	if !inserted {
		action = ActionExisting
	}

	files := append([]string{pdf}, opts.Attachments...)
	library.SetFiles(entry, files, !opts.Append)

	renamed := 0
	if opts.Rename {
		renamed, err = p.Library.RenameFiles(entry, library.RenameOptions{Copy: opts.Copy, DryRun: opts.DryRun})
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		DOI:       id,
		DOISource: source,
		Key:       entry.ID(),
		Action:    action,
		Files:     library.GetFiles(entry),
		Renamed:   renamed,
		Record:    entry,
	}, nil
}

func (p *Pipeline) resolveDOI(ctx context.Context, pdf string, opts Options) (string, string, error) {
	if opts.DOI != "" {
		if err := doi.Validate(opts.DOI); err != nil {
			return "", "", err
		}
		return opts.DOI, SourceExplicit, nil
	}

	id, err := p.Extractor.Extract(ctx, pdf)
	if err == nil {
		return id, SourcePDF, nil
	}
	if !opts.Fulltext || p.Search == nil || !(errors.Is(err, doi.ErrNotFound) || errors.Is(err, doi.ErrInvalid)) {
		return "", "", err
	}

	text, terr := p.Extractor.Text.PageText(ctx, pdf, 1, 1)
	if terr != nil {
		return "", "", err
	}
	title := doi.GuessTitle(text)
	if title == "" {
		return "", "", err
	}
	p.logger().Info("no doi in PDF, querying by title", "title", title)

	id, serr := p.Search(ctx, title)
	if serr != nil {
		return "", "", fmt.Errorf("fulltext search for %q: %w", title, serr)
	}
	return id, SourceFulltext, nil
}

// ImportResult summarizes ImportFile.
type ImportResult struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// ImportFile inserts every entry of the BibTeX file at path. Entries whose key
// is already present are skipped unless replace is set.
func (p *Pipeline) ImportFile(path string, replace bool) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	records, err := library.ParseRecords(string(data))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	res := &ImportResult{}
	for _, r := range records {
		_, existed := p.Library.Get(r.ID())
		_, inserted := p.Library.Insert(r, replace)
		switch {
		case !existed:
			res.Added++
		case inserted:
			res.Replaced++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

// ScanFailure records a file ScanDir could not ingest.
type ScanFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanResult summarizes ScanDir.
type ScanResult struct {
	Added    []*Result     `json:"added"`
	Imported ImportResult  `json:"imported"`
	Failed   []ScanFailure `json:"failed"`
}

// ScanDir walks dir, adding every PDF with AddPDF and importing every .bib
// file with ImportFile. Hidden files, directories starting with "." or "_",
// and the library's files directory are skipped. A file that fails is logged
// and recorded; only cancellation stops the walk. opts.DOI is ignored.
func (p *Pipeline) ScanDir(ctx context.Context, dir string, opts Options) (*ScanResult, error) {
	opts.DOI = ""
	res := &ScanResult{Added: []*Result{}, Failed: []ScanFailure{}}

	filesDir := filepath.Clean(p.Library.FilesDir())
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || filepath.Clean(path) == filesDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		var ferr error
		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf":
			var r *Result
			if r, ferr = p.AddPDF(ctx, path, opts); ferr == nil {
				res.Added = append(res.Added, r)
			}
		case ".bib":
			var r *ImportResult
			if r, ferr = p.ImportFile(path, false); ferr == nil {
				res.Imported.Added += r.Added
				res.Imported.Skipped += r.Skipped
			}
		default:
			return nil
		}

		if ferr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger().Warn("skipping file", "path", path, "err", ferr)
			res.Failed = append(res.Failed, ScanFailure{Path: path, Error: ferr.Error()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return res, nil
}
