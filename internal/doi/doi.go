// Package doi locates Digital Object Identifiers in text extracted from PDFs.
package doi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// MinLength is the length a cleaned DOI must exceed to be accepted.
const MinLength = 8

var (
	// ErrNotFound indicates no DOI-shaped substring was found.
	ErrNotFound = errors.New("no DOI found")

	// ErrInvalid indicates a match was found but is implausible.
	ErrInvalid = errors.New("implausible DOI")
)

// ValidationError reports a candidate rejected by Validate.
type ValidationError struct {
	Candidate string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("failed to extract doi: %q is too short", e.Candidate)
}

// Unwrap lets errors.Is match ErrInvalid.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// PrefixMode selects how the "doi:"-style prefix in front of a DOI is matched.
type PrefixMode int

const (
	// PrefixLegacy compiles the prefix alternatives into one character class:
	// any single character out of "doi:| .xgr/" right before "10." satisfies it.
	PrefixLegacy PrefixMode = iota
	// PrefixStrict requires one of the prefixes verbatim.
	PrefixStrict
)

// prefixes are the recognized spellings in front of a DOI.
var prefixes = []string{`doi:`, `doi: `, `doi `, `dx\.doi\.org/`, `doi/`}

// Options controls parsing.
type Options struct {
	// SpaceDigit accepts spaces followed by digits inside the DOI and turns
	// them back into underscores.
	SpaceDigit bool
	Prefix     PrefixMode
}

var patterns = map[Options]*regexp.Regexp{}

func init() {
	for _, mode := range []PrefixMode{PrefixLegacy, PrefixStrict} {
		for _, fix := range []bool{false, true} {
			opts := Options{SpaceDigit: fix, Prefix: mode}
			patterns[opts] = regexp.MustCompile(buildPattern(opts))
		}
	}
}

// buildPattern assembles prefix, captured body and terminator.
func buildPattern(opts Options) string {
	body := `10\.\d\d\d\d/.*?`
	if opts.SpaceDigit {
		body += `[ \d]*`
	}
	stop := `[, \n]`

	var prefix string
	switch opts.Prefix {
	case PrefixStrict:
		prefix = `(?:` + strings.Join(prefixes, "|") + `)`
	default:
		prefix = `[` + strings.Join(prefixes, "|") + `]`
	}

	return prefix + `(` + body + `)` + stop
}

// Parse returns the first DOI found in text.
func Parse(text string, opts Options) (string, error) {
	re := patterns[opts]
	if re == nil {
		re = regexp.MustCompile(buildPattern(opts))
	}

	m := re.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", ErrNotFound
	}

	doi := Clean(m[1], opts.SpaceDigit)
	if err := Validate(doi); err != nil {
		return "", err
	}
	return doi, nil
}

// Clean strips line breaks and surrounding periods from a raw match and,
// when spaceDigit is set, replaces spaces with underscores.
func Clean(match string, spaceDigit bool) string {
	doi := strings.ReplaceAll(match, "\n", "")
	doi = strings.Trim(doi, ".")
	if spaceDigit {
		doi = strings.ReplaceAll(doi, " ", "_")
	}
	return doi
}

// Validate rejects DOIs of MinLength characters or fewer.
func Validate(doi string) error {
	if utf8.RuneCountInString(doi) <= MinLength {
		return &ValidationError{Candidate: doi}
	}
	return nil
}

// TextExtractor returns the plain text of a page range of a document.
type TextExtractor interface {
	PageText(ctx context.Context, path string, first, last int) (string, error)
}

// Extractor finds the DOI of a PDF, reading page 1 and falling back to page 2.
type Extractor struct {
	Text    TextExtractor
	Options Options
	Logger  *log.Logger
}

// NewExtractor creates an extractor over the given text source.
func NewExtractor(text TextExtractor, opts Options) *Extractor {
	return &Extractor{Text: text, Options: opts, Logger: log.Default()}
}

// Extract returns the DOI of the PDF at path.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	txt, err := e.Text.PageText(ctx, path, 1, 1)
	if err != nil {
		return "", fmt.Errorf("reading page 1 of %s: %w", path, err)
	}

	doi, err := Parse(txt, e.Options)
	if !errors.Is(err, ErrNotFound) {
		return doi, err
	}

	// The first page is sometimes a blank cover.
	txt, err = e.Text.PageText(ctx, path, 2, 2)
	if err != nil {
		e.logger().Debug("no second page", "pdf", path, "err", err)
		return "", fmt.Errorf("%w in %s", ErrNotFound, path)
	}
	doi, err = Parse(txt, e.Options)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("%w in %s", ErrNotFound, path)
	}
	return doi, err
}

func (e *Extractor) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}
