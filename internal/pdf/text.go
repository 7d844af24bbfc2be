// Package pdf extracts page text from PDF files and opens them in a reader.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Supported extractor names.
const (
	ExtractorPdftotext = "pdftotext"
	ExtractorNative    = "native"
)

// ErrNoText is returned when no page in the requested range yields text.
var ErrNoText = errors.New("no text extracted")

// TextExtractor returns the plain text of pages first..last (1-based, inclusive).
type TextExtractor interface {
	PageText(ctx context.Context, path string, first, last int) (string, error)
}

// NewTextExtractor returns the extractor registered under name.
// An empty name selects pdftotext.
func NewTextExtractor(name string) (TextExtractor, error) {
	switch name {
	case "", ExtractorPdftotext:
		return &Pdftotext{}, nil
	case ExtractorNative:
		return Native{}, nil
	default:
		return nil, fmt.Errorf("unknown extractor: %s (valid: %s, %s)", name, ExtractorPdftotext, ExtractorNative)
	}
}

// Pdftotext shells out to poppler's pdftotext.
type Pdftotext struct {
	// Command overrides the executable, "pdftotext" if empty.
	Command string
}

// PageText runs pdftotext on the page range and returns its standard output.
func (p *Pdftotext) PageText(ctx context.Context, path string, first, last int) (string, error) {
	if err := checkFile(path); err != nil {
		return "", err
	}

	command := p.Command
	if command == "" {
		command = ExtractorPdftotext
	}

	args := []string{"-f", strconv.Itoa(first), "-l", strconv.Itoa(last), path, "-"}
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s failed on %s: %w: %s", command, path, err, msg)
		}
		return "", fmt.Errorf("%s failed on %s: %w", command, path, err)
	}

	return stdout.String(), nil
}

// Native reads page text with the pure-Go ledongthuc/pdf reader.
type Native struct{}

// PageText returns the concatenated text of the page range.
func (Native) PageText(ctx context.Context, path string, first, last int) (string, error) {
	if err := checkFile(path); err != nil {
		return "", err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if first < 1 {
		first = 1
	}
	if last <= 0 || last > r.NumPage() {
		last = r.NumPage()
	}
	if first > last {
		return "", fmt.Errorf("%s has %d pages, wanted page %d", path, r.NumPage(), first)
	}

	var builder strings.Builder
	for i := first; i <= last; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	if builder.Len() == 0 {
		return "", fmt.Errorf("%w: %s pages %d-%d", ErrNoText, path, first, last)
	}
	return builder.String(), nil
}

func checkFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF not found: %w", err)
		}
		return fmt.Errorf("checking PDF: %w", err)
	}
	return nil
}
