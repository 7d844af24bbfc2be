package main

import (
	"errors"

	"github.com/matsen/myref/internal/crossref"
	"github.com/matsen/myref/internal/doi"
	"github.com/matsen/myref/internal/library"
)

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (invalid settings, unreadable config)
	ExitDataError    = 3 // Data error (malformed BibTeX, implausible DOI)
	ExitNotFound     = 4 // No DOI in the PDF, no Crossref record, unknown key
	ExitNetworkError = 5 // Crossref unreachable or returned an error
)

// errConfig marks configuration problems.
var errConfig = errors.New("configuration error")

// errUnknownKey is returned when a citation key is not in the library.
var errUnknownKey = errors.New("no such entry")

// exitCode classifies err into one of the exit codes above.
func exitCode(err error) int {
	var apiErr *crossref.APIError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errConfig):
		return ExitConfigError
	case errors.Is(err, doi.ErrNotFound), crossref.IsNotFound(err), errors.Is(err, errUnknownKey):
		return ExitNotFound
	case errors.Is(err, doi.ErrInvalid), errors.Is(err, library.ErrParse):
		return ExitDataError
	case errors.Is(err, crossref.ErrNetwork), errors.As(err, &apiErr):
		return ExitNetworkError
	default:
		return ExitError
	}
}
