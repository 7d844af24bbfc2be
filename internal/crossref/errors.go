package crossref

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors returned by the Crossref client.
var (
	// ErrNotFound indicates Crossref has no record for the DOI or query.
	ErrNotFound = errors.New("not found in Crossref")

	// ErrNetwork indicates the request never got an HTTP response.
	ErrNetwork = errors.New("network error communicating with Crossref")
)

// APIError is a non-success HTTP response from Crossref.
type APIError struct {
	StatusCode int
	Message    string
	DOI        string
}

func (e *APIError) Error() string {
	if e.DOI != "" {
		return fmt.Sprintf("Crossref API error (status %d): %s (doi: %s)", e.StatusCode, e.Message, e.DOI)
	}
	return fmt.Sprintf("Crossref API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited reports whether Crossref rejected the request for exceeding
// its rate limit.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
