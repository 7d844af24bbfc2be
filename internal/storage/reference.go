package storage

import (
	"strconv"
	"strings"

	"github.com/matsen/myref/internal/library"
)

// Reference is the queryable projection of a bibliography record.
type Reference struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	DOI     string         `json:"doi,omitempty"`
	Title   string         `json:"title"`
	Authors []string       `json:"authors"`
	Year    int            `json:"year,omitempty"`
	Journal string         `json:"journal,omitempty"`
	Files   []library.File `json:"files,omitempty"`
}

// FromRecord projects a library record. BibTeX braces are stripped from the
// title and journal; the author list is split on " and ".
func FromRecord(r *library.Record) Reference {
	ref := Reference{
		ID:      r.ID(),
		Type:    r.Type(),
		DOI:     strings.ToLower(r.Field(library.FieldDOI)),
		Title:   stripBraces(r.Field("title")),
		Authors: splitAuthors(r.Field("author")),
		Journal: stripBraces(r.Field("journal")),
		Files:   library.GetFiles(r),
	}
	if y, err := strconv.Atoi(r.Field(library.FieldYear)); err == nil {
		ref.Year = y
	}
	return ref
}

// FromLibrary projects every record of lib in key order.
func FromLibrary(lib *library.Library) []Reference {
	records := lib.Records()
	refs := make([]Reference, len(records))
	for i, r := range records {
		refs[i] = FromRecord(r)
	}
	return refs
}

func splitAuthors(field string) []string {
	field = stripBraces(field)
	if field == "" {
		return nil
	}
	var authors []string
	for _, a := range strings.Split(field, " and ") {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

func stripBraces(s string) string {
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
