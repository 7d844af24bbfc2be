// Package library keeps a BibTeX bibliography sorted by citation key and
// tracks the files that belong to each entry.
package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nickng/bibtex"
)

// ErrParse indicates malformed BibTeX input.
var ErrParse = errors.New("malformed bibtex")

// Field names used by the library.
const (
	FieldFile = "file"
	FieldYear = "year"
	FieldDOI  = "doi"
)

// Record is one bibliography entry.
type Record struct {
	entry *bibtex.BibEntry
}

// NewRecord creates an empty record of the given entry type and citation key.
func NewRecord(entryType, id string) *Record {
	return &Record{entry: bibtex.NewBibEntry(entryType, id)}
}

// ID returns the citation key as written.
func (r *Record) ID() string {
	return r.entry.CiteName
}

// Key returns the normalized identifier used for sorting and deduplication.
func (r *Record) Key() string {
	return Key(r.ID())
}

// Key normalizes a citation key.
func Key(id string) string {
	return strings.ToLower(id)
}

// Type returns the entry type, e.g. "article".
func (r *Record) Type() string {
	return r.entry.Type
}

// Field returns the value of a field, matching the name case-insensitively.
// Missing fields return "".
func (r *Record) Field(name string) string {
	if v, ok := r.lookup(name); ok {
		return strings.TrimSpace(v.String())
	}
	return ""
}

// HasField reports whether the field is set.
func (r *Record) HasField(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// SetField sets a field, replacing any existing spelling of the same name.
func (r *Record) SetField(name, value string) {
	for k := range r.entry.Fields {
		if k != name && strings.EqualFold(k, name) {
			delete(r.entry.Fields, k)
		}
	}
	r.entry.AddField(name, bibtex.NewBibConst(value))
}

// Fields returns the field names present on the record.
func (r *Record) Fields() []string {
	names := make([]string, 0, len(r.entry.Fields))
	for k := range r.entry.Fields {
		names = append(names, k)
	}
	return names
}

// Without returns a copy of r lacking the named fields.
func (r *Record) Without(names ...string) *Record {
	c := NewRecord(r.Type(), r.ID())
	for k, v := range r.entry.Fields {
		drop := false
		for _, n := range names {
			if strings.EqualFold(k, n) {
				drop = true
				break
			}
		}
		if !drop {
			c.entry.AddField(k, v)
		}
	}
	return c
}

// String renders the record as BibTeX.
func (r *Record) String() string {
	bib := bibtex.NewBibTex()
	bib.AddEntry(r.entry)
	return bib.PrettyString()
}

func (r *Record) lookup(name string) (bibtex.BibString, bool) {
	if v, ok := r.entry.Fields[name]; ok && v != nil {
		return v, true
	}
	for k, v := range r.entry.Fields {
		if strings.EqualFold(k, name) && v != nil {
			return v, true
		}
	}
	return nil, false
}

// ParseRecords parses BibTeX text into records, in file order.
func ParseRecords(text string) ([]*Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	bib, err := bibtex.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	records := make([]*Record, 0, len(bib.Entries))
	for _, e := range bib.Entries {
		records = append(records, &Record{entry: e})
	}
	return records, nil
}
