// Package export writes selected library entries to other BibTeX files, such
// as the bibliography of a single manuscript.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/matsen/myref/internal/library"
)

// PrivateFields are dropped from exported entries; they only make sense on
// the machine holding the library.
var PrivateFields = []string{library.FieldFile}

// Select returns the records of lib with the given keys, in the order given,
// and the keys that were not found.
func Select(lib *library.Library, keys []string) ([]*library.Record, []string) {
	var found []*library.Record
	var missing []string
	for _, k := range keys {
		if r, ok := lib.Get(k); ok {
			found = append(found, r)
		} else {
			missing = append(missing, k)
		}
	}
	return found, missing
}

// ToBibTeX renders records without their private fields.
func ToBibTeX(records []*library.Record) string {
	entries := make([]string, 0, len(records))
	for _, r := range records {
		entries = append(entries, strings.TrimSpace(r.Without(PrivateFields...).String()))
	}
	if len(entries) == 0 {
		return ""
	}
	return strings.Join(entries, "\n\n") + "\n"
}

// Index records which entries a BibTeX file already holds.
type Index struct {
	// keys holds normalized citation keys
	keys map[string]bool
	// dois maps normalized DOIs to citation keys
	dois map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		keys: make(map[string]bool),
		dois: make(map[string]string),
	}
}

// IndexFile builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist or is empty.
func IndexFile(path string) (*Index, error) {
	idx := NewIndex()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}

	records, err := library.ParseRecords(string(data))
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", path, err)
	}
	for _, r := range records {
		idx.Add(r)
	}
	return idx, nil
}

// Add registers r in the index.
func (idx *Index) Add(r *library.Record) {
	idx.keys[r.Key()] = true
	if d := NormalizeDOI(r.Field(library.FieldDOI)); d != "" {
		idx.dois[d] = r.ID()
	}
}

// Has reports whether r is already indexed. The DOI is the primary match;
// the citation key is the fallback.
func (idx *Index) Has(r *library.Record) bool {
	if d := NormalizeDOI(r.Field(library.FieldDOI)); d != "" {
		if _, exists := idx.dois[d]; exists {
			return true
		}
	}
	return idx.keys[r.Key()]
}

// Len returns the number of indexed keys.
func (idx *Index) Len() int {
	return len(idx.keys)
}

// NormalizeDOI normalizes a DOI for comparison.
// Removes common prefixes like "https://doi.org/" and lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi.org/", "DOI:", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.ToLower(strings.TrimSpace(doi))
}

// AppendResult summarizes AppendToFile.
type AppendResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

// AppendToFile appends the records not already present in the file at path.
// Records are compared by DOI, then by key, against the file and against each
// other.
func AppendToFile(path string, records []*library.Record) (*AppendResult, error) {
	idx, err := IndexFile(path)
	if err != nil {
		return nil, err
	}

	res := &AppendResult{Added: []string{}, Skipped: []string{}}
	var fresh []*library.Record
	for _, r := range records {
		if idx.Has(r) {
			res.Skipped = append(res.Skipped, r.ID())
			continue
		}
		idx.Add(r)
		fresh = append(fresh, r)
		res.Added = append(res.Added, r.ID())
	}
	if len(fresh) == 0 {
		return res, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	// Ensure we start on a new line
	if _, err := file.WriteString("\n" + ToBibTeX(fresh)); err != nil {
		file.Close()
		return nil, err
	}
	return res, file.Close()
}
