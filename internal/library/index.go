package library

import (
	"slices"
	"sort"
)

// Index is an ordered container of records, sorted by normalized key.
// Keys are cached alongside the records so that lookups are a binary search.
type Index struct {
	keys    []string
	records []*Record
}

// NewIndex builds an index from records in any order. The sort is stable, so
// records sharing a key keep their relative order.
func NewIndex(records []*Record) *Index {
	sorted := slices.Clone(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})

	keys := make([]string, len(sorted))
	for i, r := range sorted {
		keys[i] = r.Key()
	}
	return &Index{keys: keys, records: sorted}
}

// Len returns the number of records.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Search returns the first position whose key is >= key, and whether the
// record at that position has exactly that key.
func (ix *Index) Search(key string) (int, bool) {
	return slices.BinarySearch(ix.keys, key)
}

// At returns the record at position i.
func (ix *Index) At(i int) *Record {
	return ix.records[i]
}

// InsertAt inserts r at position i. The caller is responsible for choosing a
// position that keeps the index sorted, normally the result of Search.
func (ix *Index) InsertAt(i int, r *Record) {
	ix.keys = slices.Insert(ix.keys, i, r.Key())
	ix.records = slices.Insert(ix.records, i, r)
}

// Set replaces the record at position i with one of the same key.
func (ix *Index) Set(i int, r *Record) {
	ix.keys[i] = r.Key()
	ix.records[i] = r
}

// Records returns the records in key order.
func (ix *Index) Records() []*Record {
	return slices.Clone(ix.records)
}

// Keys returns the normalized keys in order.
func (ix *Index) Keys() []string {
	return slices.Clone(ix.keys)
}
