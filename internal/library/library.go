package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/nickng/bibtex"
)

// Library is a bibliography file loaded in memory.
type Library struct {
	path     string
	filesDir string
	index    *Index
	logger   *log.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger used for insert and rename messages.
func WithLogger(l *log.Logger) Option {
	return func(lib *Library) {
		lib.logger = l
	}
}

// New creates an empty library that will be saved to path.
func New(path, filesDir string, opts ...Option) *Library {
	lib := &Library{
		path:     path,
		filesDir: filesDir,
		index:    NewIndex(nil),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// Open loads the bibliography at path, or returns an empty library if the
// file does not exist yet.
func Open(path, filesDir string, opts ...Option) (*Library, error) {
	lib := New(path, filesDir, opts...)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			lib.logger.Debug("new bibliography", "path", path)
			return lib, nil
		}
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}

	records, err := ParseRecords(string(data))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	lib.index = NewIndex(records)

	keys := lib.index.Keys()
	for i := 1; i < len(keys); i++ {
		if keys[i] == keys[i-1] {
			lib.logger.Warn("duplicate key in bibliography", "key", keys[i], "path", path)
		}
	}

	return lib, nil
}

// Path returns the bibliography file path.
func (lib *Library) Path() string {
	return lib.path
}

// FilesDir returns the root directory for renamed files.
func (lib *Library) FilesDir() string {
	return lib.filesDir
}

// Len returns the number of records.
func (lib *Library) Len() int {
	return lib.index.Len()
}

// Records returns all records in key order.
func (lib *Library) Records() []*Record {
	return lib.index.Records()
}

// Get returns the record with the given citation key (case-insensitive).
func (lib *Library) Get(id string) (*Record, bool) {
	i, found := lib.index.Search(Key(id))
	if !found {
		return nil, false
	}
	return lib.index.At(i), true
}

// Insert adds r at its sorted position. If a record with the same key exists,
// it is kept and returned unless replace is set, in which case r takes its
// place. The boolean reports whether the returned record is r.
func (lib *Library) Insert(r *Record, replace bool) (*Record, bool) {
	key := r.Key()
	i, found := lib.index.Search(key)

	if found {
		if !replace {
			lib.logger.Info("entry already present", "key", key)
			return lib.index.At(i), false
		}
		lib.logger.Info("entry already present => replace", "key", key)
		lib.index.Set(i, r)
		return r, true
	}

	lib.logger.Info("new entry", "key", key)
	lib.index.InsertAt(i, r)
	return r, true
}

// String renders the whole collection as BibTeX.
func (lib *Library) String() string {
	bib := bibtex.NewBibTex()
	for _, r := range lib.index.records {
		bib.AddEntry(r.entry)
	}
	return bib.PrettyString()
}

// Save overwrites the bibliography file with the whole collection. The file is
// truncated and rewritten in place; an interrupted write loses it.
func (lib *Library) Save() error {
	if dir := filepath.Dir(lib.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating bibliography directory: %w", err)
		}
	}
	if err := os.WriteFile(lib.path, []byte(lib.String()), 0644); err != nil {
		return fmt.Errorf("writing bibliography: %w", err)
	}
	lib.logger.Debug("saved bibliography", "path", lib.path, "entries", lib.Len())
	return nil
}
