package main

import (
	"fmt"

	"github.com/matsen/myref/internal/library"
	"github.com/matsen/myref/internal/storage"
)

// openLibrary loads the configured bibliography.
func openLibrary() (*library.Library, error) {
	return library.Open(settings.Bibtex, settings.FilesDir, library.WithLogger(logger))
}

// openIndex loads the bibliography into an in-memory query database.
func openIndex() (*storage.DB, error) {
	lib, err := openLibrary()
	if err != nil {
		return nil, err
	}

	db, err := storage.OpenDB(storage.MemoryPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Rebuild(storage.FromLibrary(lib)); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexing %s: %w", lib.Path(), err)
	}
	return db, nil
}
