// Package storage indexes a bibliography in SQLite for listing and full-text
// search. The database is derived data, rebuilt from the BibTeX file.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectRefFields contains the standard field list for SELECT queries.
const selectRefFields = `id, entry_type, doi, title, authors_json, year, journal, files_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection also keeps an in-memory database alive.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS refs (
			id TEXT NOT NULL,
			sort_key TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			doi TEXT,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			year INTEGER,
			journal TEXT,
			files_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_refs_key ON refs(sort_key);
		CREATE INDEX IF NOT EXISTS idx_refs_doi ON refs(doi) WHERE doi IS NOT NULL AND doi != '';

		-- Standalone full-text table, rows share the refs rowid
		CREATE VIRTUAL TABLE IF NOT EXISTS refs_fts USING fts5(
			id,
			title,
			authors_text,
			journal,
			year
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the database and loads refs.
func (d *DB) Rebuild(refs []Reference) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM refs"); err != nil {
		return 0, fmt.Errorf("clearing refs table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM refs_fts"); err != nil {
		return 0, fmt.Errorf("clearing refs_fts table: %w", err)
	}

	refsStmt, err := tx.Prepare(`
		INSERT INTO refs (id, sort_key, entry_type, doi, title, authors_json, year, journal, files_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing refs insert: %w", err)
	}
	defer refsStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO refs_fts (rowid, id, title, authors_text, journal, year)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, ref := range refs {
		authors := ref.Authors
		if authors == nil {
			authors = []string{}
		}
		authorsJSON, err := json.Marshal(authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %s: %w", ref.ID, err)
		}
		var filesJSON []byte
		if len(ref.Files) > 0 {
			filesJSON, err = json.Marshal(ref.Files)
			if err != nil {
				return 0, fmt.Errorf("marshaling files for %s: %w", ref.ID, err)
			}
		}

		res, err := refsStmt.Exec(
			ref.ID, strings.ToLower(ref.ID), ref.Type, nullableStringValue(ref.DOI), ref.Title,
			string(authorsJSON), nullableYear(ref.Year), nullableStringValue(ref.Journal),
			nullableString(filesJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting ref %s: %w", ref.ID, err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("inserting ref %s: %w", ref.ID, err)
		}

		year := ""
		if ref.Year > 0 {
			year = strconv.Itoa(ref.Year)
		}
		_, err = ftsStmt.Exec(rowid, ref.ID, ref.Title, strings.Join(ref.Authors, ", "), ref.Journal, year)
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", ref.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(refs), nil
}

// GetByID retrieves a reference by citation key, ignoring case. It returns
// nil if there is none.
func (d *DB) GetByID(id string) (*Reference, error) {
	row := d.db.QueryRow(`SELECT `+selectRefFields+` FROM refs WHERE sort_key = ? ORDER BY rowid LIMIT 1`, strings.ToLower(id))
	return scanReference(row)
}

// Search performs a full-text search and returns matching references.
func (d *DB) Search(query string, limit int) ([]Reference, error) {
	return d.SearchWithFilters(SearchFilters{Keyword: query}, limit)
}

// SearchFilters contains optional filters for SearchWithFilters.
type SearchFilters struct {
	Keyword  string   // General keyword search across all fields
	Authors  []string // Author names (AND logic, prefix matching)
	Title    string   // Search in title only (FTS)
	YearFrom int      // Minimum year (0 = no minimum)
	YearTo   int      // Maximum year (0 = no maximum)
	DOI      string   // Exact DOI match, case-insensitive
}

// SearchWithFilters returns references matching all specified criteria, in
// key order.
func (d *DB) SearchWithFilters(filters SearchFilters, limit int) ([]Reference, error) {
	var ftsTerms []string
	var args []interface{}

	if q := prepareFTSQuery(filters.Keyword); q != "" {
		ftsTerms = append(ftsTerms, q)
	}
	if q := prepareFTSQuery(filters.Title); q != "" {
		ftsTerms = append(ftsTerms, "title:"+q)
	}
	for _, author := range filters.Authors {
		if q := prepareAuthorQuery(author); q != "" {
			ftsTerms = append(ftsTerms, "authors_text:"+q)
		}
	}

	query := `SELECT ` + selectRefFields + ` FROM refs WHERE 1=1`
	if len(ftsTerms) > 0 {
		query += ` AND rowid IN (SELECT rowid FROM refs_fts WHERE refs_fts MATCH ?)`
		args = append(args, strings.Join(ftsTerms, " AND "))
	}
	if filters.YearFrom > 0 {
		query += " AND year >= ?"
		args = append(args, filters.YearFrom)
	}
	if filters.YearTo > 0 {
		query += " AND year <= ?"
		args = append(args, filters.YearTo)
	}
	if filters.DOI != "" {
		query += " AND doi = ?"
		args = append(args, strings.ToLower(filters.DOI))
	}

	query += " ORDER BY sort_key, rowid"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// prepareAuthorQuery turns a name into an OR of prefix terms, so "Perr"
// matches "Perrette".
func prepareAuthorQuery(author string) string {
	parts := strings.Fields(author)
	if len(parts) == 0 {
		return ""
	}
	terms := make([]string, len(parts))
	for i, part := range parts {
		terms[i] = "\"" + strings.ReplaceAll(part, "\"", "\"\"") + "\"*"
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// ListAll returns all references in key order, optionally limited.
func (d *DB) ListAll(limit int) ([]Reference, error) {
	return d.SearchWithFilters(SearchFilters{}, limit)
}

// Count returns the total number of references.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM refs").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReference(s scanner) (*Reference, error) {
	var ref Reference
	var doi, journal, filesJSON sql.NullString
	var authorsJSON string
	var year sql.NullInt64

	err := s.Scan(&ref.ID, &ref.Type, &doi, &ref.Title, &authorsJSON, &year, &journal, &filesJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	ref.DOI = doi.String
	ref.Journal = journal.String
	if year.Valid {
		ref.Year = int(year.Int64)
	}

	if err := json.Unmarshal([]byte(authorsJSON), &ref.Authors); err != nil {
		return nil, fmt.Errorf("parsing authors JSON for %s: %w", ref.ID, err)
	}
	if len(ref.Authors) == 0 {
		ref.Authors = nil
	}
	if filesJSON.Valid && filesJSON.String != "" {
		if err := json.Unmarshal([]byte(filesJSON.String), &ref.Files); err != nil {
			return nil, fmt.Errorf("parsing files JSON for %s: %w", ref.ID, err)
		}
	}

	return &ref, nil
}

func scanReferences(rows *sql.Rows) ([]Reference, error) {
	var refs []Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			refs = append(refs, *ref)
		}
	}
	return refs, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableYear(y int) sql.NullInt64 {
	if y <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(y), Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~./") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
