package library

import (
	"path/filepath"
	"strings"
)

// DefaultFileType is assumed for file tokens that carry no type.
const DefaultFileType = "pdf"

// File is one file associated with a record.
type File struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// String formats the file as a "path:type" token.
func (f File) String() string {
	if f.Type == "" {
		return f.Path
	}
	return f.Path + ":" + f.Type
}

// NewFile tags path with the type derived from its extension.
func NewFile(path string) File {
	return File{Path: path, Type: strings.TrimPrefix(filepath.Ext(path), ".")}
}

// ParseFiles parses a BibTeX file field: "path:type" tokens separated by ";".
// The type is split off at the last colon; a token without one is a PDF.
func ParseFiles(field string) []File {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}

	var files []File
	for _, tok := range strings.Split(field, ";") {
		tok = strings.TrimSpace(tok)
		// Mendeley writes ":path:type".
		tok = strings.TrimPrefix(tok, ":")
		if tok == "" {
			continue
		}

		i := strings.LastIndex(tok, ":")
		if i < 0 {
			files = append(files, File{Path: tok, Type: DefaultFileType})
			continue
		}
		files = append(files, File{Path: tok[:i], Type: tok[i+1:]})
	}
	return files
}

// FormatFiles is the inverse of ParseFiles.
func FormatFiles(files []File) string {
	tokens := make([]string, len(files))
	for i, f := range files {
		tokens[i] = f.String()
	}
	return strings.Join(tokens, ";")
}

// GetFiles returns the files associated with r.
func GetFiles(r *Record) []File {
	return ParseFiles(r.Field(FieldFile))
}

// SetFiles associates paths with r. With overwrite, the association list
// becomes paths; otherwise paths are put in front of the existing files.
func SetFiles(r *Record, paths []string, overwrite bool) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		files = append(files, NewFile(p))
	}
	if !overwrite {
		files = append(files, GetFiles(r)...)
	}
	r.SetField(FieldFile, FormatFiles(files))
}
