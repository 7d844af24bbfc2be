package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(flagBibtex, "", "")
	fs.String(flagFilesDir, "", "")
	fs.String(flagCacheFile, "", "")
	fs.String(flagExtractor, "", "")
	fs.String(flagLogLevel, "", "")
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveSettings_Defaults(t *testing.T) {
	s, err := resolveSettings(filepath.Join(t.TempDir(), "missing.yml"), newFlagSet())
	if err != nil {
		t.Fatalf("resolveSettings() error = %v", err)
	}
	if s.Bibtex != "myref.bib" || s.FilesDir != "files" || s.CacheFile != ".crossref-bibtex.json" {
		t.Errorf("paths = %q, %q, %q", s.Bibtex, s.FilesDir, s.CacheFile)
	}
	if s.Extractor != "pdftotext" || s.LogLevel != "info" || s.PDFReader != "system" {
		t.Errorf("extractor = %q, log level = %q, reader = %q", s.Extractor, s.LogLevel, s.PDFReader)
	}
}

func TestResolveSettings_Precedence(t *testing.T) {
	path := writeConfig(t, "bibtex: from-file.bib\nfilesdir: file-files\ncache_file: file-cache.json\nmailto: file@example.org\n")
	t.Setenv("MYREF_FILESDIR", "env-files")
	t.Setenv("MYREF_CACHE_FILE", "env-cache.json")

	fs := newFlagSet()
	if err := fs.Parse([]string{"--cache-file", "flag-cache.json"}); err != nil {
		t.Fatal(err)
	}

	s, err := resolveSettings(path, fs)
	if err != nil {
		t.Fatalf("resolveSettings() error = %v", err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"file over default", s.Bibtex, "from-file.bib"},
		{"env over file", s.FilesDir, "env-files"},
		{"flag over env", s.CacheFile, "flag-cache.json"},
		{"file only", s.Mailto, "file@example.org"},
		{"default only", s.Extractor, "pdftotext"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestResolveSettings_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config string
		args   []string
	}{
		{"bad extractor flag", "", []string{"--extractor", "ocr"}},
		{"bad log level in file", "log_level: loud\n", nil},
		{"bad reader in file", "pdf_reader: acrobat\n", nil},
		{"malformed file", "bibtex: [\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFlagSet()
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			_, err := resolveSettings(writeConfig(t, tt.config), fs)
			if !errors.Is(err, errConfig) {
				t.Errorf("resolveSettings() error = %v, want errConfig", err)
			}
		})
	}
}

func TestResolveSettings_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path := writeConfig(t, "bibtex: ~/papers/refs.bib\n")

	s, err := resolveSettings(path, newFlagSet())
	if err != nil {
		t.Fatalf("resolveSettings() error = %v", err)
	}
	if want := filepath.Join(home, "papers", "refs.bib"); s.Bibtex != want {
		t.Errorf("Bibtex = %q, want %q", s.Bibtex, want)
	}
}

func TestLoadSettings_UsesRootFlags(t *testing.T) {
	oldConfig, oldSettings := configFile, settings
	defer func() {
		configFile, settings = oldConfig, oldSettings
		_ = rootCmd.PersistentFlags().Set(flagBibtex, "")
	}()

	configFile = writeConfig(t, "bibtex: from-file.bib\n")
	if err := rootCmd.PersistentFlags().Set(flagBibtex, "from-flag.bib"); err != nil {
		t.Fatal(err)
	}

	if err := loadSettings(listCmd, nil); err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if settings.Bibtex != "from-flag.bib" {
		t.Errorf("Bibtex = %q, want from-flag.bib", settings.Bibtex)
	}
}
