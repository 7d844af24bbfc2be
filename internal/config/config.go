// Package config handles the global myref configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/myref/config.yml.
type Config struct {
	Bibtex      string `yaml:"bibtex,omitempty"`       // Bibliography file
	FilesDir    string `yaml:"filesdir,omitempty"`     // Root for renamed files
	CacheFile   string `yaml:"cache_file,omitempty"`   // Crossref lookup cache
	Extractor   string `yaml:"extractor,omitempty"`    // pdftotext or native
	PDFReader   string `yaml:"pdf_reader,omitempty"`   // Reader preference: system, skim, zathura, etc.
	Mailto      string `yaml:"mailto,omitempty"`       // Contact address sent to Crossref
	CrossrefURL string `yaml:"crossref_url,omitempty"` // Crossref API base URL
	LogLevel    string `yaml:"log_level,omitempty"`
}

// Setting keys, shared by the config file, environment variables, and flags.
const (
	KeyBibtex      = "bibtex"
	KeyFilesDir    = "filesdir"
	KeyCacheFile   = "cache_file"
	KeyExtractor   = "extractor"
	KeyPDFReader   = "pdf_reader"
	KeyMailto      = "mailto"
	KeyCrossrefURL = "crossref_url"
	KeyLogLevel    = "log_level"
)

// Keys lists every setting key in display order.
var Keys = []string{
	KeyBibtex, KeyFilesDir, KeyCacheFile, KeyExtractor,
	KeyPDFReader, KeyMailto, KeyCrossrefURL, KeyLogLevel,
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "myref"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// ValidExtractors lists the supported text extractor values.
var ValidExtractors = []string{"pdftotext", "native"}

// ValidLogLevels lists the accepted log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		Bibtex:      "myref.bib",
		FilesDir:    "files",
		CacheFile:   ".crossref-bibtex.json",
		Extractor:   "pdftotext",
		PDFReader:   "system",
		CrossrefURL: "https://api.crossref.org",
		LogLevel:    "info",
	}
}

// Path returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/myref/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file at path. A missing file or empty path yields an
// empty config, not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// field maps a key to the struct field holding it.
func (c *Config) field(key string) (*string, error) {
	switch key {
	case KeyBibtex:
		return &c.Bibtex, nil
	case KeyFilesDir:
		return &c.FilesDir, nil
	case KeyCacheFile:
		return &c.CacheFile, nil
	case KeyExtractor:
		return &c.Extractor, nil
	case KeyPDFReader:
		return &c.PDFReader, nil
	case KeyMailto:
		return &c.Mailto, nil
	case KeyCrossrefURL:
		return &c.CrossrefURL, nil
	case KeyLogLevel:
		return &c.LogLevel, nil
	}
	return nil, fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(Keys, ", "))
}

// Get returns the value of a setting.
func (c *Config) Get(key string) (string, error) {
	f, err := c.field(key)
	if err != nil {
		return "", err
	}
	return *f, nil
}

// Set validates and assigns a setting.
func (c *Config) Set(key, value string) error {
	f, err := c.field(key)
	if err != nil {
		return err
	}
	if err := Validate(key, value); err != nil {
		return err
	}
	*f = value
	return nil
}

// Map returns the non-empty settings keyed by setting key.
func (c *Config) Map() map[string]string {
	m := make(map[string]string, len(Keys))
	for _, k := range Keys {
		if v, _ := c.Get(k); v != "" {
			m[k] = v
		}
	}
	return m
}

// Validate checks a single setting value. Empty values are always allowed.
func Validate(key, value string) error {
	if value == "" {
		return nil
	}
	switch key {
	case KeyExtractor:
		if !slices.Contains(ValidExtractors, value) {
			return fmt.Errorf("invalid extractor: %s (valid: %v)", value, ValidExtractors)
		}
	case KeyLogLevel:
		if !slices.Contains(ValidLogLevels, value) {
			return fmt.Errorf("invalid log_level: %s (valid: %v)", value, ValidLogLevels)
		}
	case KeyCrossrefURL:
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("invalid crossref_url: %s (must be http or https)", value)
		}
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
