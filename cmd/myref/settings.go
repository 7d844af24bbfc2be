package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matsen/myref/internal/config"
	"github.com/matsen/myref/internal/crossref"
	"github.com/matsen/myref/internal/pdf"
)

// Persistent flag names, mapped onto config keys.
const (
	flagBibtex    = "bibtex"
	flagFilesDir  = "filesdir"
	flagCacheFile = "cache-file"
	flagExtractor = "extractor"
	flagLogLevel  = "log-level"
)

var flagKeys = map[string]string{
	flagBibtex:    config.KeyBibtex,
	flagFilesDir:  config.KeyFilesDir,
	flagCacheFile: config.KeyCacheFile,
	flagExtractor: config.KeyExtractor,
	flagLogLevel:  config.KeyLogLevel,
}

// envPrefix is prepended to setting keys to form environment variable names.
const envPrefix = "MYREF"

var (
	configFile string
	settings   *config.Config
	logger     = log.Default()
)

// loadSettings resolves settings for the command about to run.
func loadSettings(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	path := configFile
	if path == "" {
		path = config.Path()
	}

	s, err := resolveSettings(path, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	settings = s

	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: invalid log level %q", errConfig, s.LogLevel)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{Level: level, Prefix: "myref"})
	log.SetDefault(logger)
	return nil
}

// resolveSettings merges, from lowest to highest precedence, the built-in
// defaults, the config file at path, MYREF_* environment variables, and flags
// set on the command line.
func resolveSettings(path string, flags *pflag.FlagSet) (*config.Config, error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	v := viper.New()
	for k, val := range config.Defaults().Map() {
		v.SetDefault(k, val)
	}
	if err := v.MergeConfigMap(toAny(file.Map())); err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	s := &config.Config{}
	for _, key := range config.Keys {
		if err := s.Set(key, v.GetString(key)); err != nil {
			return nil, fmt.Errorf("%w: %v", errConfig, err)
		}
	}
	if err := pdf.ValidateReader(s.PDFReader); err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	s.Bibtex = config.ExpandPath(s.Bibtex)
	s.FilesDir = config.ExpandPath(s.FilesDir)
	s.CacheFile = config.ExpandPath(s.CacheFile)
	return s, nil
}

func toAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// newCrossrefClient builds a client from the current settings.
func newCrossrefClient() *crossref.Client {
	opts := []crossref.ClientOption{crossref.WithBaseURL(settings.CrossrefURL)}
	if settings.Mailto != "" {
		opts = append(opts, crossref.WithMailto(settings.Mailto))
	}
	return crossref.NewClient(opts...)
}
