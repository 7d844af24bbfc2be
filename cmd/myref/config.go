package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/config"
	"github.com/matsen/myref/internal/pdf"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set global configuration values",
	Long: `Get or set values in the global config file.

Usage:
  myref config                      # Show the config file
  myref config bibtex               # Get specific value
  myref config bibtex ~/refs.bib    # Set value

Keys:
  bibtex        Bibliography file
  filesdir      Root directory for renamed files
  cache_file    Crossref lookup cache
  extractor     Text extractor (pdftotext, native)
  pdf_reader    PDF reader preference (system, skim, preview, zathura, evince, okular)
  mailto        Contact address sent to Crossref
  crossref_url  Crossref API base URL
  log_level     Log level (debug, info, warn, error)`,
	Args: cobra.MaximumNArgs(2),
	// Skip settings resolution so a broken config file can still be repaired.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runConfig,
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Path   string `json:"path"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.Path()
	}
	if path == "" {
		return fmt.Errorf("%w: cannot locate config directory", errConfig)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	switch len(args) {
	case 0:
		if humanOutput {
			for _, k := range config.Keys {
				v, _ := cfg.Get(k)
				outputHuman("%-14s %s\n", k, v)
			}
			return nil
		}
		return outputJSON(cfg.Map())

	case 1:
		v, err := cfg.Get(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", errConfig, err)
		}
		if humanOutput {
			outputHuman("%s\n", v)
			return nil
		}
		return outputJSON(map[string]string{args[0]: v})
	}

	key, value := args[0], args[1]
	if key == config.KeyPDFReader {
		if err := pdf.ValidateReader(value); err != nil {
			return fmt.Errorf("%w: %v", errConfig, err)
		}
	}
	if err := cfg.Set(key, value); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Set %s = %s in %s\n", key, value, path)
		return nil
	}
	return outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value, Path: path})
}
