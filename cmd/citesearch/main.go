// Package main provides the citesearch CLI entry point. The CLI is the
// host shell around the citation core: search front ends shell out to it
// for candidates and open actions.
package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/citesearch/citesearch/internal/bib"
	"github.com/citesearch/citesearch/internal/cache"
	"github.com/citesearch/citesearch/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath overrides the default settings file location
var configPath string

// collectionFlag overrides the configured collection filter
var collectionFlag string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citesearch",
	Short: "Citation candidates for fuzzy-search front ends",
	Long: `citesearch normalizes a BibTeX file or Zotero library into citation
items and projects them as search candidates. All commands output JSON
by default so editor plugins and pickers can consume them directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default ~/.config/citesearch/config.yml)")
	rootCmd.PersistentFlags().StringVar(&collectionFlag, "collection", "", "Restrict candidates to a collection")
	rootCmd.Version = Version
}

// settings assembles the request configuration: defaults, settings file,
// .env and environment overrides, then flags. Exits on a config error.
func settings() config.Settings {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	cfg = config.FromEnv(cfg)
	if collectionFlag != "" {
		cfg.Collection = collectionFlag
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// exitCode maps core errors onto the CLI exit code contract.
func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrNotConfigured), errors.Is(err, config.ErrSourceMissing):
		return ExitConfigError
	case errors.Is(err, bib.ErrUnknownField), errors.Is(err, cache.ErrCorrupt):
		return ExitDataError
	}
	return ExitError
}
