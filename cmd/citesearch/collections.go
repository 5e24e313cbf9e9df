package main

import (
	"github.com/spf13/cobra"

	"github.com/citesearch/citesearch/internal/candidate"
	"github.com/citesearch/citesearch/internal/source"
)

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List the collections items belong to",
	Long: `List the distinct collection names across the library, as candidates
whose command sets that collection as the active filter. BibTeX sources
have no collections, so this is mainly useful in zotero mode.`,
	Args: cobra.NoArgs,
	RunE: runCollections,
}

func runCollections(cmd *cobra.Command, args []string) error {
	cfg := settings()
	cfg.Collection = "" // the listing always covers the whole library

	result, err := source.Load(cfg, source.Request{})
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}
	if result.CacheWarning != "" {
		warn("caching disabled for this run: %s", result.CacheWarning)
	}

	candidates := candidate.Collections(result.Items)
	if humanOutput {
		for _, c := range candidates {
			outputHuman("%s\n", c.Label)
		}
		return nil
	}
	return outputJSON(candidates)
}
