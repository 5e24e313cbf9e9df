package main

import (
	"github.com/spf13/cobra"

	"github.com/citesearch/citesearch/internal/candidate"
	"github.com/citesearch/citesearch/internal/source"
)

var (
	candidatesKeys    []string
	candidatesNoCache bool
)

func init() {
	candidatesCmd.Flags().StringSliceVar(&candidatesKeys, "keys", nil, "Restrict the load to specific citation keys (disables caching)")
	candidatesCmd.Flags().BoolVar(&candidatesNoCache, "no-cache", false, "Force a reparse of the source")
	rootCmd.AddCommand(candidatesCmd)
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates <field>",
	Short: "Project citation items as search candidates for a field",
	Long: `Project citation items as search candidates for a field.

Each candidate carries a display label, the text to insert into the
buffer, a path for open actions, and a preview command.

The field duplicate_keys is a diagnostic view: it lists every entry
whose citation key collides with an earlier one.

Examples:
  citesearch candidates key
  citesearch candidates url --collection Thesis
  citesearch candidates duplicate_keys`,
	Args: cobra.ExactArgs(1),
	RunE: runCandidates,
}

func runCandidates(cmd *cobra.Command, args []string) error {
	cfg := settings()
	field := args[0]

	req := source.Request{SearchKeys: candidatesKeys, BypassCache: candidatesNoCache}
	if field == "duplicate_keys" {
		// The diagnostic needs the complete, unfiltered item set.
		req = source.Request{BypassCache: true}
		cfg.Collection = ""
	}

	result, err := source.Load(cfg, req)
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}
	if result.CacheWarning != "" {
		warn("caching disabled for this run: %s", result.CacheWarning)
	}

	items := result.Items
	if field == "duplicate_keys" {
		items = candidate.DuplicateKeys(items)
		field = "key"
	}

	candidates, err := candidate.Project(items, cfg, field)
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}

	if humanOutput {
		for _, c := range candidates {
			outputHuman("%s\n", c.Label)
		}
		return nil
	}
	return outputJSON(candidates)
}
