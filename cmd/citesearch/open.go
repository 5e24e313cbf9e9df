package main

import (
	"github.com/spf13/cobra"

	"github.com/citesearch/citesearch/internal/bib"
	"github.com/citesearch/citesearch/internal/pdf"
	"github.com/citesearch/citesearch/internal/source"
)

var openURL bool

func init() {
	openCmd.Flags().BoolVar(&openURL, "url", false, "Open the item's URL instead of its PDF attachment")
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <key>",
	Short: "Open an item's PDF attachment or URL",
	Long: `Open an item's PDF attachment in the configured viewer, or its URL in
the browser.

Examples:
  citesearch open Smith2020-ab
  citesearch open Smith2020-ab --url`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	cfg := settings()
	key := args[0]

	result, err := source.Load(cfg, source.Request{})
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}

	var item *bib.Item
	for i := range result.Items {
		if result.Items[i].Key == key {
			item = &result.Items[i]
			break
		}
	}
	if item == nil {
		exitWithError(ExitError, "item not found: %s", key)
	}

	target := item.File
	if openURL || target == "" {
		target = item.URL
	}
	if target == "" {
		exitWithError(ExitError, "item %s has no attachment or url", key)
	}

	if err := pdf.NewOpener(cfg.PDFReader).Open(target); err != nil {
		exitWithError(ExitError, "opening %s: %v", target, err)
	}

	if humanOutput {
		outputHuman("Opening: %s\n", target)
		return nil
	}
	return outputJSON(StatusResponse{Status: "opened", Path: target})
}
