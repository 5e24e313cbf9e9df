package main

import (
	"github.com/spf13/cobra"

	"github.com/citesearch/citesearch/internal/bib"
)

func init() {
	rootCmd.AddCommand(fieldsCmd)
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the field names candidates can be requested for",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if humanOutput {
			for _, name := range bib.FieldNames {
				outputHuman("%s\n", name)
			}
			return nil
		}
		return outputJSON(bib.FieldNames)
	},
}
