package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/citesearch/citesearch/internal/pdf"
	"github.com/citesearch/citesearch/internal/source"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check attachments and suggest missing DOIs",
	Long: `Check every item's attachment and report problems:

  - attachments whose file no longer exists
  - items with a PDF attachment but no DOI, with the DOI found inside
    the PDF (if any) as a suggestion`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// DoctorFinding is one per-item diagnostic.
type DoctorFinding struct {
	Key          string `json:"key"`
	Problem      string `json:"problem"`
	File         string `json:"file,omitempty"`
	SuggestedDOI string `json:"suggested_doi,omitempty"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg := settings()

	// Diagnose the real source, not a possibly stale cache.
	result, err := source.Load(cfg, source.Request{BypassCache: true})
	if err != nil {
		exitWithError(exitCode(err), "%v", err)
	}

	var findings []DoctorFinding
	for _, item := range result.Items {
		if item.File == "" {
			continue
		}
		if _, err := os.Stat(item.File); err != nil {
			findings = append(findings, DoctorFinding{
				Key:     item.Key,
				Problem: "attachment missing",
				File:    item.File,
			})
			continue
		}
		if item.DOI == "" && strings.HasSuffix(strings.ToLower(item.File), ".pdf") {
			finding := DoctorFinding{Key: item.Key, Problem: "no doi", File: item.File}
			if doi, err := pdf.ExtractDOI(item.File); err == nil && doi != "" {
				finding.SuggestedDOI = doi
			}
			findings = append(findings, finding)
		}
	}

	if humanOutput {
		if len(findings) == 0 {
			outputHuman("No problems found in %d items\n", len(result.Items))
			return nil
		}
		for _, f := range findings {
			if f.SuggestedDOI != "" {
				outputHuman("%s: %s (%s) suggest doi %s\n", f.Key, f.Problem, f.File, f.SuggestedDOI)
			} else {
				outputHuman("%s: %s (%s)\n", f.Key, f.Problem, f.File)
			}
		}
		return nil
	}
	return outputJSON(findings)
}
