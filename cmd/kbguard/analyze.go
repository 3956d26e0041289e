package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <document-id>",
	Short: "Run the duplicate and contradiction pipeline for one document",
	Long: `Analyze screens the document against the vector index and writes one
relation per candidate. Candidates between the minimum similarity and the
duplicate threshold are adjudicated by the LLM chain.

With --quick only the similarity screen runs at the duplicate threshold:
no LLM call and nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("quick", false, "similarity screen only, no LLM and no writes")
	analyzeCmd.Flags().BoolP("json", "j", false, "print JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	quick, _ := cmd.Flags().GetBool("quick")
	asJSON, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	det, err := a.duplicateDetector(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if quick {
		dups, err := det.QuickDuplicates(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, dups)
		}
		printCandidates(out, dups)
		return nil
	}

	report, err := det.DetectDuplicatesAndContradictions(ctx, args[0])
	if err != nil {
		if report != nil {
			printReport(out, report)
		}
		return fmt.Errorf("analysis of %s interrupted: %w", args[0], err)
	}
	if asJSON {
		return printJSON(out, report)
	}
	printReport(out, report)
	return nil
}
