package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/kbguard/internal/core/legalref"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract legal references from text (reads stdin without an argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().Float64("min-confidence", 0, "drop references below this confidence")
	extractCmd.Flags().BoolP("json", "j", false, "print JSON")
}

func runExtract(cmd *cobra.Command, args []string) error {
	minConf, _ := cmd.Flags().GetFloat64("min-confidence")
	asJSON, _ := cmd.Flags().GetBool("json")

	text, err := inputText(cmd, args)
	if err != nil {
		return err
	}
	refs := legalref.Extract(text)
	if minConf > 0 {
		refs = legalref.FilterByConfidence(refs, minConf)
	}
	disclosed := legalref.DetectSelfDisclosed(text)

	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, map[string]any{"references": refs, "self_disclosed": disclosed})
	}
	printReferences(out, refs, disclosed)
	return nil
}

func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
