package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/kbguard/internal/core/abrogation"
)

var abrogationsCmd = &cobra.Command{
	Use:   "abrogations [message]",
	Short: "Check a message for citations of repealed texts (reads stdin without an argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAbrogations,
}

func init() {
	abrogationsCmd.Flags().Float64("threshold", 0, "registry similarity threshold (default from config)")
	abrogationsCmd.Flags().Float64("min-confidence", 0, "reference confidence floor (default from config)")
	abrogationsCmd.Flags().BoolP("json", "j", false, "print JSON")
}

func runAbrogations(cmd *cobra.Command, args []string) error {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	minConf, _ := cmd.Flags().GetFloat64("min-confidence")
	asJSON, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	if threshold < 0 || threshold > 1 || minConf < 0 || minConf > 1 {
		return fmt.Errorf("--threshold and --min-confidence must be within [0, 1]")
	}
	message, err := inputText(cmd, args)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	det, err := a.abrogationDetector(ctx)
	if err != nil {
		return err
	}
	alerts, err := det.DetectAbrogations(ctx, message, abrogation.Options{Threshold: threshold, MinConfidence: minConf})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, alerts)
	}
	printAlerts(out, alerts)
	return nil
}
