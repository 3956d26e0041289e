package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/kbguard/internal/llm"
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Summarize LLM provider usage from the call log",
	RunE:  runCalls,
}

func init() {
	callsCmd.Flags().Duration("since", 24*time.Hour, "look-back window")
}

func runCalls(cmd *cobra.Command, args []string) error {
	since, _ := cmd.Flags().GetDuration("since")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.LLM.CallLog.Path == "" {
		return errors.New("no call log configured ([llm.call_log].path)")
	}
	cl, err := llm.OpenCallLog(cfg.LLM.CallLog.Path)
	if err != nil {
		return err
	}
	defer cl.Close()

	stats, err := cl.Stats(cmd.Context(), time.Now().Add(-since))
	if err != nil {
		return err
	}
	printCallStats(cmd.OutOrStdout(), stats)
	return nil
}
