package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/kbguard/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed <abrogations.yaml>",
	Short: "Load curated abrogations into the registry",
	Long: `Seed validates every entry of the YAML file first, then upserts them by
their (abrogated_reference, abrogating_reference) pair.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	items, err := store.ParseSeedFile(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	res, err := store.Seed(ctx, st, items)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d inserted, %d updated\n", res.Inserted, res.Updated)
	return nil
}
