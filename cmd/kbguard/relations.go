package main

import (
	"github.com/spf13/cobra"

	"github.com/agenthands/kbguard/internal/core/dedupe"
	"github.com/agenthands/kbguard/internal/driver"
)

var relationsCmd = &cobra.Command{
	Use:   "relations <document-id>",
	Short: "List stored relations of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelations,
}

func init() {
	relationsCmd.Flags().BoolP("json", "j", false, "print JSON")
	relationsCmd.Flags().Bool("findings", false, "also print the stored contradiction findings")
	relationsCmd.Flags().Bool("cluster", false, "print the duplicate cluster around the document instead")
	relationsCmd.Flags().Int("max", dedupe.DefaultMaxClusterSize, "maximum cluster size")
}

func runRelations(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	withFindings, _ := cmd.Flags().GetBool("findings")
	asCluster, _ := cmd.Flags().GetBool("cluster")
	maxSize, _ := cmd.Flags().GetInt("max")
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	g, err := a.openGraph(ctx)
	if err != nil {
		return err
	}
	graph := driver.NewRelationGraph(g)
	out := cmd.OutOrStdout()

	if asCluster {
		cluster, err := dedupe.ExpandCluster(ctx, graph, args[0], maxSize)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(out, cluster)
		}
		printCluster(out, cluster)
		return nil
	}

	rels, err := graph.ListRelations(ctx, args[0])
	if err != nil {
		return err
	}
	if asJSON && !withFindings {
		return printJSON(out, rels)
	}

	if !withFindings {
		printRelations(out, args[0], rels)
		return nil
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	findings, err := st.ListFindings(ctx, args[0])
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(out, map[string]any{"relations": rels, "findings": findings})
	}
	printRelations(out, args[0], rels)
	printFindings(out, findings)
	return nil
}
