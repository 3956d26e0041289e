package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/agenthands/kbguard/internal/core/abrogation"
	"github.com/agenthands/kbguard/internal/core/dedupe"
	"github.com/agenthands/kbguard/internal/core/model"
	"github.com/agenthands/kbguard/internal/llm"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	red     = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow  = color.New(color.FgYellow, color.Bold).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	magenta = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func relationColor(t model.RelationType) func(a ...interface{}) string {
	switch t {
	case model.RelationDuplicate:
		return red
	case model.RelationNearDuplicate:
		return yellow
	case model.RelationContradiction:
		return magenta
	}
	return green
}

func severityColor(s model.Severity) func(a ...interface{}) string {
	switch s {
	case model.SeverityCritical:
		return red
	case model.SeverityWarning:
		return yellow
	}
	return green
}

func printCandidates(w io.Writer, cands []model.SimilarityCandidate) {
	if len(cands) == 0 {
		fmt.Fprintln(w, green("No duplicate candidates."))
		return
	}
	for _, c := range cands {
		fmt.Fprintf(w, "%s  %s  %s %s\n", yellow(fmt.Sprintf("%.3f", c.Similarity)), bold(c.CandidateID), c.Title, faint("["+c.Category+"]"))
	}
}

func printReport(w io.Writer, r *dedupe.Report) {
	fmt.Fprintf(w, "%s %s: %d candidate(s), %d LLM call(s), %d relation(s) written\n",
		bold("Document"), r.DocumentID, len(r.Outcomes), r.LLMCalls, r.Written)
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("  %.3f  %-28s %-12s", o.Candidate.Similarity, o.Candidate.CandidateID, o.Tier)
		switch {
		case o.Skipped != "":
			fmt.Fprintf(w, "%s %s\n", line, faint("skipped: "+o.Skipped))
		case o.Relation != nil:
			label := string(o.Relation.Type)
			if o.Reused {
				label += " (reused)"
			}
			fmt.Fprintf(w, "%s %s\n", line, relationColor(o.Relation.Type)(label))
		default:
			fmt.Fprintln(w, line)
		}
		if o.Finding != nil {
			if c, ok := o.Finding.Primary(); ok {
				fmt.Fprintf(w, "      %s %s\n", magenta(c.Severity), c.Description)
			}
		}
	}
}

func printRelations(w io.Writer, documentID string, rels []model.DuplicateRelation) {
	if len(rels) == 0 {
		fmt.Fprintf(w, "No relations for %s.\n", documentID)
		return
	}
	for _, r := range rels {
		other := r.TargetID
		if other == documentID {
			other = r.SourceID
		}
		fmt.Fprintf(w, "%-15s %-28s similarity %.3f  confidence %.3f  %s\n",
			relationColor(r.Type)(string(r.Type)), other, r.SimilarityScore, r.Confidence,
			faint(r.UpdatedAt.Format("2006-01-02 15:04")))
	}
}

func printCluster(w io.Writer, c *dedupe.Cluster) {
	fmt.Fprintf(w, "%s %s: %d document(s)\n", bold("Duplicate cluster of"), c.DocumentID, len(c.Members))
	for _, id := range c.Members {
		fmt.Fprintf(w, "  %s\n", id)
	}
	for _, r := range c.Relations {
		fmt.Fprintf(w, "  %s ↔ %s %s %.3f\n", r.SourceID, r.TargetID, relationColor(r.Type)(string(r.Type)), r.SimilarityScore)
	}
	if c.Truncated {
		fmt.Fprintln(w, yellow("  (truncated, raise --max to see more)"))
	}
}

func printFindings(w io.Writer, findings []model.ContradictionFinding) {
	for _, f := range findings {
		if !f.HasContradiction {
			continue
		}
		fmt.Fprintf(w, "\n%s %s ↔ %s (%s, %s)\n", magenta("Contradiction"), f.SourceID, f.TargetID, f.OverallSeverity, faint(f.LLMProvider+"/"+f.LLMModel))
		for _, c := range f.Contradictions {
			fmt.Fprintf(w, "  [%s/%s] %s\n", c.Type, c.Severity, c.Description)
			if c.SuggestedResolution != "" {
				fmt.Fprintf(w, "    → %s\n", c.SuggestedResolution)
			}
		}
	}
}

func printReferences(w io.Writer, refs []model.LegalReference, disclosed []model.SelfDisclosure) {
	if len(refs) == 0 {
		fmt.Fprintln(w, "No legal references found.")
	}
	for _, r := range refs {
		fmt.Fprintf(w, "%-8s %.2f  %s\n", cyan(string(r.Type)), r.Confidence, r.Text)
	}
	for _, d := range disclosed {
		fmt.Fprintf(w, "%s %q → %s %s\n", yellow("self-disclosed"), d.Pattern, d.AbrogatedBy, faint(fmt.Sprintf("@%d", d.Position)))
	}
}

func printAlerts(w io.Writer, alerts []model.AbrogationAlert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, green("No repealed references detected."))
		return
	}
	for i, a := range alerts {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, severityColor(a.Severity)(abrogation.SeverityLabel(a.Severity)), a.Message)
		if a.MessageAr != "" {
			fmt.Fprintf(w, "   %s\n", a.MessageAr)
		}
		if a.ReplacementSuggestion != "" {
			fmt.Fprintf(w, "   %s\n", faint(strings.TrimSpace(a.ReplacementSuggestion)))
		}
	}
}

func printCallStats(w io.Writer, stats []llm.ProviderStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No calls recorded.")
		return
	}
	fmt.Fprintf(w, "%-12s %8s %8s %10s\n", bold("provider"), "calls", "failed", "tokens")
	for _, s := range stats {
		failed := fmt.Sprintf("%8d", s.Failures)
		if s.Failures > 0 {
			failed = red(failed)
		}
		fmt.Fprintf(w, "%-12s %8d %s %10d\n", s.Provider, s.Calls, failed, s.TokensUsed)
	}
}
