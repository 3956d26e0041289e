package abrogation

import (
	"fmt"
	"strings"

	"github.com/agenthands/kbguard/internal/core/model"
)

var severityLabels = map[model.Severity]string{
	model.SeverityCritical: "🔴 CRITIQUE",
	model.SeverityWarning:  "🟡 ATTENTION",
	model.SeverityInfo:     "🟢 INFO",
}

// SeverityLabel is the display label of s.
func SeverityLabel(s model.Severity) string {
	if l, ok := severityLabels[s]; ok {
		return l
	}
	return string(s)
}

// FormatAlerts renders alerts as a numbered plain-text block. It returns
// an empty string when there is nothing to report.
func FormatAlerts(alerts []model.AbrogationAlert) string {
	if len(alerts) == 0 {
		return ""
	}

	lines := []string{
		fmt.Sprintf("🚨 %d référence(s) juridique(s) abrogée(s) détectée(s) :", len(alerts)),
		"",
	}
	for i, a := range alerts {
		lines = append(lines, fmt.Sprintf("%d. %s %s", i+1, SeverityLabel(a.Severity), a.Message))
		if a.Abrogation.Notes != "" {
			lines = append(lines, "   💡 "+a.Abrogation.Notes)
		}
		if a.Abrogation.SourceURL != "" {
			lines = append(lines, "   🔗 "+a.Abrogation.SourceURL)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
