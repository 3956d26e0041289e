package abrogation

import "github.com/agenthands/kbguard/internal/core/model"

type severityRule struct {
	name     string
	matches  func(a model.Abrogation) bool
	severity model.Severity
}

// severityRules are checked in order; the first match decides. An
// abrogation matching none is informational.
var severityRules = []severityRule{
	{
		name:     "total repeal",
		matches:  func(a model.Abrogation) bool { return a.Scope == model.ScopeTotal },
		severity: model.SeverityCritical,
	},
	{
		name:     "verified with high confidence",
		matches:  func(a model.Abrogation) bool { return a.Confidence == model.ConfidenceHigh && a.Verified },
		severity: model.SeverityWarning,
	},
}

// Severity grades an abrogation.
func Severity(a model.Abrogation) model.Severity {
	for _, r := range severityRules {
		if r.matches(a) {
			return r.severity
		}
	}
	return model.SeverityInfo
}
