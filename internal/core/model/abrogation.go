package model

import "time"

type Scope string

const (
	ScopeTotal    Scope = "total"
	ScopePartial  Scope = "partial"
	ScopeImplicit Scope = "implicit"
)

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "verified"
	VerificationPending  VerificationStatus = "pending"
	VerificationDisputed VerificationStatus = "disputed"
)

type Abrogation struct {
	ID                    string             `json:"id" yaml:"id"`
	AbrogatedReference    string             `json:"abrogated_reference" yaml:"abrogated_reference"`
	AbrogatedReferenceAr  string             `json:"abrogated_reference_ar,omitempty" yaml:"abrogated_reference_ar"`
	AbrogatingReference   string             `json:"abrogating_reference,omitempty" yaml:"abrogating_reference"`
	AbrogatingReferenceAr string             `json:"abrogating_reference_ar,omitempty" yaml:"abrogating_reference_ar"`
	AbrogationDate        time.Time          `json:"abrogation_date" yaml:"abrogation_date"`
	Scope                 Scope              `json:"scope" yaml:"scope"`
	AffectedArticles      []string           `json:"affected_articles,omitempty" yaml:"affected_articles"`
	JORTURL               string             `json:"jort_url,omitempty" yaml:"jort_url"`
	SourceURL             string             `json:"source_url,omitempty" yaml:"source_url"`
	Notes                 string             `json:"notes,omitempty" yaml:"notes"`
	Domain                string             `json:"domain,omitempty" yaml:"domain"`
	Verified              bool               `json:"verified" yaml:"verified"`
	Confidence            ConfidenceLevel    `json:"confidence" yaml:"confidence"`
	VerificationStatus    VerificationStatus `json:"verification_status" yaml:"verification_status"`
	SimilarityScore       float64            `json:"similarity_score" yaml:"-"`
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type AbrogationAlert struct {
	Reference             LegalReference `json:"reference"`
	Abrogation            Abrogation     `json:"abrogation"`
	Severity              Severity       `json:"severity"`
	Message               string         `json:"message"`
	MessageAr             string         `json:"message_ar"`
	ReplacementSuggestion string         `json:"replacement_suggestion"`
}
