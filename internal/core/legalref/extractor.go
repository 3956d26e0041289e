// Package legalref finds citations of Tunisian legal texts (codes, articles,
// laws, decree-laws) in French or Arabic free text.
package legalref

import (
	"regexp"
	"strings"

	"github.com/agenthands/kbguard/internal/core/model"
)

type rule struct {
	pattern *regexp.Regexp
	kind    model.ReferenceType
}

// rules are evaluated top to bottom. When two rules produce the same
// reference text, the earlier rule wins.
var rules = []rule{
	// Bare code names: "Code pénal", "Code du travail"
	{regexp.MustCompile(`(?i)Code\s+(pénal|civil|du\s+travail|de\s+commerce|des\s+obligations)`), model.ReferenceCode},
	// Article of a code: "article 52 du Code pénal", "فصل 12 Code civil"
	{regexp.MustCompile(`(?i)(?:article|art\.?|فصل)\s*(\d+(?:-\d+)?)\s*(?:du\s+)?(Code\s+(?:pénal|civil|du\s+travail))`), model.ReferenceArticle},
	// Numbered laws: "loi n° 2016-36", "قانون عدد 58/2017"
	{regexp.MustCompile(`(?i)(?:loi|قانون)\s*(?:n°|عدد|numero)?\s*(\d{1,4}[-/]\d{2,4})`), model.ReferenceLaw},
	// Decree-laws: "décret-loi n° 2011-115"
	{regexp.MustCompile(`(?i)(?:décret-loi|مرسوم-قانون)\s*(?:n°|عدد)?\s*(\d{4}-\d+)`), model.ReferenceDecree},
	// Organic laws: "loi organique n° 2017-58"
	{regexp.MustCompile(`(?i)(?:loi\s+organique|قانون\s+أساسي)\s*(?:n°|عدد)?\s*(\d{4}-\d+)`), model.ReferenceLaw},
	// Arabic code names: "المجلة الجزائية"
	{regexp.MustCompile(`(?:المجلة|مجلة)\s+(الجنائية|المدنية|الجزائية|الشغل)`), model.ReferenceCode},
}

const (
	baseConfidence    = 0.6
	digitBonus        = 0.2
	articleBonus      = 0.1
	articleCodeBonus  = 0.1
	maximumConfidence = 1.0
)

// French typography puts no-break spaces inside citations ("n°\u00a02016-36").
// RE2's \s only covers ASCII whitespace.
var spaceNormalizer = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2007", " ")

func normalizeSpaces(text string) string {
	return spaceNormalizer.Replace(text)
}

var (
	digitRe         = regexp.MustCompile(`\d`)
	articleMarkerRe = regexp.MustCompile(`(?i)article|art\.|فصل`)
	codeRe          = regexp.MustCompile(`(?i)code`)
)

// Extract returns the legal references cited in text, in rule order then
// text order. Identical references (ignoring case) are reported once.
func Extract(text string) []model.LegalReference {
	text = normalizeSpaces(text)
	seen := make(map[string]bool)
	var refs []model.LegalReference

	for _, r := range rules {
		for _, match := range r.pattern.FindAllString(text, -1) {
			ref := strings.TrimSpace(match)
			key := strings.ToLower(ref)
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, model.LegalReference{
				Text:       ref,
				Type:       r.kind,
				Confidence: Confidence(ref, r.kind),
			})
		}
	}

	return refs
}

// Confidence scores a matched reference within [0, 1].
func Confidence(ref string, kind model.ReferenceType) float64 {
	c := baseConfidence
	if digitRe.MatchString(ref) {
		c += digitBonus
	}
	if articleMarkerRe.MatchString(ref) {
		c += articleBonus
	}
	if kind == model.ReferenceArticle && codeRe.MatchString(ref) {
		c += articleCodeBonus
	}
	if c > maximumConfidence {
		c = maximumConfidence
	}
	return c
}

// FilterByConfidence keeps the references scoring at least min.
func FilterByConfidence(refs []model.LegalReference, min float64) []model.LegalReference {
	var out []model.LegalReference
	for _, r := range refs {
		if r.Confidence >= min {
			out = append(out, r)
		}
	}
	return out
}
