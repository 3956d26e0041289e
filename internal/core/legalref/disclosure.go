package legalref

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agenthands/kbguard/internal/core/model"
)

const (
	unspecifiedFR = "Non spécifié"
	unspecifiedAR = "غير محدد"
)

type disclosurePattern struct {
	pattern     *regexp.Regexp
	unspecified string
}

// Statements in which a text says that what it cites is no longer in force.
// The first capture group, when present, names the repealing text.
var disclosurePatterns = []disclosurePattern{
	{regexp.MustCompile(`(?i)(?:abrogé|abrogée)\s+(?:par|en vertu de|selon)\s+([^,.]+)`), unspecifiedFR},
	{regexp.MustCompile(`(?i)(?:remplacé|remplacée)\s+par\s+([^,.]+)`), unspecifiedFR},
	{regexp.MustCompile(`(?i)n['’ʼ]est plus en vigueur`), unspecifiedFR},
	{regexp.MustCompile(`(?i)(?:caduc|caduque)\s+depuis`), unspecifiedFR},
	{regexp.MustCompile(`(?:ألغي|ألغيت)\s+(?:بموجب|حسب|وفقا لـ)\s+([^\s،.]+)`), unspecifiedAR},
	{regexp.MustCompile(`(?:عوّض|عوّضت)\s+بـ\s+([^\s،.]+)`), unspecifiedAR},
	{regexp.MustCompile(`لم يعد ساري المفعول`), unspecifiedAR},
	{regexp.MustCompile(`ملغى منذ`), unspecifiedAR},
}

// DetectSelfDisclosed returns every self-declared abrogation statement in
// text. Position is a character offset.
func DetectSelfDisclosed(text string) []model.SelfDisclosure {
	text = normalizeSpaces(text)
	var out []model.SelfDisclosure
	for _, p := range disclosurePatterns {
		for _, loc := range p.pattern.FindAllStringSubmatchIndex(text, -1) {
			by := p.unspecified
			if len(loc) >= 4 && loc[2] >= 0 {
				by = strings.TrimSpace(text[loc[2]:loc[3]])
			}
			out = append(out, model.SelfDisclosure{
				Pattern:     text[loc[0]:loc[1]],
				AbrogatedBy: by,
				Position:    utf8.RuneCountInString(text[:loc[0]]),
			})
		}
	}
	return out
}
