package abrogation

import (
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/kbguard/internal/core/model"
)

var monthsFR = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// Month names as written in Tunisia.
var monthsAR = [...]string{
	"جانفي", "فيفري", "مارس", "أفريل", "ماي", "جوان",
	"جويلية", "أوت", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var scopeFR = map[model.Scope]string{
	model.ScopeTotal:    "totalement abrogée",
	model.ScopePartial:  "partiellement abrogée",
	model.ScopeImplicit: "implicitement abrogée",
}

var scopeAR = map[model.Scope]string{
	model.ScopeTotal:    "ملغى كليا",
	model.ScopePartial:  "ملغى جزئيا",
	model.ScopeImplicit: "محتمل أن يكون ملغى",
}

// FormatDateFR renders t like "15 janvier 2020".
func FormatDateFR(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), monthsFR[t.Month()-1], t.Year())
}

// FormatDateAR renders t like "15 جانفي 2020".
func FormatDateAR(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), monthsAR[t.Month()-1], t.Year())
}

// GenerateAlerts builds one alert per abrogation, attributed to the
// reference whose text overlaps the abrogated reference, or to the first
// reference when none does.
func GenerateAlerts(refs []model.LegalReference, abrogations []model.Abrogation) []model.AbrogationAlert {
	alerts := make([]model.AbrogationAlert, 0, len(abrogations))
	for _, a := range abrogations {
		alerts = append(alerts, model.AbrogationAlert{
			Reference:             matchReference(refs, a),
			Abrogation:            a,
			Severity:              Severity(a),
			Message:               MessageFR(a),
			MessageAr:             MessageAR(a),
			ReplacementSuggestion: ReplacementSuggestion(a),
		})
	}
	return alerts
}

func matchReference(refs []model.LegalReference, a model.Abrogation) model.LegalReference {
	abrogated := strings.ToLower(a.AbrogatedReference)
	for _, r := range refs {
		text := strings.ToLower(r.Text)
		if text == "" {
			continue
		}
		if strings.Contains(abrogated, text) || strings.Contains(text, abrogated) {
			return r
		}
	}
	if len(refs) > 0 {
		return refs[0]
	}
	return model.LegalReference{}
}

// MessageFR is the French alert text.
func MessageFR(a model.Abrogation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ **Attention** : %s a été **%s**", a.AbrogatedReference, scopePhrase(scopeFR, a.Scope))
	if a.AbrogatingReference != "" {
		fmt.Fprintf(&sb, " par %s", a.AbrogatingReference)
	}
	if !a.AbrogationDate.IsZero() {
		fmt.Fprintf(&sb, " le **%s**", FormatDateFR(a.AbrogationDate))
	}
	sb.WriteString(".")
	if len(a.AffectedArticles) > 0 {
		fmt.Fprintf(&sb, "\n\n**Articles concernés** : %s", strings.Join(a.AffectedArticles, ", "))
	}
	return sb.String()
}

// MessageAR is the Arabic alert text. Arabic reference variants are used
// when the registry has them.
func MessageAR(a model.Abrogation) string {
	abrogated := firstNonEmpty(a.AbrogatedReferenceAr, a.AbrogatedReference)
	abrogating := firstNonEmpty(a.AbrogatingReferenceAr, a.AbrogatingReference)

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ **تنبيه** : %s **%s**", abrogated, scopePhrase(scopeAR, a.Scope))
	if abrogating != "" {
		fmt.Fprintf(&sb, " بموجب %s", abrogating)
	}
	if !a.AbrogationDate.IsZero() {
		fmt.Fprintf(&sb, " بتاريخ **%s**", FormatDateAR(a.AbrogationDate))
	}
	sb.WriteString(".")
	if len(a.AffectedArticles) > 0 {
		fmt.Fprintf(&sb, "\n\n**الفصول المعنية** : %s", strings.Join(a.AffectedArticles, "، "))
	}
	return sb.String()
}

// ReplacementSuggestion points to the repealing text, or is empty when the
// registry names none.
func ReplacementSuggestion(a model.Abrogation) string {
	if a.AbrogatingReference == "" {
		return ""
	}
	s := "📜 **Nouvelle référence** : " + a.AbrogatingReference
	if a.AbrogatingReferenceAr != "" {
		s += "\n" + a.AbrogatingReferenceAr
	}
	return s
}

func scopePhrase(phrases map[model.Scope]string, s model.Scope) string {
	if p, ok := phrases[s]; ok {
		return p
	}
	return phrases[model.ScopeImplicit]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
