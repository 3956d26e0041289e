package legalref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/kbguard/internal/core/model"
)

func find(refs []model.LegalReference, kind model.ReferenceType) (model.LegalReference, bool) {
	for _, r := range refs {
		if r.Type == kind {
			return r, true
		}
	}
	return model.LegalReference{}, false
}

func TestExtractArticleOfCode(t *testing.T) {
	refs := Extract("Conformément à l'article 52 du Code pénal, la peine est aggravée.")

	article, ok := find(refs, model.ReferenceArticle)
	require.True(t, ok)
	assert.Equal(t, "article 52 du Code pénal", article.Text)
	assert.GreaterOrEqual(t, article.Confidence, 0.9)
	assert.InDelta(t, 1.0, article.Confidence, 1e-9)

	code, ok := find(refs, model.ReferenceCode)
	require.True(t, ok)
	assert.Equal(t, "Code pénal", code.Text)
	assert.InDelta(t, 0.6, code.Confidence, 1e-9)
}

func TestExtractDeduplicatesIgnoringCase(t *testing.T) {
	refs := Extract("Code pénal code pénal CODE PÉNAL")
	require.Len(t, refs, 1)
	assert.Equal(t, "Code pénal", refs[0].Text)
	assert.Equal(t, model.ReferenceCode, refs[0].Type)
}

func TestExtractIsIdempotent(t *testing.T) {
	text := "La loi n° 2016-36 et le décret-loi n° 2011-115 modifient le Code du travail."
	assert.Equal(t, Extract(text), Extract(text))
}

func TestExtractRuleFamilies(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       string
		kind       model.ReferenceType
		confidence float64
	}{
		{"numbered law", "selon la loi n° 2016-36 relative aux faillites", "loi n° 2016-36", model.ReferenceLaw, 0.8},
		{"law with slash", "قانون عدد 58/2017", "قانون عدد 58/2017", model.ReferenceLaw, 0.8},
		{"decree-law", "le décret-loi n° 2011-115 sur la presse", "décret-loi n° 2011-115", model.ReferenceDecree, 0.8},
		{"organic law", "la loi organique n° 2017-58", "loi organique n° 2017-58", model.ReferenceLaw, 0.8},
		{"arabic code", "حسب المجلة الجزائية", "المجلة الجزائية", model.ReferenceCode, 0.6},
		{"art. abbreviation", "art. 12 Code civil", "art. 12 Code civil", model.ReferenceArticle, 1.0},
		{"code de commerce", "le Code de commerce", "Code de commerce", model.ReferenceCode, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := Extract(tt.text)
			var got *model.LegalReference
			for i := range refs {
				if refs[i].Text == tt.want {
					got = &refs[i]
				}
			}
			require.NotNil(t, got, "references: %+v", refs)
			assert.Equal(t, tt.kind, got.Type)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestExtractNothing(t *testing.T) {
	assert.Empty(t, Extract("Bonjour, je souhaite un rendez-vous pour mardi."))
	assert.Empty(t, Extract(""))
}

func TestExtractAcceptsNoBreakSpaces(t *testing.T) {
	refs := Extract("Vu la loi n°\u00a02016-36 du 29 avril 2016")
	law, ok := find(refs, model.ReferenceLaw)
	require.True(t, ok)
	assert.Equal(t, "loi n° 2016-36", law.Text)
	assert.InDelta(t, 0.8, law.Confidence, 1e-9)

	refs = Extract("article\u00a052 du Code\u202fpénal")
	article, ok := find(refs, model.ReferenceArticle)
	require.True(t, ok)
	assert.Equal(t, "article 52 du Code pénal", article.Text)
	assert.InDelta(t, 1.0, article.Confidence, 1e-9)

	got := DetectSelfDisclosed("abrogé\u00a0par la loi n°\u00a02016-36.")
	require.Len(t, got, 1)
	assert.Equal(t, "la loi n° 2016-36", got[0].AbrogatedBy)
	assert.Equal(t, 0, got[0].Position)
}

func TestConfidenceIsClamped(t *testing.T) {
	for _, kind := range []model.ReferenceType{model.ReferenceCode, model.ReferenceArticle, model.ReferenceLaw, model.ReferenceDecree} {
		c := Confidence("article 12 art. 7 فصل 3 Code pénal", kind)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}
}

func TestFilterByConfidence(t *testing.T) {
	refs := []model.LegalReference{
		{Text: "Code pénal", Type: model.ReferenceCode, Confidence: 0.6},
		{Text: "loi n° 2016-36", Type: model.ReferenceLaw, Confidence: 0.8},
	}
	assert.Len(t, FilterByConfidence(refs, 0.6), 2)
	assert.Equal(t, "loi n° 2016-36", FilterByConfidence(refs, 0.7)[0].Text)
	assert.Empty(t, FilterByConfidence(refs, 0.9))
}

func TestDetectSelfDisclosed(t *testing.T) {
	text := "Cet article a été abrogé par la loi n° 2016-36, et le décret n'est plus en vigueur."
	got := DetectSelfDisclosed(text)
	require.Len(t, got, 2)
	assert.Equal(t, "la loi n° 2016-36", got[0].AbrogatedBy)
	assert.Equal(t, 18, got[0].Position)
	assert.Equal(t, unspecifiedFR, got[1].AbrogatedBy)

	ar := DetectSelfDisclosed("هذا الفصل لم يعد ساري المفعول")
	require.Len(t, ar, 1)
	assert.Equal(t, unspecifiedAR, ar[0].AbrogatedBy)
	assert.Equal(t, 10, ar[0].Position)

	assert.Empty(t, DetectSelfDisclosed("texte sans mention particulière"))
}
