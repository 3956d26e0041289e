package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	HasContradiction bool    `json:"has_contradiction"`
	Score            float64 `json:"similarity_score"`
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     verdict
	}{
		{"plain", `{"has_contradiction": true, "similarity_score": 0.8}`, verdict{true, 0.8}},
		{"fenced", "Voici l'analyse:\n```json\n{\"has_contradiction\": false, \"similarity_score\": 0.7}\n```", verdict{false, 0.7}},
		{"surrounding text", `Résultat: {"has_contradiction": true, "similarity_score": 0.5} fin`, verdict{true, 0.5}},
		{"trailing comma", `{"has_contradiction": true, "similarity_score": 0.6,}`, verdict{true, 0.6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON[verdict](tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONKeepsCommasInsideStrings(t *testing.T) {
	type note struct {
		Notes string `json:"analysis_notes"`
	}
	got, err := ParseJSON[note](`{"analysis_notes": "voir (a, ]"}`)
	require.NoError(t, err)
	assert.Equal(t, "voir (a, ]", got.Notes)

	got, err = ParseJSON[note]("```json\n{\"analysis_notes\": \"a, b\",}\n```")
	require.NoError(t, err)
	assert.Equal(t, "a, b", got.Notes)
}

func TestParseJSON_Malformed(t *testing.T) {
	_, err := ParseJSON[verdict]("aucune analyse disponible")
	assert.Error(t, err)

	_, err = ParseJSON[verdict](`{"has_contradiction": tru`)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "court", Truncate("court", 10))

	got := Truncate("le contrat de bail commercial", 15)
	assert.Equal(t, "le contrat de"+TruncationMarker, got)

	long := "Loi " + strings.Repeat("x", 5000)
	got = Truncate(long, 3000)
	assert.Equal(t, string([]rune(long)[:3000])+TruncationMarker, got)

	arabic := strings.Repeat("ق", 20)
	got = Truncate(arabic, 5)
	assert.Equal(t, strings.Repeat("ق", 5)+TruncationMarker, got)
}
