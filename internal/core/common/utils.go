package common

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedObjectPattern  = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseJSON cleans and unmarshals a JSON string into a type T.
// It handles common LLM quirks like surrounding markdown, extra text
// and trailing commas. Trailing commas are only stripped when the payload
// does not decode as is, so string values are left untouched.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr, err := ExtractJSONObject(response)
	if err != nil {
		return zero, err
	}

	var result T
	err = json.Unmarshal([]byte(jsonStr), &result)
	if err == nil {
		return result, nil
	}

	cleaned := trailingCommaPattern.ReplaceAllString(jsonStr, "$1")
	if cleaned != jsonStr {
		var retry T
		if json.Unmarshal([]byte(cleaned), &retry) == nil {
			return retry, nil
		}
	}
	return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
}

// ExtractJSONObject returns the outermost JSON object found in response.
func ExtractJSONObject(response string) (string, error) {
	if m := fencedObjectPattern.FindStringSubmatch(response); len(m) > 1 {
		return m[1], nil
	}

	start := strings.IndexByte(response, '{')
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response (missing '{')")
	}
	end := strings.LastIndexByte(response, '}')
	if end < start {
		return "", fmt.Errorf("no JSON object found in response (missing '}')")
	}

	return response[start : end+1], nil
}

// TruncationMarker is appended to content cut by Truncate.
const TruncationMarker = "\n\n[... contenu tronqué ...]"

// wordBoundaryWindow bounds how far Truncate backs off to find a space.
const wordBoundaryWindow = 40

// Truncate keeps at most maxChars characters of content. The cut moves back to
// a space when one lies within wordBoundaryWindow characters of the limit.
func Truncate(content string, maxChars int) string {
	runes := []rune(content)
	if maxChars <= 0 || len(runes) <= maxChars {
		return content
	}

	cut := maxChars
	for i := maxChars - 1; i > 0 && i >= maxChars-wordBoundaryWindow; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	return string(runes[:cut]) + TruncationMarker
}
