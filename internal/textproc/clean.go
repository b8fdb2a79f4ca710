// Package textproc normalizes recognized phrases before injection.
package textproc

import (
	"regexp"
	"strings"
)

// fillerPattern matches short hesitation sounds on word boundaries.
var fillerPattern = regexp.MustCompile(`(?i)\b(uh|um|er|ah|eh|uhm|hmm|hm|mm)\b`)

var (
	multiSpacePattern       = regexp.MustCompile(`\s+`)
	doubleCommaPattern      = regexp.MustCompile(`\s*,\s*,\s*`)
	leadingSeparatorPattern = regexp.MustCompile(`^[,\s]+`)
	trailingSepPattern      = regexp.MustCompile(`[,\s]+$`)
	spaceBeforePunctPattern = regexp.MustCompile(`\s+([,.!?;:])`)
)

// CleanFillers strips hesitation words and repairs the surrounding
// punctuation and whitespace. A trailing space on the input survives so
// progressive injection keeps phrases separated.
func CleanFillers(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	hadTrailingSpace := strings.HasSuffix(text, " ")

	result := fillerPattern.ReplaceAllString(text, "")
	result = multiSpacePattern.ReplaceAllString(result, " ")
	result = doubleCommaPattern.ReplaceAllString(result, ", ")
	result = leadingSeparatorPattern.ReplaceAllString(result, "")
	result = trailingSepPattern.ReplaceAllString(result, "")
	result = spaceBeforePunctPattern.ReplaceAllString(result, "$1")
	result = strings.TrimSpace(result)

	if result == "" {
		return ""
	}
	if hadTrailingSpace {
		result += " "
	}
	return result
}

// Normalize collapses whitespace runs without touching fillers.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
