// Package claim normalizes incoming claim text and classifies its phrasing.
package claim

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxLength is the maximum claim length in characters after normalization.
const MaxLength = 5000

var questionStarters = map[string]bool{
	"who": true, "what": true, "where": true, "when": true, "why": true, "how": true,
	"is": true, "are": true, "was": true, "were": true,
	"do": true, "does": true, "did": true,
	"can": true, "could": true, "will": true, "would": true, "should": true,
}

// Normalize puts text in NFC form, trims it, collapses whitespace runs to a
// single space and truncates the result to MaxLength characters.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	fields := strings.FieldsFunc(norm.NFC.String(text), unicode.IsSpace)
	out := strings.Join(fields, " ")

	runes := []rune(out)
	if len(runes) > MaxLength {
		out = strings.TrimRightFunc(string(runes[:MaxLength]), unicode.IsSpace)
	}
	return out
}

// IsQuestion reports whether text reads as a question: it ends with '?' or
// starts with a common interrogative word.
func IsQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	first := strings.Fields(trimmed)[0]
	return questionStarters[strings.ToLower(first)]
}
