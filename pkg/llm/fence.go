package llm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// FencedJSON returns the body of the first fenced code block in text whose
// content is a JSON object. ok is false when text has no such block.
func FencedJSON(text string) (body string, ok bool) {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Number coerces a decoded JSON value, a number or a numeric string, to a
// finite float.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
