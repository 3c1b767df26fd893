package media

import (
	"encoding/json"

	"github.com/sells-group/factcheck/pkg/llm"
)

const maxRawNotes = 500

// ParseMediaResponse extracts the authenticity judgment from a vision model
// reply. A reply without a parseable fenced JSON block degrades to its first
// 500 characters as notes, with no score and no indicators.
func ParseMediaResponse(raw string) (score *float64, indicators []string, notes string) {
	body, ok := llm.FencedJSON(raw)
	if !ok {
		return nil, []string{}, firstRunes(raw, maxRawNotes)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, []string{}, firstRunes(raw, maxRawNotes)
	}

	if v, ok := llm.Number(doc["authenticityScore"]); ok {
		score = &v
	}

	indicators = []string{}
	if list, ok := doc["indicators"].([]any); ok {
		for _, entry := range list {
			if s, ok := entry.(string); ok {
				indicators = append(indicators, s)
			}
		}
	}

	notes, _ = doc["notes"].(string)
	return score, indicators, notes
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
