package verdict

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/pkg/llm"
)

const (
	defaultConfidence  = 0.5
	maxFallbackExplain = 300
)

var confidenceRe = regexp.MustCompile(`confidence:\s*(\d+(?:\.\d+)?)\s*%`)

// Parse turns a verdict model reply into a ParsedVerdict. The fenced JSON
// block is preferred; without one the verdict and confidence are recovered
// from keywords in the text.
func Parse(raw string) model.ParsedVerdict {
	if pv, ok := parseStructured(raw); ok {
		return pv
	}
	return parseHeuristic(raw)
}

func parseStructured(raw string) (model.ParsedVerdict, bool) {
	body, ok := llm.FencedJSON(raw)
	if !ok {
		return model.ParsedVerdict{}, false
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return model.ParsedVerdict{}, false
	}

	pv := model.ParsedVerdict{
		Verdict:    model.VerdictUnverified,
		Confidence: defaultConfidence,
		Sources:    []model.SourceStance{},
	}

	if s, ok := doc["verdict"].(string); ok {
		v := model.Verdict(strings.ToUpper(strings.TrimSpace(s)))
		if v.Valid() {
			pv.Verdict = v
		}
	}
	if c, ok := llm.Number(doc["confidence"]); ok {
		pv.Confidence = c / 100
	}
	pv.Explanation, _ = doc["explanation"].(string)

	if list, ok := doc["sources"].([]any); ok {
		for _, entry := range list {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			u, _ := obj["url"].(string)
			if u == "" {
				continue
			}
			st, _ := obj["stance"].(string)
			pv.Sources = append(pv.Sources, model.SourceStance{URL: u, Stance: normalizeStance(st)})
		}
	}

	return pv, true
}

func normalizeStance(s string) model.Stance {
	switch model.Stance(strings.ToLower(strings.TrimSpace(s))) {
	case model.StanceSupports:
		return model.StanceSupports
	case model.StanceContradicts:
		return model.StanceContradicts
	default:
		return model.StanceNeutral
	}
}

// parseHeuristic scans the lower-cased reply for verdict keywords in a fixed
// priority order.
func parseHeuristic(raw string) model.ParsedVerdict {
	text := strings.ToLower(raw)

	pv := model.ParsedVerdict{
		Verdict:     heuristicVerdict(text),
		Explanation: firstRunes(raw, maxFallbackExplain),
		Sources:     []model.SourceStance{},
	}
	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			pv.Confidence = n / 100
		}
	}
	return pv
}

func heuristicVerdict(text string) model.Verdict {
	has := func(s string) bool { return strings.Contains(text, s) }

	switch {
	case has("false") && !has("mostly false"):
		return model.VerdictFalse
	case has("mostly false"):
		return model.VerdictMostlyFalse
	case has("misleading"):
		return model.VerdictMisleading
	case has("mostly true"):
		return model.VerdictMostlyTrue
	case has("true") && !has("mostly true"):
		return model.VerdictTrue
	case has("satire"):
		return model.VerdictSatire
	case has("unverified"):
		return model.VerdictUnverified
	case has("opinion"):
		return model.VerdictOpinion
	default:
		return model.VerdictUnverified
	}
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
