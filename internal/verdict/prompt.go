package verdict

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/factcheck/internal/credibility"
	"github.com/sells-group/factcheck/internal/model"
)

// BuildSystemPrompt returns the fact-checker instructions, including the
// source priority brief and the required JSON reply shape.
func BuildSystemPrompt() string {
	verdicts := make([]string, len(model.Verdicts))
	for i, v := range model.Verdicts {
		verdicts[i] = string(v)
	}

	var b strings.Builder
	b.WriteString("You are a professional fact-checker. You evaluate claims strictly against the evidence supplied to you.\n\n")
	b.WriteString(credibility.PriorityBrief())
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. Evaluate the claim against every evidence item provided.\n")
	b.WriteString("2. For each source, decide whether it supports, contradicts, or is neutral toward the claim.\n")
	b.WriteString("3. Weight sources by tier: a Tier 1 source outweighs several lower-tier or unranked sources.\n")
	b.WriteString("4. If the evidence is thin or conflicting, say so and prefer UNVERIFIED over guessing.\n")
	b.WriteString("5. End your reply with a fenced JSON block in exactly this form:\n\n")
	b.WriteString("```json\n")
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"verdict\": \"<one of %s>\",\n", strings.Join(verdicts, ", "))
	b.WriteString("  \"confidence\": <integer 0-100>,\n")
	b.WriteString("  \"explanation\": \"<two to four sentence explanation citing the strongest sources>\",\n")
	b.WriteString("  \"sources\": [{\"url\": \"<evidence url>\", \"stance\": \"supports|contradicts|neutral\"}]\n")
	b.WriteString("}\n")
	b.WriteString("```")
	return b.String()
}

// BuildUserPrompt renders the claim, the ranked evidence, and any media
// findings for the verdict model.
func BuildUserPrompt(claim string, evidence []model.EvidenceItem, media *model.MediaAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CLAIM: %s\n\n", claim)

	if len(evidence) == 0 {
		b.WriteString("EVIDENCE: No evidence was found for this claim.\n")
	} else {
		b.WriteString("EVIDENCE:\n")
		for i, item := range evidence {
			label := "Unranked"
			if item.TierInfo != nil {
				label = fmt.Sprintf("Tier %d - %s", item.TierInfo.Tier, item.TierInfo.Label)
			}
			fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, label, item.Title)
			fmt.Fprintf(&b, "    URL: %s\n", item.URL)
			fmt.Fprintf(&b, "    Snippet: %s\n", item.Snippet)
		}
	}

	if media != nil {
		b.WriteString("\nMEDIA ANALYSIS:\n")
		fmt.Fprintf(&b, "File: %s (%s)\n", media.Filename, media.Type)
		if media.AuthenticityScore != nil {
			fmt.Fprintf(&b, "Authenticity: %d%%\n", int(math.Round(*media.AuthenticityScore*100)))
		} else {
			b.WriteString("Authenticity: not assessed\n")
		}
		if len(media.DeepfakeIndicators) > 0 {
			fmt.Fprintf(&b, "Indicators: %s\n", strings.Join(media.DeepfakeIndicators, "; "))
		} else {
			b.WriteString("Indicators: none\n")
		}
		if media.Notes != "" {
			fmt.Fprintf(&b, "Notes: %s\n", media.Notes)
		}
	}

	return b.String()
}
