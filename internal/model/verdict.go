package model

// Verdict is the rating assigned to a claim.
type Verdict string

const (
	VerdictTrue        Verdict = "TRUE"
	VerdictFalse       Verdict = "FALSE"
	VerdictMostlyTrue  Verdict = "MOSTLY_TRUE"
	VerdictMostlyFalse Verdict = "MOSTLY_FALSE"
	VerdictMisleading  Verdict = "MISLEADING"
	VerdictUnverified  Verdict = "UNVERIFIED"
	VerdictSatire      Verdict = "SATIRE"
	VerdictOpinion     Verdict = "OPINION"
)

// Verdicts lists every valid verdict in prompt order.
var Verdicts = []Verdict{
	VerdictTrue, VerdictFalse, VerdictMostlyTrue, VerdictMostlyFalse,
	VerdictMisleading, VerdictUnverified, VerdictSatire, VerdictOpinion,
}

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	for _, known := range Verdicts {
		if v == known {
			return true
		}
	}
	return false
}

// Stance is a source's relation to the claim.
type Stance string

const (
	StanceSupports    Stance = "supports"
	StanceContradicts Stance = "contradicts"
	StanceNeutral     Stance = "neutral"
)

// SourceStance pairs a cited URL with the stance the model assigned it.
type SourceStance struct {
	URL    string `json:"url"`
	Stance Stance `json:"stance"`
}

// ParsedVerdict is the structured form of the verdict model's reply.
type ParsedVerdict struct {
	Verdict     Verdict        `json:"verdict"`
	Confidence  float64        `json:"confidence"`
	Explanation string         `json:"explanation"`
	Sources     []SourceStance `json:"sources"`
}

// Recommendation is the coarse action derived from the composite score.
type Recommendation string

const (
	RecommendationAuthentic   Recommendation = "AUTHENTIC"
	RecommendationNeedsReview Recommendation = "NEEDS_REVIEW"
	RecommendationDubious     Recommendation = "DUBIOUS"
)

// ConfidenceBreakdown holds the clamped input signals of a score.
type ConfidenceBreakdown struct {
	SourceAgreement   float64  `json:"source_agreement"`
	SourceQuality     float64  `json:"source_quality"`
	AIConfidence      float64  `json:"ai_confidence"`
	MediaAuthenticity *float64 `json:"media_authenticity"`
}

// ConfidenceResult is the composite confidence score.
type ConfidenceResult struct {
	Score          float64             `json:"score"`
	Breakdown      ConfidenceBreakdown `json:"breakdown"`
	Recommendation Recommendation      `json:"recommendation"`
}
