// Package scorer combines verdict signals into a composite confidence score.
package scorer

import (
	"math"

	"github.com/sells-group/factcheck/internal/model"
)

// Signal weights. The no-media set redistributes the media share so that each
// set sums to 1.
const (
	weightAgreement = 0.35
	weightQuality   = 0.25
	weightAI        = 0.30
	weightMedia     = 0.10

	weightAgreementNoMedia = 0.39
	weightQualityNoMedia   = 0.28
	weightAINoMedia        = 0.33
)

// Recommendation thresholds, inclusive.
const (
	AuthenticThreshold   = 0.75
	NeedsReviewThreshold = 0.50
)

// Score combines the agreement, quality, model confidence, and optional media
// authenticity signals into a composite in [0,1]. Every input is clamped to
// [0,1] first; NaN counts as 0. The breakdown carries the clamped values.
func Score(agreement, quality, ai float64, media *float64) model.ConfidenceResult {
	a := clamp01(agreement)
	q := clamp01(quality)
	c := clamp01(ai)

	breakdown := model.ConfidenceBreakdown{
		SourceAgreement: a,
		SourceQuality:   q,
		AIConfidence:    c,
	}

	var score float64
	if media != nil {
		m := clamp01(*media)
		breakdown.MediaAuthenticity = &m
		score = weightAgreement*a + weightQuality*q + weightAI*c + weightMedia*m
	} else {
		score = weightAgreementNoMedia*a + weightQualityNoMedia*q + weightAINoMedia*c
	}

	score = round4(clamp01(score))
	return model.ConfidenceResult{
		Score:          score,
		Breakdown:      breakdown,
		Recommendation: Recommend(score),
	}
}

// Recommend maps a composite score to its recommendation.
func Recommend(score float64) model.Recommendation {
	switch {
	case score >= AuthenticThreshold:
		return model.RecommendationAuthentic
	case score >= NeedsReviewThreshold:
		return model.RecommendationNeedsReview
	default:
		return model.RecommendationDubious
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// round4 rounds half away from zero to four decimals.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
