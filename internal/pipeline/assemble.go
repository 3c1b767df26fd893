package pipeline

import (
	"github.com/sells-group/factcheck/internal/media"
	"github.com/sells-group/factcheck/internal/model"
)

const (
	defaultAgreement = 0.5
	defaultQuality   = 0.3
)

// SourceAgreement is the share of supporting stances among sources that took
// a side. With no supporting or contradicting source it is 0.5.
func SourceAgreement(sources []model.SourceStance) float64 {
	var supports, contradicts int
	for _, s := range sources {
		switch s.Stance {
		case model.StanceSupports:
			supports++
		case model.StanceContradicts:
			contradicts++
		}
	}
	if supports+contradicts == 0 {
		return defaultAgreement
	}
	return float64(supports) / float64(supports+contradicts)
}

// SourceQuality is the mean tier weight of tiered evidence, or 0.3 when no
// item is tiered.
func SourceQuality(evidence []model.EvidenceItem) float64 {
	var sum float64
	var n int
	for _, e := range evidence {
		if e.TierInfo == nil {
			continue
		}
		sum += e.TierInfo.Weight
		n++
	}
	if n == 0 {
		return defaultQuality
	}
	return sum / float64(n)
}

// Annotate joins ranked evidence with the stance the verdict assigned to each
// URL. Unmentioned URLs are neutral.
func Annotate(evidence []model.EvidenceItem, sources []model.SourceStance) []model.AnnotatedSource {
	stances := make(map[string]model.Stance, len(sources))
	for _, s := range sources {
		if _, ok := stances[s.URL]; !ok {
			stances[s.URL] = s.Stance
		}
	}

	out := make([]model.AnnotatedSource, 0, len(evidence))
	for _, e := range evidence {
		a := model.AnnotatedSource{
			Title:   e.Title,
			URL:     e.URL,
			Snippet: e.Snippet,
			Source:  e.Source,
			Stance:  model.StanceNeutral,
		}
		if st, ok := stances[e.URL]; ok {
			a.Stance = st
		}
		if e.TierInfo != nil {
			tier := e.TierInfo.Tier
			a.Tier = &tier
			a.TierLabel = e.TierInfo.Label
		}
		out = append(out, a)
	}
	return out
}

// InputTypeFor describes what was submitted. Media with a claim is
// text+media; media alone is video or image, with unrecognized files counted
// as image.
func InputTypeFor(claimText, mediaPath string) model.InputType {
	if mediaPath == "" {
		return model.InputTypeText
	}
	if claimText != "" {
		return model.InputTypeTextMedia
	}
	if media.ClassifyFile(mediaPath) == model.MediaTypeVideo {
		return model.InputTypeVideo
	}
	return model.InputTypeImage
}
