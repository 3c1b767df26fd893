package model

// EvidenceItem is a single search result gathered for a claim. TierInfo is
// nil until the credibility assessor ranks the item, and stays nil for
// unranked domains.
type EvidenceItem struct {
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Snippet  string    `json:"snippet"`
	Source   string    `json:"source"`
	TierInfo *TierInfo `json:"tier_info,omitempty"`
}

// TierInfo describes the credibility tier a source domain belongs to.
type TierInfo struct {
	Tier       int     `json:"tier"`
	Label      string  `json:"label"`
	TrustLevel string  `json:"trust_level"`
	Weight     float64 `json:"weight"`
	Domain     string  `json:"domain"`
}

// MediaType classifies a submitted media file.
type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeUnknown MediaType = "unknown"
)

// MediaAnalysis is the authenticity judgment for a submitted file. A nil
// AuthenticityScore means no judgment is available, which is distinct from a
// judgment of 0.
type MediaAnalysis struct {
	Filename           string    `json:"filename"`
	Type               MediaType `json:"type"`
	DeepfakeIndicators []string  `json:"deepfake_indicators"`
	AuthenticityScore  *float64  `json:"authenticity_score"`
	Notes              string    `json:"notes"`
}
