// Package model defines the records that flow through a fact-check analysis.
package model

import "time"

// AnalysisStatus represents the lifecycle state of an analysis.
type AnalysisStatus string

const (
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusComplete   AnalysisStatus = "complete"
	AnalysisStatusError      AnalysisStatus = "error"
)

// IsTerminal reports whether no further transitions are allowed.
func (s AnalysisStatus) IsTerminal() bool {
	return s == AnalysisStatusComplete || s == AnalysisStatusError
}

// InputType describes what the caller submitted.
type InputType string

const (
	InputTypeText      InputType = "text"
	InputTypeImage     InputType = "image"
	InputTypeVideo     InputType = "video"
	InputTypeTextMedia InputType = "text+media"
)

// ClaimKind records whether a claim was phrased as a question.
type ClaimKind string

const (
	ClaimKindStatement ClaimKind = "statement"
	ClaimKindQuestion  ClaimKind = "question"
)

// AnalysisRecord is the status-store entry for one submitted claim/media pair.
// Result is set iff Status is complete; Error is set iff Status is error.
type AnalysisRecord struct {
	ID              string           `json:"id"`
	Status          AnalysisStatus   `json:"status"`
	Progress        int              `json:"progress"`
	ProgressMessage string           `json:"progress_message"`
	Result          *FactCheckResult `json:"result,omitempty"`
	Error           string           `json:"error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CanTransition reports whether next may replace r without breaking the
// monotonic status and progress invariants.
func (r *AnalysisRecord) CanTransition(next AnalysisRecord) bool {
	if r == nil {
		return true
	}
	if r.Status.IsTerminal() {
		return false
	}
	if next.Status == AnalysisStatusProcessing && next.Progress < r.Progress {
		return false
	}
	return true
}

// StatusView is the poll response: the record without its payload.
type StatusView struct {
	ID              string         `json:"id"`
	Status          AnalysisStatus `json:"status"`
	Progress        int            `json:"progress"`
	ProgressMessage string         `json:"progress_message"`
}

// View returns the poll snapshot of r.
func (r *AnalysisRecord) View() StatusView {
	return StatusView{
		ID:              r.ID,
		Status:          r.Status,
		Progress:        r.Progress,
		ProgressMessage: r.ProgressMessage,
	}
}

// FactCheckResult is the final verdict record assembled by the pipeline.
type FactCheckResult struct {
	Claim          string            `json:"claim"`
	ClaimKind      ClaimKind         `json:"claim_kind"`
	Verdict        Verdict           `json:"verdict"`
	Explanation    string            `json:"explanation"`
	Confidence     ConfidenceResult  `json:"confidence"`
	Evidence       []AnnotatedSource `json:"evidence"`
	MediaAnalysis  *MediaAnalysis    `json:"media_analysis"`
	Recommendation Recommendation    `json:"recommendation"`
	InputType      InputType         `json:"input_type"`
	Timestamp      time.Time         `json:"timestamp"`
}

// AnnotatedSource is an evidence item joined with its tier and the stance the
// verdict generator assigned to it.
type AnnotatedSource struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet"`
	Source    string `json:"source"`
	Tier      *int   `json:"tier"`
	TierLabel string `json:"tier_label,omitempty"`
	Stance    Stance `json:"stance"`
}
