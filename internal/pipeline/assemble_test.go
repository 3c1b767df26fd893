package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factcheck/internal/model"
)

func TestSourceAgreement(t *testing.T) {
	tests := []struct {
		name    string
		sources []model.SourceStance
		want    float64
	}{
		{"none", nil, 0.5},
		{"only neutral", []model.SourceStance{{URL: "a", Stance: model.StanceNeutral}}, 0.5},
		{"all supporting", []model.SourceStance{{URL: "a", Stance: model.StanceSupports}}, 1},
		{"all contradicting", []model.SourceStance{{URL: "a", Stance: model.StanceContradicts}}, 0},
		{"mixed", []model.SourceStance{
			{URL: "a", Stance: model.StanceSupports},
			{URL: "b", Stance: model.StanceSupports},
			{URL: "c", Stance: model.StanceContradicts},
			{URL: "d", Stance: model.StanceNeutral},
		}, 2.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SourceAgreement(tt.sources), 1e-9)
		})
	}
}

func TestSourceQuality(t *testing.T) {
	assert.InDelta(t, 0.3, SourceQuality(nil), 1e-9)
	assert.InDelta(t, 0.3, SourceQuality([]model.EvidenceItem{{URL: "https://x.example"}}), 1e-9)

	items := []model.EvidenceItem{
		{URL: "a", TierInfo: &model.TierInfo{Tier: 1, Weight: 1.0}},
		{URL: "b", TierInfo: &model.TierInfo{Tier: 3, Weight: 0.5}},
		{URL: "c"},
	}
	assert.InDelta(t, 0.75, SourceQuality(items), 1e-9)
}

func TestAnnotate(t *testing.T) {
	items := []model.EvidenceItem{
		{Title: "T1", URL: "https://a.example", Source: "a.example", TierInfo: &model.TierInfo{Tier: 2, Label: "Wire"}},
		{Title: "T2", URL: "https://b.example", Source: "b.example"},
	}
	sources := []model.SourceStance{
		{URL: "https://a.example", Stance: model.StanceContradicts},
		{URL: "https://a.example", Stance: model.StanceSupports},
		{URL: "https://unlisted.example", Stance: model.StanceSupports},
	}

	got := Annotate(items, sources)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Tier)
	assert.Equal(t, 2, *got[0].Tier)
	assert.Equal(t, "Wire", got[0].TierLabel)
	assert.Equal(t, model.StanceContradicts, got[0].Stance)
	assert.Nil(t, got[1].Tier)
	assert.Equal(t, model.StanceNeutral, got[1].Stance)
}

func TestAnnotate_Empty(t *testing.T) {
	got := Annotate(nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestInputTypeFor(t *testing.T) {
	tests := []struct {
		claim, path string
		want        model.InputType
	}{
		{"claim", "", model.InputTypeText},
		{"", "", model.InputTypeText},
		{"claim", "/up/x.png", model.InputTypeTextMedia},
		{"claim", "/up/x.mp4", model.InputTypeTextMedia},
		{"", "/up/x.mp4", model.InputTypeVideo},
		{"", "/up/x.jpg", model.InputTypeImage},
		{"", "/up/x.bin", model.InputTypeImage},
	}
	for _, tt := range tests {
		t.Run(tt.claim+"|"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, InputTypeFor(tt.claim, tt.path))
		})
	}
}

func TestDefaultVerdict(t *testing.T) {
	v := DefaultVerdict()
	assert.Equal(t, model.VerdictUnverified, v.Verdict)
	assert.InDelta(t, 0.5, v.Confidence, 1e-9)
	assert.NotNil(t, v.Sources)
}
