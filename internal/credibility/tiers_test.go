package credibility

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factcheck/internal/model"
)

func TestTiers_Loaded(t *testing.T) {
	all := Tiers()
	require.Len(t, all, 4)

	wantWeights := []float64{1.0, 0.85, 0.65, 0.4}
	for i, tier := range all {
		assert.Equal(t, i+1, tier.Tier)
		assert.InDelta(t, wantWeights[i], tier.Weight, 1e-9)
		assert.NotEmpty(t, tier.Domains)
	}
}

func TestTiers_ReturnsCopy(t *testing.T) {
	all := Tiers()
	all[0].Domains[0] = "evil.example"
	assert.Equal(t, "who.int", Tiers()[0].Domains[0])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantTier   int
		wantDomain string
		wantNil    bool
	}{
		{name: "tier 1 with www", url: "https://www.who.int/x", wantTier: 1, wantDomain: "who.int"},
		{name: "tier 1 subdomain", url: "https://pubmed.ncbi.nlm.nih.gov/123", wantTier: 1, wantDomain: "nih.gov"},
		{name: "tier 2", url: "https://apnews.com/article/abc", wantTier: 2, wantDomain: "apnews.com"},
		{name: "tier 3 uppercase host", url: "https://WWW.BBC.CO.UK/news", wantTier: 3, wantDomain: "bbc.co.uk"},
		{name: "tier 4", url: "https://en.wikipedia.org/wiki/Moon", wantTier: 4, wantDomain: "wikipedia.org"},
		{name: "unknown domain", url: "https://example.com/page", wantNil: true},
		{name: "suffix without dot boundary", url: "https://notwho.int/page", wantNil: true},
		{name: "malformed", url: "http://[::1", wantNil: true},
		{name: "no host", url: "not a url", wantNil: true},
		{name: "empty", url: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.url)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Equal(t, tt.wantDomain, got.Domain)
		})
	}
}

func TestClassify_Tier1Weight(t *testing.T) {
	got := Classify("https://www.who.int/x")
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Tier)
	assert.InDelta(t, 1.0, got.Weight, 1e-9)
	assert.Equal(t, "Official & Scientific", got.Label)
}

func TestPriorityBrief(t *testing.T) {
	brief := PriorityBrief()

	assert.Equal(t, brief, PriorityBrief())
	for _, tier := range Tiers() {
		assert.Contains(t, brief, tier.Label)
		assert.Contains(t, brief, tier.TrustLevel)
	}

	lines := strings.Split(brief, "\n")
	require.Len(t, lines, 6)

	// Tier 1 lists more than eight domains, so it is elided.
	assert.True(t, strings.HasSuffix(lines[1], ", ..."))
	assert.NotContains(t, lines[1], "ipcc.ch")
	// Tier 4 fits entirely.
	assert.False(t, strings.HasSuffix(lines[4], ", ..."))
	assert.Contains(t, lines[5], "caution")
}

func TestRank_SortsByTierAndIsStable(t *testing.T) {
	items := []model.EvidenceItem{
		{URL: "https://blog.example.com/a", Title: "u1"},
		{URL: "https://en.wikipedia.org/wiki/X", Title: "t4"},
		{URL: "https://www.reuters.com/a", Title: "t2-first"},
		{URL: "https://who.int/a", Title: "t1"},
		{URL: "https://apnews.com/b", Title: "t2-second"},
		{URL: "https://another.example.org", Title: "u2"},
	}

	ranked := Rank(items)
	require.Len(t, ranked, len(items))

	var titles []string
	for _, item := range ranked {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"t1", "t2-first", "t2-second", "t4", "u1", "u2"}, titles)

	assert.Nil(t, ranked[4].TierInfo)
	require.NotNil(t, ranked[0].TierInfo)
	assert.Equal(t, 1, ranked[0].TierInfo.Tier)

	// Input untouched.
	assert.Nil(t, items[3].TierInfo)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
