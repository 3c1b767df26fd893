// Package credibility ranks evidence sources by the trust tier of their domain.
package credibility

import (
	_ "embed"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/factcheck/internal/model"
)

// Unranked is the sort key used for sources that match no tier.
const Unranked = 99

// briefDomainLimit caps how many domains per tier appear in the prompt brief.
const briefDomainLimit = 8

// Tier is one row of the static credibility table.
type Tier struct {
	Tier       int      `yaml:"tier"`
	Label      string   `yaml:"label"`
	TrustLevel string   `yaml:"trust_level"`
	Weight     float64  `yaml:"weight"`
	Domains    []string `yaml:"domains"`
}

//go:embed tiers.yaml
var tiersYAML []byte

var tiers = mustLoadTiers(tiersYAML)

func mustLoadTiers(data []byte) []Tier {
	var doc struct {
		Tiers []Tier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		panic(fmt.Sprintf("credibility: parse tiers.yaml: %v", err))
	}
	sort.SliceStable(doc.Tiers, func(i, j int) bool { return doc.Tiers[i].Tier < doc.Tiers[j].Tier })
	return doc.Tiers
}

// Tiers returns a copy of the tier table in ascending tier order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		t.Domains = append([]string(nil), t.Domains...)
		out[i] = t
	}
	return out
}

// Classify returns the tier of rawURL's hostname, or nil when the URL is
// malformed or its domain is unranked.
func Classify(rawURL string) *model.TierInfo {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, t := range tiers {
		for _, domain := range t.Domains {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return &model.TierInfo{
					Tier:       t.Tier,
					Label:      t.Label,
					TrustLevel: t.TrustLevel,
					Weight:     t.Weight,
					Domain:     domain,
				}
			}
		}
	}
	return nil
}

// PriorityBrief renders the tier table as the source-priority section of the
// verdict prompt. The output depends only on the static table.
func PriorityBrief() string {
	var b strings.Builder
	b.WriteString("SOURCE PRIORITY (weigh evidence by tier):\n")
	for _, t := range tiers {
		domains := t.Domains
		more := ""
		if len(domains) > briefDomainLimit {
			domains = domains[:briefDomainLimit]
			more = ", ..."
		}
		fmt.Fprintf(&b, "Tier %d - %s (%s): %s%s\n", t.Tier, t.Label, t.TrustLevel, strings.Join(domains, ", "), more)
	}
	b.WriteString("Unranked sources (blogs, forums, social media, unknown sites) must be treated with caution and never outweigh tiered sources.")
	return b.String()
}

// Rank decorates every item with its tier and stable-sorts the items by tier,
// unranked last. The input slice is not modified.
func Rank(items []model.EvidenceItem) []model.EvidenceItem {
	ranked := make([]model.EvidenceItem, len(items))
	for i, item := range items {
		item.TierInfo = Classify(item.URL)
		ranked[i] = item
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return tierKey(ranked[i]) < tierKey(ranked[j])
	})
	return ranked
}

func tierKey(item model.EvidenceItem) int {
	if item.TierInfo == nil {
		return Unranked
	}
	return item.TierInfo.Tier
}
