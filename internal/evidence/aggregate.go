// Package evidence gathers web evidence for a claim from a search provider.
package evidence

import (
	"context"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/monitoring"
	"github.com/sells-group/factcheck/internal/resilience"
)

// TrustedSiteFilter restricts the third query to fact-checkers and wire
// services.
const TrustedSiteFilter = "site:snopes.com OR site:politifact.com OR site:factcheck.org OR site:reuters.com OR site:apnews.com"

// DefaultTimeout bounds each individual search query.
const DefaultTimeout = 15 * time.Second

const maxSnippetLen = 500

// Queries returns the three query variants issued for a claim, in merge order.
func Queries(claim string) []string {
	return []string{
		claim,
		claim + " fact check",
		claim + " " + TrustedSiteFilter,
	}
}

// Aggregator fans a claim out to three search queries and merges the results.
type Aggregator struct {
	searcher Searcher
	timeout  time.Duration
	breaker  *resilience.Breaker
	policy   *bluemonday.Policy
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-query timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithBreaker routes every query through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(a *Aggregator) { a.breaker = b }
}

// NewAggregator creates an Aggregator. A nil searcher means no search API key
// is configured; Gather then returns no evidence.
func NewAggregator(s Searcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		searcher: s,
		timeout:  DefaultTimeout,
		policy:   bluemonday.StrictPolicy(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Gather runs the three query variants concurrently and returns the merged,
// URL-deduplicated results. It never fails: a failed query contributes
// nothing.
func (a *Aggregator) Gather(ctx context.Context, claim string) []model.EvidenceItem {
	log := zap.L().With(zap.String("component", "evidence"))

	if a.searcher == nil {
		log.Warn("evidence: search API key not configured, skipping search")
		monitoring.RecordSoftFailure("search", monitoring.ClassUnconfigured)
		return []model.EvidenceItem{}
	}

	queries := Queries(claim)
	results := make([][]model.EvidenceItem, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			items, err := a.search(gctx, q)
			if err != nil {
				class := resilience.Classify(err)
				log.Warn("evidence: search failed",
					zap.Int("query_index", i),
					zap.String("error_class", class),
					zap.Error(err),
				)
				monitoring.RecordSoftFailure("search", class)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	merged := Merge(results...)
	for i := range merged {
		merged[i] = a.clean(merged[i])
	}

	log.Debug("evidence: gathered",
		zap.Int("items", len(merged)),
	)
	return merged
}

func (a *Aggregator) search(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if a.breaker == nil {
		return a.searcher.Search(ctx, query)
	}
	return resilience.Call(ctx, a.breaker, func(ctx context.Context) ([]model.EvidenceItem, error) {
		return a.searcher.Search(ctx, query)
	})
}

func (a *Aggregator) clean(item model.EvidenceItem) model.EvidenceItem {
	item.Title = a.plain(item.Title)
	item.Snippet = truncate(a.plain(item.Snippet), maxSnippetLen)
	if item.Source == "" {
		item.Source = Hostname(item.URL)
	}
	return item
}

// plain strips markup and decodes the entities the sanitizer leaves behind.
func (a *Aggregator) plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(a.policy.Sanitize(s)))
}

// Merge flattens lists in order and drops every item whose URL was already
// seen. The first occurrence wins.
func Merge(lists ...[]model.EvidenceItem) []model.EvidenceItem {
	seen := make(map[string]struct{})
	out := make([]model.EvidenceItem, 0)
	for _, list := range lists {
		for _, item := range list {
			if _, ok := seen[item.URL]; ok {
				continue
			}
			seen[item.URL] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// Hostname returns the host of rawURL without a leading "www.", or "" when the
// URL cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
