package evidence

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/pkg/brave"
	"github.com/sells-group/factcheck/pkg/jina"
)

// Searcher runs one web query and returns raw evidence items. Items carry the
// provider's title, URL and snippet; the aggregator fills in Source and strips
// markup.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.EvidenceItem, error)
}

// BraveSearcher adapts the Brave Search client.
type BraveSearcher struct {
	client brave.Client
}

// NewBraveSearcher wraps a Brave client as a Searcher.
func NewBraveSearcher(client brave.Client) *BraveSearcher {
	return &BraveSearcher{client: client}
}

// Search implements Searcher.
func (s *BraveSearcher) Search(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	resp, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "evidence: brave search")
	}
	items := make([]model.EvidenceItem, 0, len(resp.Web.Results))
	for _, r := range resp.Web.Results {
		items = append(items, model.EvidenceItem{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
	}
	return items, nil
}

// JinaSearcher adapts the Jina AI Search client.
type JinaSearcher struct {
	client jina.Client
}

// NewJinaSearcher wraps a Jina client as a Searcher.
func NewJinaSearcher(client jina.Client) *JinaSearcher {
	return &JinaSearcher{client: client}
}

// Search implements Searcher. Jina returns page content as well as a
// description; the description is preferred as the snippet.
func (s *JinaSearcher) Search(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	resp, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "evidence: jina search")
	}
	items := make([]model.EvidenceItem, 0, len(resp.Data))
	for _, r := range resp.Data {
		snippet := r.Description
		if snippet == "" {
			snippet = truncate(r.Content, maxSnippetLen)
		}
		items = append(items, model.EvidenceItem{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: snippet,
		})
	}
	return items, nil
}

// limitedSearcher throttles an inner Searcher with a token bucket shared by
// every analysis in the process.
type limitedSearcher struct {
	inner   Searcher
	limiter *rate.Limiter
}

// RateLimited wraps s so that at most perSec queries start per second, with
// the given burst. A non-positive perSec returns s unchanged.
func RateLimited(s Searcher, perSec float64, burst int) Searcher {
	if perSec <= 0 {
		return s
	}
	if burst < 1 {
		burst = 1
	}
	return &limitedSearcher{
		inner:   s,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

func (l *limitedSearcher) Search(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "evidence: rate limit wait")
	}
	return l.inner.Search(ctx, query)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
