// Package verdict asks a language model to rate a claim against its evidence
// and parses the reply.
package verdict

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/pkg/llm"
)

// DefaultTimeout bounds one verdict call.
const DefaultTimeout = 2 * time.Minute

// sentinels are formatting tokens some gateway models leak into replies.
var sentinels = strings.NewReplacer("<|begin_of_box|>", "", "<|end_of_box|>", "")

// Generator produces raw verdict replies.
type Generator struct {
	client    llm.Client
	model     string
	timeout   time.Duration
	maxTokens int
	breaker   *resilience.Breaker
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout sets the verdict call timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// WithBreaker routes verdict calls through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(g *Generator) { g.breaker = b }
}

// NewGenerator creates a Generator that calls modelName through client.
func NewGenerator(client llm.Client, modelName string, opts ...Option) *Generator {
	g := &Generator{
		client:  client,
		model:   modelName,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate returns the model's reply for claim with sentinel tokens removed.
// A non-nil error means no usable reply; callers fall back to a default
// verdict.
func (g *Generator) Generate(ctx context.Context, claim string, evidence []model.EvidenceItem, media *model.MediaAnalysis) (string, error) {
	if g.client == nil {
		return "", eris.New("verdict: model not configured")
	}

	req := llm.Request{
		Model:     g.model,
		System:    BuildSystemPrompt(),
		User:      BuildUserPrompt(claim, evidence, media),
		MaxTokens: g.maxTokens,
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	call := func(ctx context.Context) (*llm.Response, error) {
		return g.client.Complete(ctx, req)
	}
	var (
		resp *llm.Response
		err  error
	)
	if g.breaker != nil {
		resp, err = resilience.Call(ctx, g.breaker, call)
	} else {
		resp, err = call(ctx)
	}
	if err != nil {
		return "", eris.Wrap(err, "verdict: model call")
	}

	zap.L().Debug("verdict: reply received",
		zap.String("model", resp.Model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	return sentinels.Replace(resp.Content), nil
}
