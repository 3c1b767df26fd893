// Package media judges the authenticity of submitted images with a
// vision-capable chat model.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/monitoring"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/pkg/llm"
)

// DefaultTimeout bounds one vision call.
const DefaultTimeout = 2 * time.Minute

const (
	videoNote       = "Video analysis is not supported yet; no authenticity judgment was made."
	unsupportedNote = "Unsupported media type; no authenticity judgment was made."
)

// Analyzer runs the vision rubric against image files.
type Analyzer struct {
	client    llm.Client
	model     string
	timeout   time.Duration
	maxTokens int
	breaker   *resilience.Breaker
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTimeout sets the vision call timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(a *Analyzer) { a.maxTokens = n }
}

// WithBreaker routes vision calls through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(a *Analyzer) { a.breaker = b }
}

// NewAnalyzer creates an Analyzer that calls modelName through client.
func NewAnalyzer(client llm.Client, modelName string, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:  client,
		model:   modelName,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze returns the authenticity judgment for the file at path, or nil when
// path is empty. Failures never surface as errors: they produce a result with
// a nil score and the error text in Notes.
func (a *Analyzer) Analyze(ctx context.Context, path string) *model.MediaAnalysis {
	if path == "" {
		return nil
	}

	result := &model.MediaAnalysis{
		Filename:           filepath.Base(path),
		Type:               ClassifyFile(path),
		DeepfakeIndicators: []string{},
	}

	switch result.Type {
	case model.MediaTypeVideo:
		result.Notes = videoNote
		return result
	case model.MediaTypeUnknown:
		result.Notes = unsupportedNote
		return result
	}

	raw, err := a.inspect(ctx, path)
	if err != nil {
		class := resilience.Classify(err)
		zap.L().Warn("media: analysis failed",
			zap.String("file", result.Filename),
			zap.String("error_class", class),
			zap.Error(err),
		)
		monitoring.RecordSoftFailure("vision", class)
		result.Notes = fmt.Sprintf("Media analysis failed: %v", err)
		return result
	}

	result.AuthenticityScore, result.DeepfakeIndicators, result.Notes = ParseMediaResponse(raw)
	return result
}

func (a *Analyzer) inspect(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrap(err, "media: read file")
	}
	if a.client == nil {
		return "", eris.New("media: vision model not configured")
	}

	req := llm.Request{
		Model:        a.model,
		System:       SystemPrompt,
		User:         userPrompt,
		ImageDataURL: DataURL(mimeType(path), data),
		MaxTokens:    a.maxTokens,
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	call := func(ctx context.Context) (*llm.Response, error) {
		return a.client.Complete(ctx, req)
	}
	var resp *llm.Response
	if a.breaker != nil {
		resp, err = resilience.Call(ctx, a.breaker, call)
	} else {
		resp, err = call(ctx)
	}
	if err != nil {
		return "", eris.Wrap(err, "media: vision call")
	}
	return resp.Content, nil
}

// DataURL encodes data as a base64 data URL with the given MIME type.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
