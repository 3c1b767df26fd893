// Package pipeline runs a claim through normalization, evidence gathering,
// media analysis, verdict generation and scoring, checkpointing progress to
// the status store after each stage.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/internal/store"
)

// Gatherer collects web evidence for a claim. It never fails; an empty slice
// means no evidence.
type Gatherer interface {
	Gather(ctx context.Context, claim string) []model.EvidenceItem
}

// Analyzer judges a media file. It returns nil when there is nothing to judge.
type Analyzer interface {
	Analyze(ctx context.Context, path string) *model.MediaAnalysis
}

// Generator produces the raw verdict reply. An error selects the default
// verdict.
type Generator interface {
	Generate(ctx context.Context, claim string, evidence []model.EvidenceItem, media *model.MediaAnalysis) (string, error)
}

// Pipeline orchestrates one analysis per Submit or Run call. It is safe for
// concurrent use; analyses share nothing but the store.
type Pipeline struct {
	store    store.Store
	evidence Gatherer
	media    Analyzer
	verdict  Generator
	retry    resilience.RetryConfig
	now      func() time.Time
	newID    func() string

	runs sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStoreRetry sets the retry policy for status-store writes.
func WithStoreRetry(cfg resilience.RetryConfig) Option {
	return func(p *Pipeline) { p.retry = cfg }
}

// New creates a Pipeline.
func New(st store.Store, ev Gatherer, ma Analyzer, vg Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    st,
		evidence: ev,
		media:    ma,
		verdict:  vg,
		retry:    resilience.DefaultRetryConfig(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Submit records a new analysis as queued and runs it in the background. The
// run is detached from ctx's cancellation: once submitted, an analysis always
// reaches a terminal state.
func (p *Pipeline) Submit(ctx context.Context, claimText, mediaPath string) (string, error) {
	id := p.newID()
	now := p.now().UTC()
	rec := model.AnalysisRecord{
		ID:              id,
		Status:          model.AnalysisStatusProcessing,
		ProgressMessage: "Queued",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := p.save(ctx, rec); err != nil {
		return "", eris.Wrap(err, "pipeline: create analysis")
	}

	zap.L().Info("pipeline: analysis submitted",
		zap.String("analysis_id", id),
		zap.Bool("has_media", mediaPath != ""),
	)

	runCtx := context.WithoutCancel(ctx)
	p.runs.Add(1)
	go func() {
		defer p.runs.Done()
		_, _ = p.Run(runCtx, id, claimText, mediaPath)
	}()
	return id, nil
}

// Wait blocks until every analysis started by Submit has reached a terminal
// state, or ctx is done. Call it before closing the store.
func (p *Pipeline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "pipeline: wait for running analyses")
	}
}

// Status returns the poll view of an analysis.
func (p *Pipeline) Status(ctx context.Context, id string) (*model.StatusView, error) {
	rec, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := rec.View()
	return &view, nil
}

// Result returns the full record of an analysis. Callers inspect Status to
// tell a finished result from an in-progress or failed one.
func (p *Pipeline) Result(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	return p.store.Get(ctx, id)
}

// save writes rec, retrying transient store errors.
func (p *Pipeline) save(ctx context.Context, rec model.AnalysisRecord) error {
	return resilience.Do(ctx, p.retry, "store.save", func(ctx context.Context) error {
		return p.store.Save(ctx, rec)
	})
}

// ErrInProgress is returned by Delete for an analysis that is still running.
var ErrInProgress = eris.New("pipeline: analysis still in progress")

// Delete removes a finished analysis. Running analyses cannot be deleted.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	rec, err := p.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !rec.Status.IsTerminal() {
		return ErrInProgress
	}
	return p.store.Delete(ctx, id)
}
