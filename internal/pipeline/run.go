package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/factcheck/internal/claim"
	"github.com/sells-group/factcheck/internal/credibility"
	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/monitoring"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/internal/scorer"
	"github.com/sells-group/factcheck/internal/store"
	"github.com/sells-group/factcheck/internal/verdict"
)

// Progress checkpoints.
const (
	ProgressNormalized = 10
	ProgressGathering  = 20
	ProgressGathered   = 60
	ProgressAssessed   = 70
	ProgressVerdict    = 80
	ProgressScored     = 90
	ProgressComplete   = 100
)

const unavailableExplanation = "Automated verdict generation was unavailable, so the claim could not be verified against the gathered evidence."

// run is the mutable state of one analysis.
type run struct {
	log *zap.Logger
	rec model.AnalysisRecord
}

// Run executes one analysis synchronously and returns its result. Progress is
// checkpointed to the store under id; a record is created if none exists.
// Collaborator failures degrade to defaults. Only store failures and
// panics in the orchestration itself end the analysis in the error state.
func (p *Pipeline) Run(ctx context.Context, id, claimText, mediaPath string) (result *model.FactCheckResult, err error) {
	r := &run{log: zap.L().With(zap.String("analysis_id", id))}
	r.rec = p.initialRecord(ctx, id)

	defer monitoring.TrackInFlight()()
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = eris.Errorf("pipeline: panic: %v", rec)
		}
		if err != nil {
			p.fail(ctx, r, err)
		}
	}()

	r.log.Info("pipeline: starting analysis")
	start := time.Now()

	result, err = p.execute(ctx, r, claimText, mediaPath)
	if err != nil {
		return nil, err
	}

	r.log.Info("pipeline: analysis complete",
		zap.String("verdict", string(result.Verdict)),
		zap.Float64("confidence", result.Confidence.Score),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run, claimText, mediaPath string) (*model.FactCheckResult, error) {
	normalized := claim.Normalize(claimText)
	kind := model.ClaimKindStatement
	if claim.IsQuestion(normalized) {
		kind = model.ClaimKindQuestion
	}
	if err := p.checkpoint(ctx, r, ProgressNormalized, "Claim normalized"); err != nil {
		return nil, err
	}

	if err := p.checkpoint(ctx, r, ProgressGathering, "Gathering evidence"); err != nil {
		return nil, err
	}
	evidence, media := p.gather(ctx, r, normalized, mediaPath)
	if err := p.checkpoint(ctx, r, ProgressGathered, "Evidence gathered"); err != nil {
		return nil, err
	}

	ranked := credibility.Rank(evidence)
	quality := SourceQuality(ranked)
	if err := p.checkpoint(ctx, r, ProgressAssessed, "Sources assessed"); err != nil {
		return nil, err
	}

	parsed := p.generate(ctx, r, normalized, ranked, media)
	if err := p.checkpoint(ctx, r, ProgressVerdict, "Verdict generated"); err != nil {
		return nil, err
	}

	var mediaScore *float64
	if media != nil {
		mediaScore = media.AuthenticityScore
	}
	confidence := scorer.Score(SourceAgreement(parsed.Sources), quality, parsed.Confidence, mediaScore)
	if err := p.checkpoint(ctx, r, ProgressScored, "Confidence calculated"); err != nil {
		return nil, err
	}

	result := &model.FactCheckResult{
		Claim:          normalized,
		ClaimKind:      kind,
		Verdict:        parsed.Verdict,
		Explanation:    parsed.Explanation,
		Confidence:     confidence,
		Evidence:       Annotate(ranked, parsed.Sources),
		MediaAnalysis:  media,
		Recommendation: confidence.Recommendation,
		InputType:      InputTypeFor(normalized, mediaPath),
		Timestamp:      p.now().UTC(),
	}

	r.rec.Status = model.AnalysisStatusComplete
	r.rec.Progress = ProgressComplete
	r.rec.ProgressMessage = "Complete"
	r.rec.Result = result
	r.rec.UpdatedAt = p.now().UTC()
	if err := p.save(ctx, r.rec); err != nil {
		return nil, eris.Wrap(err, "pipeline: save result")
	}
	monitoring.RecordAnalysis(string(model.AnalysisStatusComplete))
	return result, nil
}

// gather runs evidence gathering and media analysis concurrently. Neither
// branch can fail the other: a panic in either is recovered into its default.
func (p *Pipeline) gather(ctx context.Context, r *run, claimText, mediaPath string) ([]model.EvidenceItem, *model.MediaAnalysis) {
	start := time.Now()
	defer monitoring.ObserveStage("gather", start)

	evidence := []model.EvidenceItem{}
	var media *model.MediaAnalysis

	g, gctx := errgroup.WithContext(ctx)
	if claimText != "" {
		g.Go(func() error {
			defer recoverSoft(r.log, "search", func() { evidence = []model.EvidenceItem{} })
			if items := p.evidence.Gather(gctx, claimText); items != nil {
				evidence = items
			}
			return nil
		})
	}
	if mediaPath != "" && p.media != nil {
		g.Go(func() error {
			defer recoverSoft(r.log, "vision", func() { media = nil })
			media = p.media.Analyze(gctx, mediaPath)
			return nil
		})
	}
	_ = g.Wait()

	r.log.Debug("pipeline: evidence gathered",
		zap.Int("evidence_items", len(evidence)),
		zap.Bool("media_analyzed", media != nil),
	)
	return evidence, media
}

// generate asks for a verdict and parses it, substituting the default
// verdict when generation fails.
func (p *Pipeline) generate(ctx context.Context, r *run, claimText string, evidence []model.EvidenceItem, media *model.MediaAnalysis) model.ParsedVerdict {
	start := time.Now()
	defer monitoring.ObserveStage("verdict", start)

	raw, err := p.verdict.Generate(ctx, claimText, evidence, media)
	if err != nil {
		class := resilience.Classify(err)
		r.log.Warn("pipeline: verdict generation failed, using default",
			zap.String("error_class", class),
			zap.Error(err),
		)
		monitoring.RecordSoftFailure("verdict", class)
		return DefaultVerdict()
	}
	return verdict.Parse(raw)
}

// DefaultVerdict is used when the verdict model gives no usable reply.
func DefaultVerdict() model.ParsedVerdict {
	return model.ParsedVerdict{
		Verdict:     model.VerdictUnverified,
		Confidence:  0.5,
		Explanation: unavailableExplanation,
		Sources:     []model.SourceStance{},
	}
}

func (p *Pipeline) checkpoint(ctx context.Context, r *run, progress int, msg string) error {
	r.rec.Progress = progress
	r.rec.ProgressMessage = msg
	r.rec.UpdatedAt = p.now().UTC()
	if err := p.save(ctx, r.rec); err != nil {
		return eris.Wrapf(err, "pipeline: checkpoint %d", progress)
	}
	r.log.Debug("pipeline: checkpoint", zap.Int("progress", progress), zap.String("message", msg))
	return nil
}

// fail moves the analysis to the error state. The write is best effort: a
// store that rejected a checkpoint may reject this too.
func (p *Pipeline) fail(ctx context.Context, r *run, cause error) {
	r.log.Error("pipeline: analysis failed", zap.Error(cause))
	monitoring.RecordAnalysis(string(model.AnalysisStatusError))

	r.rec.Status = model.AnalysisStatusError
	r.rec.Error = cause.Error()
	r.rec.Result = nil
	r.rec.UpdatedAt = p.now().UTC()
	if err := p.save(ctx, r.rec); err != nil && !errors.Is(err, store.ErrStaleWrite) {
		r.log.Error("pipeline: failed to record error state", zap.Error(err))
	}
}

// initialRecord returns the stored record for id, or a fresh processing
// record when there is none.
func (p *Pipeline) initialRecord(ctx context.Context, id string) model.AnalysisRecord {
	if rec, err := p.store.Get(ctx, id); err == nil {
		return *rec
	}
	now := p.now().UTC()
	return model.AnalysisRecord{
		ID:              id,
		Status:          model.AnalysisStatusProcessing,
		ProgressMessage: "Queued",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func recoverSoft(log *zap.Logger, collaborator string, reset func()) {
	if rec := recover(); rec != nil {
		log.Error("pipeline: collaborator panicked",
			zap.String("collaborator", collaborator),
			zap.String("panic", fmt.Sprint(rec)),
		)
		monitoring.RecordSoftFailure(collaborator, monitoring.ClassPanic)
		reset()
	}
}
