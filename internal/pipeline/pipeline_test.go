package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/resilience"
	"github.com/sells-group/factcheck/internal/scorer"
	"github.com/sells-group/factcheck/internal/store"
)

const verdictReply = "Assessment follows.\n```json\n" + `{
  "verdict": "true",
  "confidence": 90,
  "explanation": "Health agencies confirm the claim.",
  "sources": [
    {"url": "https://www.who.int/news/item/1", "stance": "supports"},
    {"url": "https://www.reuters.com/world/2", "stance": "supports"},
    {"url": "https://blog.example.net/post", "stance": "contradicts"}
  ]
}` + "\n```"

func sampleEvidence() []model.EvidenceItem {
	return []model.EvidenceItem{
		{Title: "Blog post", URL: "https://blog.example.net/post", Snippet: "A dissenting view.", Source: "blog.example.net"},
		{Title: "Reuters report", URL: "https://www.reuters.com/world/2", Snippet: "Wire coverage.", Source: "reuters.com"},
		{Title: "WHO statement", URL: "https://www.who.int/news/item/1", Snippet: "Official guidance.", Source: "who.int"},
	}
}

type gathererFunc func(ctx context.Context, claim string) []model.EvidenceItem

func (f gathererFunc) Gather(ctx context.Context, claim string) []model.EvidenceItem {
	return f(ctx, claim)
}

type analyzerFunc func(ctx context.Context, path string) *model.MediaAnalysis

func (f analyzerFunc) Analyze(ctx context.Context, path string) *model.MediaAnalysis {
	return f(ctx, path)
}

type generatorFunc func(ctx context.Context, claim string, ev []model.EvidenceItem, m *model.MediaAnalysis) (string, error)

func (f generatorFunc) Generate(ctx context.Context, claim string, ev []model.EvidenceItem, m *model.MediaAnalysis) (string, error) {
	return f(ctx, claim, ev, m)
}

func staticGatherer(items []model.EvidenceItem) Gatherer {
	return gathererFunc(func(context.Context, string) []model.EvidenceItem { return items })
}

func staticGenerator(reply string) Generator {
	return generatorFunc(func(context.Context, string, []model.EvidenceItem, *model.MediaAnalysis) (string, error) {
		return reply, nil
	})
}

func unusedAnalyzer(t *testing.T) Analyzer {
	return analyzerFunc(func(context.Context, string) *model.MediaAnalysis {
		t.Error("media analyzer should not be called")
		return nil
	})
}

// recordingStore remembers every accepted write.
type recordingStore struct {
	*store.MemoryStore
	mu     sync.Mutex
	writes []model.AnalysisRecord
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: store.NewMemory()}
}

func (s *recordingStore) Save(ctx context.Context, rec model.AnalysisRecord) error {
	if err := s.MemoryStore.Save(ctx, rec); err != nil {
		return err
	}
	s.mu.Lock()
	s.writes = append(s.writes, rec)
	s.mu.Unlock()
	return nil
}

func (s *recordingStore) progress() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.writes))
	for _, w := range s.writes {
		out = append(out, w.Progress)
	}
	return out
}

// failingStore accepts the first okWrites saves and rejects the rest.
type failingStore struct {
	*store.MemoryStore
	mu       sync.Mutex
	okWrites int
	err      error
}

func (s *failingStore) Save(ctx context.Context, rec model.AnalysisRecord) error {
	s.mu.Lock()
	if s.okWrites <= 0 {
		s.mu.Unlock()
		return s.err
	}
	s.okWrites--
	s.mu.Unlock()
	return s.MemoryStore.Save(ctx, rec)
}

func fastRetry() Option {
	return WithStoreRetry(resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
}

func TestRun_TextClaim(t *testing.T) {
	st := newRecordingStore()
	var gotClaim string
	ev := gathererFunc(func(_ context.Context, claim string) []model.EvidenceItem {
		gotClaim = claim
		return sampleEvidence()
	})
	p := New(st, ev, unusedAnalyzer(t), staticGenerator(verdictReply), fastRetry())

	res, err := p.Run(context.Background(), "a1", "  Vaccines   are safe  ", "")
	require.NoError(t, err)

	assert.Equal(t, "Vaccines are safe", gotClaim)
	assert.Equal(t, "Vaccines are safe", res.Claim)
	assert.Equal(t, model.ClaimKindStatement, res.ClaimKind)
	assert.Equal(t, model.VerdictTrue, res.Verdict)
	assert.Equal(t, "Health agencies confirm the claim.", res.Explanation)
	assert.Equal(t, model.InputTypeText, res.InputType)
	assert.Nil(t, res.MediaAnalysis)

	want := scorer.Score(2.0/3.0, (1.0+0.85)/2, 0.9, nil)
	assert.InDelta(t, want.Score, res.Confidence.Score, 1e-4)
	assert.Equal(t, want.Recommendation, res.Recommendation)

	require.Len(t, res.Evidence, 3)
	assert.Equal(t, "https://www.who.int/news/item/1", res.Evidence[0].URL)
	require.NotNil(t, res.Evidence[0].Tier)
	assert.Equal(t, 1, *res.Evidence[0].Tier)
	assert.Equal(t, model.StanceSupports, res.Evidence[0].Stance)
	assert.Equal(t, "https://www.reuters.com/world/2", res.Evidence[1].URL)
	assert.Equal(t, 2, *res.Evidence[1].Tier)
	assert.Nil(t, res.Evidence[2].Tier)
	assert.Equal(t, model.StanceContradicts, res.Evidence[2].Stance)

	rec, err := st.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusComplete, rec.Status)
	assert.Equal(t, 100, rec.Progress)
	assert.Equal(t, "Complete", rec.ProgressMessage)
	require.NotNil(t, rec.Result)
	assert.Equal(t, model.VerdictTrue, rec.Result.Verdict)
}

func TestRun_ProgressIsMonotonic(t *testing.T) {
	st := newRecordingStore()
	p := New(st, staticGatherer(sampleEvidence()), unusedAnalyzer(t), staticGenerator(verdictReply), fastRetry())

	_, err := p.Run(context.Background(), "a1", "Water is wet", "")
	require.NoError(t, err)

	got := st.progress()
	assert.Equal(t, []int{10, 20, 60, 70, 80, 90, 100}, got)
}

func TestRun_QuestionClaim(t *testing.T) {
	p := New(store.NewMemory(), staticGatherer(nil), unusedAnalyzer(t), staticGenerator(verdictReply), fastRetry())

	res, err := p.Run(context.Background(), "a1", "Is the moon made of cheese?", "")
	require.NoError(t, err)
	assert.Equal(t, model.ClaimKindQuestion, res.ClaimKind)
	assert.NotNil(t, res.Evidence)
	assert.Empty(t, res.Evidence)
}

func TestRun_WithMedia(t *testing.T) {
	score := 0.8
	var analyzed string
	ma := analyzerFunc(func(_ context.Context, path string) *model.MediaAnalysis {
		analyzed = path
		return &model.MediaAnalysis{
			Filename:           "photo.jpg",
			Type:               model.MediaTypeImage,
			DeepfakeIndicators: []string{},
			AuthenticityScore:  &score,
		}
	})
	var gotMedia *model.MediaAnalysis
	vg := generatorFunc(func(_ context.Context, _ string, _ []model.EvidenceItem, m *model.MediaAnalysis) (string, error) {
		gotMedia = m
		return verdictReply, nil
	})
	p := New(store.NewMemory(), staticGatherer(sampleEvidence()), ma, vg, fastRetry())

	res, err := p.Run(context.Background(), "a1", "This photo shows the event", "/tmp/photo.jpg")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/photo.jpg", analyzed)
	require.NotNil(t, gotMedia)
	assert.Equal(t, model.InputTypeTextMedia, res.InputType)
	require.NotNil(t, res.Confidence.Breakdown.MediaAuthenticity)
	assert.InDelta(t, 0.8, *res.Confidence.Breakdown.MediaAuthenticity, 1e-9)
	assert.InDelta(t, scorer.Score(2.0/3.0, 0.925, 0.9, &score).Score, res.Confidence.Score, 1e-4)
}

func TestRun_MediaOnlySkipsSearch(t *testing.T) {
	ev := gathererFunc(func(context.Context, string) []model.EvidenceItem {
		t.Error("search should not run for an empty claim")
		return nil
	})
	ma := analyzerFunc(func(context.Context, string) *model.MediaAnalysis {
		return &model.MediaAnalysis{Filename: "clip.mp4", Type: model.MediaTypeVideo, DeepfakeIndicators: []string{}}
	})
	p := New(store.NewMemory(), ev, ma, staticGenerator(verdictReply), fastRetry())

	res, err := p.Run(context.Background(), "a1", "   ", "/tmp/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, model.InputTypeVideo, res.InputType)
	assert.Empty(t, res.Evidence)
	assert.Nil(t, res.Confidence.Breakdown.MediaAuthenticity)
}

func TestRun_VerdictFailureUsesDefault(t *testing.T) {
	vg := generatorFunc(func(context.Context, string, []model.EvidenceItem, *model.MediaAnalysis) (string, error) {
		return "", errors.New("gateway down")
	})
	p := New(store.NewMemory(), staticGatherer(sampleEvidence()), unusedAnalyzer(t), vg, fastRetry())

	res, err := p.Run(context.Background(), "a1", "The sky is green", "")
	require.NoError(t, err)

	assert.Equal(t, model.VerdictUnverified, res.Verdict)
	assert.InDelta(t, 0.5, res.Confidence.Breakdown.AIConfidence, 1e-9)
	assert.InDelta(t, 0.5, res.Confidence.Breakdown.SourceAgreement, 1e-9)
	assert.NotEmpty(t, res.Explanation)
	for _, e := range res.Evidence {
		assert.Equal(t, model.StanceNeutral, e.Stance)
	}
}

func TestRun_GathererPanicDegrades(t *testing.T) {
	ev := gathererFunc(func(context.Context, string) []model.EvidenceItem {
		panic("search exploded")
	})
	p := New(store.NewMemory(), ev, unusedAnalyzer(t), staticGenerator(verdictReply), fastRetry())

	res, err := p.Run(context.Background(), "a1", "Claim text", "")
	require.NoError(t, err)
	assert.Empty(t, res.Evidence)
	assert.InDelta(t, 0.3, res.Confidence.Breakdown.SourceQuality, 1e-9)
}

func TestRun_GeneratorPanicRecordsError(t *testing.T) {
	st := store.NewMemory()
	vg := generatorFunc(func(context.Context, string, []model.EvidenceItem, *model.MediaAnalysis) (string, error) {
		panic("boom")
	})
	p := New(st, staticGatherer(nil), unusedAnalyzer(t), vg, fastRetry())

	res, err := p.Run(context.Background(), "a1", "Claim text", "")
	require.Error(t, err)
	assert.Nil(t, res)

	rec, err := st.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusError, rec.Status)
	assert.Contains(t, rec.Error, "boom")
	assert.Nil(t, rec.Result)
}

func TestRun_StoreFailureIsReported(t *testing.T) {
	st := &failingStore{
		MemoryStore: store.NewMemory(),
		okWrites:    3,
		err:         errors.New("disk full"),
	}
	p := New(st, staticGatherer(nil), unusedAnalyzer(t), staticGenerator(verdictReply), fastRetry())

	_, err := p.Run(context.Background(), "a1", "Claim text", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	rec, getErr := st.Get(context.Background(), "a1")
	require.NoError(t, getErr)
	assert.Equal(t, model.AnalysisStatusProcessing, rec.Status)
}

func TestSubmit_CompletesInBackground(t *testing.T) {
	st := store.NewMemory()
	release := make(chan struct{})
	vg := generatorFunc(func(context.Context, string, []model.EvidenceItem, *model.MediaAnalysis) (string, error) {
		<-release
		return verdictReply, nil
	})
	p := New(st, staticGatherer(sampleEvidence()), unusedAnalyzer(t), vg, fastRetry())

	ctx, cancel := context.WithCancel(context.Background())
	id, err := p.Submit(ctx, "Vaccines are safe", "")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	cancel()

	view, err := p.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusProcessing, view.Status)
	assert.Less(t, view.Progress, 100)

	close(release)
	require.Eventually(t, func() bool {
		v, err := p.Status(context.Background(), id)
		return err == nil && v.Status == model.AnalysisStatusComplete
	}, 2*time.Second, 5*time.Millisecond)

	rec, err := p.Result(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, rec.Result)
	assert.Equal(t, 100, rec.Progress)
}

func TestStatus_Unknown(t *testing.T) {
	p := New(store.NewMemory(), staticGatherer(nil), nil, staticGenerator(""), fastRetry())

	_, err := p.Status(context.Background(), "missing")
	assert.True(t, store.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	st := store.NewMemory()
	p := New(st, staticGatherer(nil), nil, staticGenerator(verdictReply), fastRetry())
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, model.AnalysisRecord{ID: "run", Status: model.AnalysisStatusProcessing, Progress: 20}))
	assert.ErrorIs(t, p.Delete(ctx, "run"), ErrInProgress)

	_, err := p.Run(ctx, "done", "Claim text", "")
	require.NoError(t, err)
	require.NoError(t, p.Delete(ctx, "done"))

	_, err = p.Result(ctx, "done")
	assert.True(t, store.IsNotFound(err))
	assert.True(t, store.IsNotFound(p.Delete(ctx, "missing")))
}

func TestWait_DrainsSubmittedRunsBeforeStoreCloses(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "analyses.db")
	st, err := store.NewSQLite(dsn, time.Hour)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))

	ev := gathererFunc(func(context.Context, string) []model.EvidenceItem {
		time.Sleep(100 * time.Millisecond)
		return sampleEvidence()
	})
	p := New(st, ev, nil, staticGenerator(verdictReply), fastRetry())

	id, err := p.Submit(context.Background(), "Vaccines are safe", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, st.Close())

	reopened, err := store.NewSQLite(dsn, time.Hour)
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	rec, err := reopened.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisStatusComplete, rec.Status)
	assert.Equal(t, 100, rec.Progress)
}

func TestWait_RespectsDeadline(t *testing.T) {
	release := make(chan struct{})
	ev := gathererFunc(func(context.Context, string) []model.EvidenceItem {
		<-release
		return nil
	})
	p := New(store.NewMemory(), ev, nil, staticGenerator(verdictReply), fastRetry())

	_, err := p.Submit(context.Background(), "Claim text", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, p.Wait(context.Background()))
}

func TestWait_NoRuns(t *testing.T) {
	p := New(store.NewMemory(), staticGatherer(nil), nil, staticGenerator(verdictReply))
	assert.NoError(t, p.Wait(context.Background()))
}

func TestRun_SearchAndMediaRunConcurrently(t *testing.T) {
	searchStarted := make(chan struct{})
	mediaStarted := make(chan struct{})

	ev := gathererFunc(func(context.Context, string) []model.EvidenceItem {
		close(searchStarted)
		select {
		case <-mediaStarted:
		case <-time.After(2 * time.Second):
			t.Error("media analysis did not start while search was running")
		}
		return sampleEvidence()
	})
	ma := analyzerFunc(func(context.Context, string) *model.MediaAnalysis {
		close(mediaStarted)
		select {
		case <-searchStarted:
		case <-time.After(2 * time.Second):
			t.Error("search did not start while media analysis was running")
		}
		return &model.MediaAnalysis{Filename: "photo.png", Type: model.MediaTypeImage, DeepfakeIndicators: []string{}}
	})
	p := New(store.NewMemory(), ev, ma, staticGenerator(verdictReply), fastRetry())

	res, err := p.Run(context.Background(), "a1", "This photo is real", "/tmp/photo.png")
	require.NoError(t, err)
	assert.Len(t, res.Evidence, 3)
	require.NotNil(t, res.MediaAnalysis)
}
