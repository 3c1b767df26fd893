package store

import (
	"context"
	"sync"

	"github.com/sells-group/factcheck/internal/model"
)

// MemoryStore keeps records in process memory. Records are never expired.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.AnalysisRecord
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.AnalysisRecord)}
}

func (s *MemoryStore) Save(_ context.Context, rec model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.records[rec.ID]; ok && !cur.CanTransition(rec) {
		return ErrStaleWrite
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRecord(rec)
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// cloneRecord deep-copies the result so callers never share mutable state
// with the map entry, down to the pointer-valued scores and tiers.
func cloneRecord(rec model.AnalysisRecord) model.AnalysisRecord {
	if rec.Result == nil {
		return rec
	}
	res := *rec.Result
	res.Confidence.Breakdown.MediaAuthenticity = clonePtr(res.Confidence.Breakdown.MediaAuthenticity)
	if rec.Result.Evidence != nil {
		res.Evidence = make([]model.AnnotatedSource, len(rec.Result.Evidence))
		for i, src := range rec.Result.Evidence {
			src.Tier = clonePtr(src.Tier)
			res.Evidence[i] = src
		}
	}
	if rec.Result.MediaAnalysis != nil {
		ma := *rec.Result.MediaAnalysis
		if ma.DeepfakeIndicators != nil {
			ma.DeepfakeIndicators = append([]string{}, ma.DeepfakeIndicators...)
		}
		ma.AuthenticityScore = clonePtr(ma.AuthenticityScore)
		res.MediaAnalysis = &ma
	}
	rec.Result = &res
	return rec
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
