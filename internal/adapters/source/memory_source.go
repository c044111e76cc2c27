package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// MemorySource holds recordings pushed in-process, e.g. by a host bridging a
// health platform API.
type MemorySource struct {
	mu   sync.RWMutex
	recs map[string]RecordingFile
}

func NewMemorySource() *MemorySource {
	return &MemorySource{recs: make(map[string]RecordingFile)}
}

// Add registers or replaces a recording. An empty ID is derived from start.
func (s *MemorySource) Add(rec RecordingFile) domain.RecordingRef {
	rec.Start = rec.Start.UTC()
	if rec.ID == "" {
		rec.ID = rec.Start.Format(time.RFC3339Nano)
	}
	s.mu.Lock()
	s.recs[rec.ID] = rec
	s.mu.Unlock()
	return rec.Ref()
}

func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

func (s *MemorySource) Query(ctx context.Context, after *time.Time) ([]domain.RecordingRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	s.mu.RLock()
	refs := make([]domain.RecordingRef, 0, len(s.recs))
	for _, rec := range s.recs {
		if after != nil && !rec.Start.After(*after) {
			continue
		}
		refs = append(refs, rec.Ref())
	}
	s.mu.RUnlock()
	sortRefs(refs)
	return refs, nil
}

func (s *MemorySource) Samples(ctx context.Context, ref domain.RecordingRef) ([]domain.RawSample, error) {
	s.mu.RLock()
	rec, ok := s.recs[ref.ID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: recording %q not found", domain.ErrSourceUnavailable, ref.ID)
	}
	out := make([]domain.RawSample, len(rec.Samples))
	copy(out, rec.Samples)
	return out, nil
}

func sortRefs(refs []domain.RecordingRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Start.Equal(refs[j].Start) {
			return refs[i].ID < refs[j].ID
		}
		return refs[i].Start.Before(refs[j].Start)
	})
}

var _ ports.RecordingSource = (*MemorySource)(nil)
