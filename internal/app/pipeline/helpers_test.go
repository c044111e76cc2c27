package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

type stubObs struct {
	mu       sync.Mutex
	counters map[string]float64
	gauges   map[string]float64
	errors   []string
	critical []string
	degraded []time.Time
}

func newStubObs() *stubObs {
	return &stubObs{counters: map[string]float64{}, gauges: map[string]float64{}}
}

func (s *stubObs) LogInfo(string, ...ports.Field) {}

func (s *stubObs) LogError(msg string, _ error, _ ...ports.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
}

func (s *stubObs) LogCritical(msg string, _ error, _ ...ports.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.critical = append(s.critical, msg)
}

func (s *stubObs) IncCounter(name string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += v
}

func (s *stubObs) ObserveLatency(string, float64) {}

func (s *stubObs) SetGauge(name string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges[name] = v
}

func (s *stubObs) RecordDegraded(ts time.Time, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = append(s.degraded, ts)
}

func (s *stubObs) counter(name string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[name]
}

// predictFunc answers per uploaded file name.
type predictFunc func(fileName string) ([]byte, error)

type stubPredictor struct {
	mu    sync.Mutex
	fn    predictFunc
	calls []string
}

func (p *stubPredictor) Predict(_ context.Context, fileName string, _ []byte) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, fileName)
	p.mu.Unlock()
	return p.fn(fileName)
}

func (p *stubPredictor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type stubRecorder struct {
	mu      sync.Mutex
	err     error
	bundles []any
}

func (r *stubRecorder) Record(_ context.Context, bundle any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles = append(r.bundles, bundle)
	return r.err
}

type memArtifacts struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  map[string]bool
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{files: map[string][]byte{}, fail: map[string]bool{}}
}

func (m *memArtifacts) Write(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[name] {
		return "", errors.New("read-only filesystem")
	}
	m.files[name] = append([]byte(nil), data...)
	return "/artifacts/" + name, nil
}

func (m *memArtifacts) List(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.files))
	for name := range m.files {
		out[name] = "/artifacts/" + name
	}
	return out, nil
}

type memStore struct {
	mu      sync.Mutex
	state   domain.IngestionState
	saveErr error
	loadErr error
	saves   int
}

func (m *memStore) Load(context.Context) (domain.IngestionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), m.loadErr
}

func (m *memStore) Save(_ context.Context, st domain.IngestionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.state = st.Clone()
	return nil
}

type stubRecording struct {
	ref     domain.RecordingRef
	samples []domain.RawSample
	err     error
}

type stubSource struct {
	mu          sync.Mutex
	recs        []stubRecording
	queryErr    error
	ignoreAfter bool
	queries     []*time.Time

	// block holds Query until closed; entered is closed when the first Query waits.
	block       chan struct{}
	entered     chan struct{}
	enteredOnce sync.Once
}

func (s *stubSource) add(id string, start time.Time, samples ...domain.RawSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, stubRecording{ref: domain.RecordingRef{ID: id, Start: start}, samples: samples})
}

func (s *stubSource) Query(_ context.Context, after *time.Time) ([]domain.RecordingRef, error) {
	if s.block != nil {
		s.enteredOnce.Do(func() { close(s.entered) })
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, after)
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if s.ignoreAfter {
		after = nil
	}
	var refs []domain.RecordingRef
	for _, r := range s.recs {
		if after == nil || r.ref.Start.After(*after) {
			refs = append(refs, r.ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Start.Before(refs[j].Start) })
	return refs, nil
}

func (s *stubSource) Samples(_ context.Context, ref domain.RecordingRef) ([]domain.RawSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.ref.ID == ref.ID {
			return r.samples, r.err
		}
	}
	return nil, domain.ErrSourceUnavailable
}

func (s *stubSource) failSamples(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recs {
		if s.recs[i].ref.ID == id {
			s.recs[i].err = err
		}
	}
}

func twoSamples() []domain.RawSample {
	return []domain.RawSample{{Offset: 0, Microvolts: 0}, {Offset: 0.01, Microvolts: 10}}
}

func normalBody() []byte   { return []byte(`{"result":{"distance_from_median":[]}}`) }
func abnormalBody() []byte { return []byte(`{"result":{"distance_from_median":[0.4]}}`) }
