package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// IngestPipeline runs fetch → resample → submit → persist batches. Only one
// batch may run at a time; the in-memory state mirrors the last successful save.
type IngestPipeline struct {
	source    ports.RecordingSource
	store     ports.ResultStore
	artifacts ports.ArtifactStore
	coord     *Coordinator
	publisher ports.OutcomePublisher
	pol       ports.Policy
	obs       ports.Observability

	running sync.Mutex
	mu      sync.RWMutex
	state   domain.IngestionState
}

// NewIngestPipeline loads the persisted state once; a corrupt or unreadable
// store fails construction.
func NewIngestPipeline(ctx context.Context, source ports.RecordingSource, store ports.ResultStore, artifacts ports.ArtifactStore, coord *Coordinator, pol ports.Policy, obs ports.Observability) (*IngestPipeline, error) {
	if source == nil || store == nil || artifacts == nil || coord == nil || obs == nil {
		return nil, fmt.Errorf("pipeline dependencies are required")
	}
	if pol.MaxConcurrency <= 0 {
		pol.MaxConcurrency = 1
	}
	state, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	p := &IngestPipeline{
		source:    source,
		store:     store,
		artifacts: artifacts,
		coord:     coord,
		pol:       pol,
		obs:       obs,
		state:     state,
	}
	p.recordStateGauges(state)
	if state.Watermark != nil {
		obs.LogInfo("state_loaded",
			ports.Field{Key: "watermark", Value: state.Watermark.Format(time.RFC3339Nano)},
			ports.Field{Key: "outcomes", Value: len(state.Outcomes)})
	} else {
		obs.LogInfo("state_loaded", ports.Field{Key: "outcomes", Value: len(state.Outcomes)})
	}
	return p, nil
}

// SetPublisher installs a publisher notified after every persisted batch.
func (p *IngestPipeline) SetPublisher(pub ports.OutcomePublisher) {
	p.publisher = pub
}

// State returns a copy of the last persisted state.
func (p *IngestPipeline) State() domain.IngestionState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Clone()
}

// RunBatch processes every recording newer than the watermark and returns the
// outcomes this batch added to the stored history. Once recordings are fetched
// the batch runs to completion even if ctx is cancelled. Publishers are
// notified after the run lock is released, bounded by ctx and publishTimeout.
func (p *IngestPipeline) RunBatch(ctx context.Context) ([]domain.Outcome, error) {
	added, err := p.runLocked(ctx)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		p.publish(ctx, added)
	}
	return added, nil
}

const publishTimeout = 10 * time.Second

func (p *IngestPipeline) runLocked(ctx context.Context) ([]domain.Outcome, error) {
	if !p.running.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer p.running.Unlock()

	var (
		batchID = uuid.NewString()
		started = time.Now()
		state   = p.State()
		after   *time.Time
	)
	if state.Watermark != nil {
		a := state.Watermark.Add(p.pol.WatermarkEpsilon)
		after = &a
	}

	refs, err := p.source.Query(ctx, after)
	if err != nil {
		p.obs.IncCounter("xalute_batch_failures_total", 1)
		return nil, sourceError(err)
	}
	p.obs.IncCounter("xalute_batches_total", 1)
	if len(refs) == 0 {
		p.obs.LogInfo("batch_empty", ports.Field{Key: "batch", Value: batchID})
		return []domain.Outcome{}, nil
	}
	p.obs.LogInfo("batch_fetched",
		ports.Field{Key: "batch", Value: batchID},
		ports.Field{Key: "recordings", Value: len(refs)})

	workCtx := context.WithoutCancel(ctx)
	fresh := p.processAll(workCtx, refs)

	next := state.Clone()
	if wm := latestStart(refs); next.Watermark == nil || wm.After(*next.Watermark) {
		next.Watermark = &wm
	}
	added := make([]domain.Outcome, 0, len(fresh))
	for _, o := range fresh {
		if next.Has(o.RecordedAt) {
			p.obs.LogInfo("duplicate_outcome_skipped",
				ports.Field{Key: "recorded_at", Value: o.RecordedAt.Format(time.RFC3339Nano)})
			continue
		}
		next.Outcomes = append(next.Outcomes, o)
		added = append(added, o)
	}

	if err := p.store.Save(workCtx, next); err != nil {
		p.obs.IncCounter("xalute_batch_failures_total", 1)
		p.obs.LogCritical("state_save_failed", err, ports.Field{Key: "batch", Value: batchID})
		return nil, err
	}
	p.mu.Lock()
	p.state = next
	p.mu.Unlock()
	p.recordStateGauges(next)

	p.obs.IncCounter("xalute_recordings_processed_total", float64(len(added)))
	p.obs.ObserveLatency("xalute_batch_duration_seconds", time.Since(started).Seconds())
	p.obs.LogInfo("batch_persisted",
		ports.Field{Key: "batch", Value: batchID},
		ports.Field{Key: "outcomes", Value: len(added)},
		ports.Field{Key: "skipped", Value: len(fresh) - len(added)},
		ports.Field{Key: "watermark", Value: next.Watermark.Format(time.RFC3339Nano)})
	return added, nil
}

func (p *IngestPipeline) publish(ctx context.Context, outcomes []domain.Outcome) {
	if p.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.publisher.Publish(ctx, outcomes); err != nil {
		p.obs.LogError("outcome_publish_failed", err, ports.Field{Key: "publisher", Value: p.publisher.Name()})
	}
}

func (p *IngestPipeline) processAll(ctx context.Context, refs []domain.RecordingRef) []domain.Outcome {
	results := make(chan domain.Outcome, len(refs))

	var g errgroup.Group
	g.SetLimit(p.pol.MaxConcurrency)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			results <- p.processRecording(ctx, ref)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	out := make([]domain.Outcome, 0, len(refs))
	for o := range results {
		out = append(out, o)
		p.obs.IncCounter("xalute_outcomes_"+string(o.Label)+"_total", 1)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out
}

func (p *IngestPipeline) processRecording(ctx context.Context, ref domain.RecordingRef) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = p.degraded(ref, fmt.Errorf("recording unit panicked: %v", r))
		}
	}()

	samples, err := p.source.Samples(ctx, ref)
	if err != nil {
		return p.degraded(ref, fmt.Errorf("load samples: %w", err))
	}
	raw := domain.SeriesFromSamples(ref.Start, samples)
	resampled, err := ResampleSeries(raw, p.coord.cfg.TargetRateHz, p.pol.MaxRecording)
	if err != nil {
		return p.degraded(ref, err)
	}
	return p.coord.Submit(ctx, ref, raw, resampled)
}

func (p *IngestPipeline) degraded(ref domain.RecordingRef, err error) domain.Outcome {
	p.obs.RecordDegraded(ref.Start, err)
	p.obs.LogError("recording_failed", err, ports.Field{Key: "recording", Value: ref.ID})
	return domain.Outcome{RecordedAt: ref.Start, Label: domain.LabelUnknown}
}

func (p *IngestPipeline) recordStateGauges(state domain.IngestionState) {
	p.obs.SetGauge("xalute_outcomes_stored", float64(len(state.Outcomes)))
	if state.Watermark != nil {
		p.obs.SetGauge("xalute_watermark_unix_seconds", float64(state.Watermark.UnixNano())/1e9)
	}
}

func latestStart(refs []domain.RecordingRef) time.Time {
	var latest time.Time
	for _, r := range refs {
		if r.Start.After(latest) {
			latest = r.Start
		}
	}
	return latest.UTC()
}

func sourceError(err error) error {
	if errors.Is(err, domain.ErrSourceUnavailable) || errors.Is(err, domain.ErrPermissionDenied) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
}
