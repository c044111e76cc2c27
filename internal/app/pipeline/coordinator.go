package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// CoordinatorConfig carries the static inputs of every submission.
type CoordinatorConfig struct {
	Subject        domain.Subject
	ArtifactPrefix string
	OriginValue    float64
	TargetRateHz   float64
	ZoneOffset     time.Duration
}

// Coordinator sends one recording to the predict and record endpoints in
// parallel and turns the settled responses into an Outcome.
type Coordinator struct {
	cfg       CoordinatorConfig
	predictor ports.Predictor
	recorder  ports.Recorder
	artifacts ports.ArtifactStore
	obs       ports.Observability
}

func NewCoordinator(cfg CoordinatorConfig, predictor ports.Predictor, recorder ports.Recorder, artifacts ports.ArtifactStore, obs ports.Observability) (*Coordinator, error) {
	if predictor == nil {
		return nil, fmt.Errorf("predictor is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if obs == nil {
		return nil, fmt.Errorf("observability is required")
	}
	if cfg.TargetRateHz <= 0 {
		return nil, fmt.Errorf("target rate must be > 0")
	}
	if cfg.ArtifactPrefix == "" {
		cfg.ArtifactPrefix = "ecg"
	}
	return &Coordinator{
		cfg:       cfg,
		predictor: predictor,
		recorder:  recorder,
		artifacts: artifacts,
		obs:       obs,
	}, nil
}

// Submit never fails: endpoint and artifact errors degrade the outcome instead.
func (c *Coordinator) Submit(ctx context.Context, ref domain.RecordingRef, raw, resampled domain.Series) domain.Outcome {
	stamp := ArtifactStamp(ref.Start, c.cfg.ZoneOffset)
	rawText := FormatSeries(raw)
	resampledText := FormatSeries(resampled)
	bundle := BuildBundle(BundleInput{
		Stamp:       stamp,
		SubjectTime: SubjectTime(ref.Start, c.cfg.ZoneOffset),
		Subject:     c.cfg.Subject,
		Resampled:   resampled,
		TargetRate:  c.cfg.TargetRateHz,
		OriginValue: c.cfg.OriginValue,
	})

	var (
		wg          sync.WaitGroup
		predictBody []byte
		predictErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		start := time.Now()
		predictBody, predictErr = c.predictor.Predict(ctx, "raw_"+stamp+WaveformExt, []byte(rawText))
		c.obs.ObserveLatency("xalute_predict_latency_seconds", time.Since(start).Seconds())
	}()
	go func() {
		defer wg.Done()
		start := time.Now()
		err := c.recorder.Record(ctx, bundle)
		c.obs.ObserveLatency("xalute_record_latency_seconds", time.Since(start).Seconds())
		if err != nil {
			c.obs.IncCounter("xalute_endpoint_failures_total", 1)
			c.obs.LogError("record_submit_failed", err,
				ports.Field{Key: "recording", Value: ref.ID},
				ports.Field{Key: "stamp", Value: stamp})
		}
	}()
	wg.Wait()

	verdict := Verdict{Shape: ShapeFailed}
	if predictErr != nil {
		c.obs.IncCounter("xalute_endpoint_failures_total", 1)
		c.obs.LogError("predict_submit_failed", predictErr,
			ports.Field{Key: "recording", Value: ref.ID},
			ports.Field{Key: "stamp", Value: stamp})
	} else {
		verdict = ParseVerdict(predictBody)
		if verdict.Shape != ShapePresent {
			c.obs.LogError("predict_response_unusable", domain.ErrMalformedResponse,
				ports.Field{Key: "recording", Value: ref.ID},
				ports.Field{Key: "shape", Value: verdict.Shape.String()})
		}
	}

	label := verdict.Label()
	out := domain.Outcome{RecordedAt: ref.Start, Label: label}
	base := ArtifactBase(c.cfg.ArtifactPrefix, ref.Start, c.cfg.ZoneOffset, label)

	if path, err := c.artifacts.Write(ctx, base+WaveformExt, []byte(resampledText)); err != nil {
		c.artifactFailed(base+WaveformExt, err)
	} else {
		out.WaveformPath = path
	}
	if predictErr == nil {
		if path, err := c.artifacts.Write(ctx, base+PredictionExt, predictBody); err != nil {
			c.artifactFailed(base+PredictionExt, err)
		} else {
			out.PredictionPath = path
		}
	}

	if label == domain.LabelUnknown {
		cause := predictErr
		if cause == nil {
			cause = fmt.Errorf("%w: %s", domain.ErrMalformedResponse, verdict.Shape)
		}
		c.obs.RecordDegraded(ref.Start, cause)
	}
	c.obs.LogInfo("recording_submitted",
		ports.Field{Key: "recording", Value: ref.ID},
		ports.Field{Key: "label", Value: string(label)},
		ports.Field{Key: "samples", Value: raw.Len()},
		ports.Field{Key: "resampled", Value: resampled.Len()})
	return out
}

func (c *Coordinator) artifactFailed(name string, err error) {
	c.obs.IncCounter("xalute_artifact_write_failures_total", 1)
	c.obs.LogError("artifact_write_failed", fmt.Errorf("%w: %w", domain.ErrArtifactWrite, err),
		ports.Field{Key: "name", Value: name})
}
