package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

func newTestCoordinator(t *testing.T, pred *stubPredictor, rec *stubRecorder, arts *memArtifacts, obs *stubObs) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(CoordinatorConfig{
		Subject:      domain.Subject{Name: "Kim", BirthDate: "1990-01-01"},
		OriginValue:  55,
		TargetRateHz: 512,
		ZoneOffset:   9 * time.Hour,
	}, pred, rec, arts, obs)
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return c
}

func submitOnce(c *Coordinator, start time.Time) domain.Outcome {
	ref := domain.RecordingRef{ID: "r1", Start: start}
	raw := domain.SeriesFromSamples(start, twoSamples())
	resampled, _ := ResampleSeries(raw, 512, 0)
	return c.Submit(context.Background(), ref, raw, resampled)
}

func TestCoordinatorAbnormalWritesBothArtifacts(t *testing.T) {
	pred := &stubPredictor{fn: func(string) ([]byte, error) { return abnormalBody(), nil }}
	rec := &stubRecorder{}
	arts := newMemArtifacts()
	obs := newStubObs()
	c := newTestCoordinator(t, pred, rec, arts, obs)

	start := time.Date(2024, 5, 1, 8, 30, 15, 0, time.UTC)
	out := submitOnce(c, start)

	if out.Label != domain.LabelAbnormal || !out.RecordedAt.Equal(start) {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.WaveformPath != "/artifacts/ecg_2024-05-01T17-30-15_abnormal.txt" {
		t.Fatalf("unexpected waveform path %q", out.WaveformPath)
	}
	if out.PredictionPath != "/artifacts/ecg_2024-05-01T17-30-15_abnormal.json" {
		t.Fatalf("unexpected prediction path %q", out.PredictionPath)
	}
	if string(arts.files["ecg_2024-05-01T17-30-15_abnormal.json"]) != string(abnormalBody()) {
		t.Fatalf("prediction artifact must hold the raw response body")
	}
	if !strings.HasPrefix(string(arts.files["ecg_2024-05-01T17-30-15_abnormal.txt"]), "(0.000, ") {
		t.Fatalf("unexpected waveform artifact %q", arts.files["ecg_2024-05-01T17-30-15_abnormal.txt"])
	}
	if pred.calls[0] != "raw_2024-05-01T17-30-15.txt" {
		t.Fatalf("unexpected upload name %q", pred.calls[0])
	}
	if len(rec.bundles) != 1 {
		t.Fatalf("expected one record submission, got %d", len(rec.bundles))
	}
	if b := rec.bundles[0].(Bundle); b.Entry[0].Resource.ID != "2024-05-01T17-30-15" {
		t.Fatalf("unexpected bundle id %q", b.Entry[0].Resource.ID)
	}
	if len(obs.degraded) != 0 {
		t.Fatalf("abnormal outcome must not be degraded")
	}
}

func TestCoordinatorPredictFailureIsUnknownWithoutJSON(t *testing.T) {
	pred := &stubPredictor{fn: func(string) ([]byte, error) { return nil, domain.ErrNetworkFailure }}
	arts := newMemArtifacts()
	obs := newStubObs()
	c := newTestCoordinator(t, pred, &stubRecorder{}, arts, obs)

	out := submitOnce(c, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	if out.Label != domain.LabelUnknown {
		t.Fatalf("expected unknown, got %s", out.Label)
	}
	if out.WaveformPath == "" || out.PredictionPath != "" {
		t.Fatalf("expected only waveform artifact, got %+v", out)
	}
	if _, ok := arts.files["ecg_2024-05-01T09-00-00_unknown.json"]; ok {
		t.Fatalf("no prediction artifact expected on network failure")
	}
	if len(obs.degraded) != 1 || obs.counter("xalute_endpoint_failures_total") != 1 {
		t.Fatalf("expected degraded outcome to be recorded, got %v / %v", obs.degraded, obs.counters)
	}
}

func TestCoordinatorMalformedResponseKeepsBody(t *testing.T) {
	pred := &stubPredictor{fn: func(string) ([]byte, error) { return []byte(`{"result":{}}`), nil }}
	arts := newMemArtifacts()
	c := newTestCoordinator(t, pred, &stubRecorder{}, arts, newStubObs())

	out := submitOnce(c, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	if out.Label != domain.LabelUnknown || out.PredictionPath == "" {
		t.Fatalf("expected unknown with prediction artifact, got %+v", out)
	}
}

func TestCoordinatorRecordFailureDoesNotAffectLabel(t *testing.T) {
	pred := &stubPredictor{fn: func(string) ([]byte, error) { return normalBody(), nil }}
	rec := &stubRecorder{err: errors.New("503")}
	obs := newStubObs()
	c := newTestCoordinator(t, pred, rec, newMemArtifacts(), obs)

	out := submitOnce(c, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	if out.Label != domain.LabelNormal {
		t.Fatalf("expected normal despite record failure, got %s", out.Label)
	}
	if obs.counter("xalute_endpoint_failures_total") != 1 {
		t.Fatalf("expected record failure to be counted")
	}
}

func TestCoordinatorArtifactFailureLeavesPathEmpty(t *testing.T) {
	pred := &stubPredictor{fn: func(string) ([]byte, error) { return normalBody(), nil }}
	arts := newMemArtifacts()
	arts.fail["ecg_2024-05-01T09-00-00_normal.txt"] = true
	obs := newStubObs()
	c := newTestCoordinator(t, pred, &stubRecorder{}, arts, obs)

	out := submitOnce(c, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	if out.Label != domain.LabelNormal {
		t.Fatalf("artifact failure must not change the label, got %s", out.Label)
	}
	if out.WaveformPath != "" || out.PredictionPath == "" {
		t.Fatalf("unexpected paths %+v", out)
	}
	if obs.counter("xalute_artifact_write_failures_total") != 1 {
		t.Fatalf("expected artifact failure to be counted")
	}
}

func TestNewCoordinatorValidates(t *testing.T) {
	pred := &stubPredictor{fn: func(string) ([]byte, error) { return nil, nil }}
	if _, err := NewCoordinator(CoordinatorConfig{TargetRateHz: 512}, nil, &stubRecorder{}, newMemArtifacts(), newStubObs()); err == nil {
		t.Fatalf("expected predictor error")
	}
	if _, err := NewCoordinator(CoordinatorConfig{}, pred, &stubRecorder{}, newMemArtifacts(), newStubObs()); err == nil {
		t.Fatalf("expected target rate error")
	}
	c, err := NewCoordinator(CoordinatorConfig{TargetRateHz: 512}, pred, &stubRecorder{}, newMemArtifacts(), newStubObs())
	if err != nil || c.cfg.ArtifactPrefix != "ecg" {
		t.Fatalf("expected default prefix, got %v %v", c, err)
	}
}
