package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/os-libera/xalute-mobile"
)

const configYAML = `
endpoints:
  predict_url: http://localhost/predict
  record_url: http://localhost/record
store:
  dir: %[1]s/state
artifacts:
  dir: %[1]s/artifacts
source:
  dir: %[1]s/recordings
log:
  format: console
`

// offlinePredictor flags every waveform whose peak exceeds a threshold.
type offlinePredictor struct{ threshold float64 }

func (p offlinePredictor) Predict(_ context.Context, _ string, raw []byte) ([]byte, error) {
	var peak float64
	for _, pair := range strings.Split(strings.Trim(string(raw), "()"), ") (") {
		var v, t float64
		if _, err := fmt.Sscanf(pair, "%g, %g", &v, &t); err == nil {
			peak = math.Max(peak, math.Abs(v))
		}
	}
	if peak > p.threshold {
		return []byte(fmt.Sprintf(`{"result":{"distance_from_median":[%.1f]}}`, peak-p.threshold)), nil
	}
	return []byte(`{"result":{"distance_from_median":[]}}`), nil
}

type discardRecorder struct{}

func (discardRecorder) Record(context.Context, any) error { return nil }

func main() {
	dir, err := os.MkdirTemp("", "xalute-embedded-")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	cfg, err := xalute.ParseConfig([]byte(fmt.Sprintf(configYAML, dir)))
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	src := xalute.NewMemorySource()
	start := time.Now().Add(-time.Minute).UTC()
	for i, amp := range []float64{120, 900} {
		src.Add(xalute.RecordingFile{
			Start:   start.Add(time.Duration(i) * 10 * time.Second),
			Samples: sine(amp, 250, 2*time.Second),
		})
	}

	ctx := context.Background()
	rt, err := xalute.NewRuntime(ctx, cfg,
		xalute.WithSource(src),
		xalute.WithPredictor(offlinePredictor{threshold: 500}),
		xalute.WithRecorder(discardRecorder{}),
	)
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}
	defer rt.Shutdown(ctx)

	outcomes, err := rt.Ingest(ctx)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	for _, o := range outcomes {
		fmt.Printf("%s -> %s\n", o.RecordedAt.Format(time.RFC3339), o.Label)
	}

	state := rt.State()
	if state.Watermark != nil {
		fmt.Printf("watermark now %s\n", state.Watermark.Format(time.RFC3339Nano))
	}
}

func sine(amp, rateHz float64, d time.Duration) []xalute.RawSample {
	n := int(d.Seconds() * rateHz)
	out := make([]xalute.RawSample, n)
	for i := range out {
		t := float64(i) / rateHz
		out[i] = xalute.RawSample{Offset: t, Microvolts: amp * math.Sin(2*math.Pi*1.2*t)}
	}
	return out
}
