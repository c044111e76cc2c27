package xalute

import (
	"context"
	"testing"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig(t, "http://p.invalid", "http://r.invalid")

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	obs := &stubObservability{}
	rt, err := flow.
		StreamIN(
			StreamInSource(NewMemorySource()),
			StreamInResultStore(&stubResults{}),
			StreamInObservability(obs),
		).
		StreamOUT(context.Background(),
			StreamOutPredictor(&stubPredictor{body: `{}`}),
			StreamOutRecorder(&stubRecorder{}),
			StreamOutCallback("cb", func([]Outcome) error { return nil }),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if rt.obs != obs {
		t.Fatalf("expected custom observability to be wired")
	}
}

func TestFlowRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, "http://p.invalid", "http://r.invalid")

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := flow.StreamIN(
		StreamInSource(NewMemorySource()),
		StreamInObservability(&stubObservability{}),
	).Run(ctx,
		StreamOutPredictor(&stubPredictor{}),
		StreamOutRecorder(&stubRecorder{}),
	); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}
