package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
endpoints:
  predict_url: "https://predict.example.com/predict"
  record_url: "https://record.example.com/fhir"
subject:
  name: "Kim"
  birth_date: "1990-01-01"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pol := cfg.Policy()
	if pol.TargetRateHz != 512 {
		t.Fatalf("expected target rate 512, got %v", pol.TargetRateHz)
	}
	if pol.MaxConcurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", pol.MaxConcurrency)
	}
	if pol.WatermarkEpsilon != time.Millisecond {
		t.Fatalf("expected epsilon 1ms, got %s", pol.WatermarkEpsilon)
	}
	if pol.ZoneOffset != 9*time.Hour {
		t.Fatalf("expected zone offset 9h, got %s", pol.ZoneOffset)
	}
	if pol.PollInterval != 0 {
		t.Fatalf("expected polling disabled, got %s", pol.PollInterval)
	}
	if pol.MaxRecording != time.Hour {
		t.Fatalf("expected max recording 1h, got %s", pol.MaxRecording)
	}
	if cfg.Endpoints.OriginValue != 55 || cfg.Endpoints.Timeout != 30*time.Second {
		t.Fatalf("unexpected endpoint defaults %+v", cfg.Endpoints)
	}
	if cfg.Store.Driver != "file" || cfg.Source.Type != "dir" {
		t.Fatalf("unexpected store/source defaults %+v %+v", cfg.Store, cfg.Source)
	}
	if cfg.Metrics.Addr != ":9100" || cfg.API.Addr != ":8080" {
		t.Fatalf("unexpected listen defaults %s %s", cfg.Metrics.Addr, cfg.API.Addr)
	}
	if cfg.Subject.Name != "Kim" || cfg.Artifacts.Prefix != "ecg" {
		t.Fatalf("unexpected subject/artifacts %+v %+v", cfg.Subject, cfg.Artifacts)
	}
}

func TestParseKeepsExplicitUTCOffset(t *testing.T) {
	cfg, err := Parse([]byte(`
pipeline:
  zone_offset: 0s
  poll_interval: 1m
endpoints:
  predict_url: "http://p"
  record_url: "http://r"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cfg.Policy().ZoneOffset; got != 0 {
		t.Fatalf("expected explicit zero offset, got %s", got)
	}
	if got := cfg.Policy().PollInterval; got != time.Minute {
		t.Fatalf("expected poll interval 1m, got %s", got)
	}
}

func TestParseValidation(t *testing.T) {
	cases := map[string]string{
		"missing predict": `
endpoints:
  record_url: "http://r"
`,
		"sql without dsn": `
endpoints: {predict_url: "http://p", record_url: "http://r"}
store: {driver: postgres}
`,
		"unknown driver": `
endpoints: {predict_url: "http://p", record_url: "http://r"}
store: {driver: mongo}
`,
		"mqtt without broker": `
endpoints: {predict_url: "http://p", record_url: "http://r"}
source: {type: mqtt}
`,
		"negative rate": `
endpoints: {predict_url: "http://p", record_url: "http://r"}
pipeline: {target_rate_hz: -1}
`,
		"negative max recording": `
endpoints: {predict_url: "http://p", record_url: "http://r"}
pipeline: {max_recording: -1m}
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
