package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

func TestFileStoreLoadFirstRun(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	state, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Watermark != nil || len(state.Outcomes) != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	wm := time.Date(2024, 5, 1, 8, 30, 15, 123456789, time.UTC)
	in := domain.IngestionState{
		Watermark: &wm,
		Outcomes: []domain.Outcome{
			{RecordedAt: wm.Add(-time.Hour), Label: domain.LabelNormal},
			{RecordedAt: wm.Add(-time.Minute), Label: domain.LabelUnknown},
			{RecordedAt: wm, Label: domain.LabelAbnormal},
		},
	}
	if err := s.Save(context.Background(), in); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Reopen to make sure nothing is served from memory.
	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	out, err := s2.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Watermark == nil || !out.Watermark.Equal(wm) {
		t.Fatalf("expected watermark %s, got %v", wm, out.Watermark)
	}
	if len(out.Outcomes) != len(in.Outcomes) {
		t.Fatalf("expected %d outcomes, got %d", len(in.Outcomes), len(out.Outcomes))
	}
	for i := range in.Outcomes {
		if !out.Outcomes[i].RecordedAt.Equal(in.Outcomes[i].RecordedAt) || out.Outcomes[i].Label != in.Outcomes[i].Label {
			t.Fatalf("outcome %d mismatch: %+v vs %+v", i, out.Outcomes[i], in.Outcomes[i])
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected only the two state files, got %d entries", len(entries))
	}
}

func TestFileStoreWatermarkWithoutFraction(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, watermarkFile), []byte(`"2024-05-01T08:30:15Z"`), 0o644); err != nil {
		t.Fatalf("write watermark: %v", err)
	}
	s, _ := NewFileStore(dir)

	state, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := time.Date(2024, 5, 1, 8, 30, 15, 0, time.UTC)
	if state.Watermark == nil || !state.Watermark.Equal(want) {
		t.Fatalf("expected %s, got %v", want, state.Watermark)
	}
}

func TestFileStoreCorruptResults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, resultsFile), []byte(`[{"date":`), 0o644); err != nil {
		t.Fatalf("write results: %v", err)
	}
	s, _ := NewFileStore(dir)

	if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrStorageCorrupt) {
		t.Fatalf("expected ErrStorageCorrupt, got %v", err)
	}
}

func TestFileStoreCorruptLabel(t *testing.T) {
	dir := t.TempDir()
	body := `[{"date":"2024-05-01T08:30:15Z","prediction":"maybe"}]`
	if err := os.WriteFile(filepath.Join(dir, resultsFile), []byte(body), 0o644); err != nil {
		t.Fatalf("write results: %v", err)
	}
	s, _ := NewFileStore(dir)

	if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrStorageCorrupt) {
		t.Fatalf("expected ErrStorageCorrupt, got %v", err)
	}
}

func TestFileStoreSaveFailureKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)

	wm := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := domain.IngestionState{
		Watermark: &wm,
		Outcomes:  []domain.Outcome{{RecordedAt: wm, Label: domain.LabelNormal}},
	}
	if err := s.Save(context.Background(), first); err != nil {
		t.Fatalf("save: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	later := wm.Add(time.Hour)
	second := domain.IngestionState{Watermark: &later}
	if err := s.Save(ctx, second); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}

	state, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !state.Watermark.Equal(wm) || len(state.Outcomes) != 1 {
		t.Fatalf("expected previous state to remain, got %+v", state)
	}
}
