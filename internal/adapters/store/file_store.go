package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

const (
	resultsFile   = "ecg_results.json"
	watermarkFile = "ecg_lastDate.json"
)

// persistedOutcome is the on-disk shape of one outcome.
type persistedOutcome struct {
	Date       string `json:"date"`
	Prediction string `json:"prediction"`
}

// FileStore keeps the outcome list and the watermark in two JSON documents.
// Each document is replaced via write-to-temp + rename, outcomes first, so a
// crash between the two leaves the older watermark and the batch is re-run.
type FileStore struct {
	mu            sync.RWMutex
	dir           string
	resultsPath   string
	watermarkPath string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return &FileStore{
		dir:           dir,
		resultsPath:   filepath.Join(dir, resultsFile),
		watermarkPath: filepath.Join(dir, watermarkFile),
	}, nil
}

func (s *FileStore) Load(ctx context.Context) (domain.IngestionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var state domain.IngestionState

	wm, err := s.loadWatermark()
	if err != nil {
		return state, err
	}
	state.Watermark = wm

	outcomes, err := s.loadOutcomes()
	if err != nil {
		return state, err
	}
	state.Outcomes = outcomes
	return state, nil
}

func (s *FileStore) loadWatermark() (*time.Time, error) {
	data, err := os.ReadFile(s.watermarkPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read watermark: %w", domain.ErrStorageUnavailable, err)
	}
	var iso string
	if err := json.Unmarshal(data, &iso); err != nil {
		return nil, fmt.Errorf("%w: decode watermark: %w", domain.ErrStorageCorrupt, err)
	}
	ts, err := ParseTimestamp(iso)
	if err != nil {
		return nil, fmt.Errorf("%w: parse watermark: %w", domain.ErrStorageCorrupt, err)
	}
	return &ts, nil
}

func (s *FileStore) loadOutcomes() ([]domain.Outcome, error) {
	data, err := os.ReadFile(s.resultsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read results: %w", domain.ErrStorageUnavailable, err)
	}
	var rows []persistedOutcome
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode results: %w", domain.ErrStorageCorrupt, err)
	}
	return decodeOutcomes(rows)
}

func (s *FileStore) Save(ctx context.Context, state domain.IngestionState) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	rows := encodeOutcomes(state.Outcomes)
	results, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("%w: encode results: %w", domain.ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.dir, s.resultsPath, results); err != nil {
		return fmt.Errorf("%w: write results: %w", domain.ErrStorageUnavailable, err)
	}
	if state.Watermark == nil {
		if err := os.Remove(s.watermarkPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: clear watermark: %w", domain.ErrStorageUnavailable, err)
		}
		return nil
	}
	wm, err := json.Marshal(FormatTimestamp(*state.Watermark))
	if err != nil {
		return fmt.Errorf("%w: encode watermark: %w", domain.ErrStorageUnavailable, err)
	}
	if err := writeFileAtomic(s.dir, s.watermarkPath, wm); err != nil {
		return fmt.Errorf("%w: write watermark: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// FormatTimestamp renders UTC ISO-8601 with fractional seconds.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp accepts ISO-8601 with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}

func encodeOutcomes(outcomes []domain.Outcome) []persistedOutcome {
	rows := make([]persistedOutcome, len(outcomes))
	for i, o := range outcomes {
		rows[i] = persistedOutcome{Date: FormatTimestamp(o.RecordedAt), Prediction: string(o.Label)}
	}
	return rows
}

func decodeOutcomes(rows []persistedOutcome) ([]domain.Outcome, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]domain.Outcome, len(rows))
	for i, r := range rows {
		ts, err := ParseTimestamp(r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: outcome %d date: %w", domain.ErrStorageCorrupt, i, err)
		}
		label := domain.Label(r.Prediction)
		if !label.Valid() {
			return nil, fmt.Errorf("%w: outcome %d label %q", domain.ErrStorageCorrupt, i, r.Prediction)
		}
		out[i] = domain.Outcome{RecordedAt: ts, Label: label}
	}
	return out, nil
}

var _ ports.ResultStore = (*FileStore)(nil)
