package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// DirSource reads one recording per *.json file in dir.
type DirSource struct {
	dir string
	obs ports.Observability

	mu    sync.Mutex
	index map[string]string // recording id -> path
}

func NewDirSource(dir string, obs ports.Observability) *DirSource {
	return &DirSource{dir: dir, obs: obs, index: make(map[string]string)}
}

func (s *DirSource) Query(ctx context.Context, after *time.Time) ([]domain.RecordingRef, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, wrapFSError(err)
	}

	index := make(map[string]string, len(entries))
	var refs []domain.RecordingRef
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		ref, err := readHeader(path)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil, fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
			}
			if s.obs != nil {
				s.obs.LogError("recording_skipped", err, ports.Field{Key: "path", Value: path})
			}
			continue
		}
		if ref.ID == "" {
			ref.ID = strings.TrimSuffix(e.Name(), ".json")
		}
		index[ref.ID] = path
		if after != nil && !ref.Start.After(*after) {
			continue
		}
		refs = append(refs, ref)
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()

	sortRefs(refs)
	return refs, nil
}

func (s *DirSource) Samples(ctx context.Context, ref domain.RecordingRef) ([]domain.RawSample, error) {
	s.mu.Lock()
	path, ok := s.index[ref.ID]
	s.mu.Unlock()
	if !ok {
		path = filepath.Join(s.dir, ref.ID+".json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapFSError(err)
	}
	rec, err := DecodeRecording(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, path, err)
	}
	return rec.Samples, nil
}

func readHeader(path string) (domain.RecordingRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RecordingRef{}, err
	}
	var h recordingHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return domain.RecordingRef{}, fmt.Errorf("decode header: %w", err)
	}
	if h.Start.IsZero() {
		return domain.RecordingRef{}, fmt.Errorf("decode header: missing start")
	}
	return domain.RecordingRef{ID: h.ID, Start: h.Start.UTC()}, nil
}

func wrapFSError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
}

var _ ports.RecordingSource = (*DirSource)(nil)
