package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// DirStore writes artifact files into a single flat directory.
type DirStore struct {
	mu  sync.Mutex
	dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrArtifactWrite, err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Dir() string { return s.dir }

// Write replaces name atomically and returns its absolute path.
func (s *DirStore) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrArtifactWrite, err)
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid name %q", domain.ErrArtifactWrite, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrArtifactWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %w", domain.ErrArtifactWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrArtifactWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrArtifactWrite, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// List skips hidden temp files and subdirectories.
func (s *DirStore) List(ctx context.Context) (map[string]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		out[e.Name()] = path
	}
	return out, nil
}

var _ ports.ArtifactStore = (*DirStore)(nil)
