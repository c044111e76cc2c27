package ports

import (
	"context"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

// ResultStore persists the ingestion watermark together with the outcome list.
type ResultStore interface {
	Load(ctx context.Context) (domain.IngestionState, error)
	Save(ctx context.Context, state domain.IngestionState) error
}

// ArtifactStore writes per-outcome files and lists what is currently present.
type ArtifactStore interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
	// List maps file name to resolved path.
	List(ctx context.Context) (map[string]string, error)
}
