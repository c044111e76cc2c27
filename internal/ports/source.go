package ports

import (
	"context"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

// RecordingSource exposes ECG captures from the sensing platform.
// Query returns recordings starting strictly after `after` (all when nil),
// sorted by start ascending.
type RecordingSource interface {
	Query(ctx context.Context, after *time.Time) ([]domain.RecordingRef, error)
	Samples(ctx context.Context, ref domain.RecordingRef) ([]domain.RawSample, error)
}
