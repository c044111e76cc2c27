package pipeline

import (
	"context"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

// ResolveArtifacts attaches the paths of artifacts still present in listing.
func ResolveArtifacts(outcomes []domain.Outcome, listing map[string]string, prefix string, offset time.Duration) []domain.Outcome {
	out := make([]domain.Outcome, len(outcomes))
	for i, o := range outcomes {
		base := ArtifactBase(prefix, o.RecordedAt, offset, o.Label)
		out[i] = domain.Outcome{
			RecordedAt:     o.RecordedAt,
			Label:          o.Label,
			WaveformPath:   listing[base+WaveformExt],
			PredictionPath: listing[base+PredictionExt],
		}
	}
	return out
}

// History lists every persisted outcome with artifacts re-checked on disk.
func (p *IngestPipeline) History(ctx context.Context) ([]domain.Outcome, error) {
	listing, err := p.artifacts.List(ctx)
	if err != nil {
		return nil, err
	}
	state := p.State()
	return ResolveArtifacts(state.Outcomes, listing, p.coord.cfg.ArtifactPrefix, p.coord.cfg.ZoneOffset), nil
}
