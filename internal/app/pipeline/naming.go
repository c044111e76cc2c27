package pipeline

import (
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

const (
	stampLayout   = "2006-01-02T15-04-05"
	subjectLayout = "2006-01-02 15:04"

	WaveformExt   = ".txt"
	PredictionExt = ".json"
)

// ArtifactStamp renders a filesystem-safe timestamp shifted by the configured offset.
func ArtifactStamp(ts time.Time, offset time.Duration) string {
	return ts.UTC().Add(offset).Format(stampLayout)
}

// ArtifactBase is the name shared by both artifacts of one outcome.
func ArtifactBase(prefix string, ts time.Time, offset time.Duration, label domain.Label) string {
	return prefix + "_" + ArtifactStamp(ts, offset) + "_" + string(label)
}

// SubjectTime is the human readable recording time used in subject references.
func SubjectTime(ts time.Time, offset time.Duration) string {
	return ts.In(time.FixedZone("", int(offset/time.Second))).Format(subjectLayout)
}
