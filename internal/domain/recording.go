package domain

import "time"

// RecordingRef identifies one ECG capture exposed by the sensing source.
// Samples are fetched separately so a broken capture only fails its own unit.
type RecordingRef struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
}

// RawSample is a single measurement relative to the recording start.
type RawSample struct {
	Offset     float64 `json:"t"`
	Microvolts float64 `json:"uv"`
}

// Series holds parallel timestamp (unix seconds) and value slices.
type Series struct {
	Timestamps []float64
	Values     []float64
}

func (s Series) Len() int { return len(s.Timestamps) }

// SeriesFromSamples converts offsets into absolute unix-second timestamps.
func SeriesFromSamples(start time.Time, samples []RawSample) Series {
	base := float64(start.UnixNano()) / 1e9
	out := Series{
		Timestamps: make([]float64, len(samples)),
		Values:     make([]float64, len(samples)),
	}
	for i, s := range samples {
		out.Timestamps[i] = base + s.Offset
		out.Values[i] = s.Microvolts
	}
	return out
}

// Subject is the person metadata attached to record submissions.
type Subject struct {
	Name      string `json:"name" yaml:"name"`
	BirthDate string `json:"birth_date" yaml:"birth_date"`
}
