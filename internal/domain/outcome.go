package domain

import "time"

// Label is the classification derived from the predict endpoint.
type Label string

const (
	LabelNormal   Label = "normal"
	LabelAbnormal Label = "abnormal"
	LabelUnknown  Label = "unknown"
)

func (l Label) Valid() bool {
	switch l {
	case LabelNormal, LabelAbnormal, LabelUnknown:
		return true
	}
	return false
}

// Outcome is the result of processing one recording. Artifact paths are empty
// when the corresponding write failed or was skipped.
type Outcome struct {
	RecordedAt     time.Time `json:"date"`
	Label          Label     `json:"prediction"`
	WaveformPath   string    `json:"txtPath,omitempty"`
	PredictionPath string    `json:"jsonPath,omitempty"`
}

// IngestionState is the durable cursor plus processed outcome history.
type IngestionState struct {
	Watermark *time.Time
	Outcomes  []Outcome
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (s IngestionState) Clone() IngestionState {
	out := IngestionState{}
	if s.Watermark != nil {
		wm := *s.Watermark
		out.Watermark = &wm
	}
	if len(s.Outcomes) > 0 {
		out.Outcomes = make([]Outcome, len(s.Outcomes))
		copy(out.Outcomes, s.Outcomes)
	}
	return out
}

// Has reports whether an outcome for the given recording timestamp exists.
func (s IngestionState) Has(ts time.Time) bool {
	for _, o := range s.Outcomes {
		if o.RecordedAt.Equal(ts) {
			return true
		}
	}
	return false
}
