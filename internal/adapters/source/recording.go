package source

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

// RecordingFile is the JSON document carried by files and MQTT messages.
type RecordingFile struct {
	ID      string             `json:"id"`
	Start   time.Time          `json:"start"`
	Samples []domain.RawSample `json:"samples"`
}

// recordingHeader decodes a RecordingFile without materialising samples.
type recordingHeader struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
}

func DecodeRecording(data []byte) (RecordingFile, error) {
	var rec RecordingFile
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode recording: %w", err)
	}
	if rec.Start.IsZero() {
		return rec, fmt.Errorf("decode recording: missing start")
	}
	rec.Start = rec.Start.UTC()
	return rec, nil
}

func (r RecordingFile) Ref() domain.RecordingRef {
	return domain.RecordingRef{ID: r.ID, Start: r.Start}
}
