package xalute

import (
	"github.com/os-libera/xalute-mobile/internal/adapters/source"
	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// Outcome is the persisted result of one recording plus any artifact paths.
type Outcome = domain.Outcome

// Label is normal, abnormal or unknown.
type Label = domain.Label

const (
	LabelNormal   = domain.LabelNormal
	LabelAbnormal = domain.LabelAbnormal
	LabelUnknown  = domain.LabelUnknown
)

// IngestionState is the watermark plus the outcome history.
type IngestionState = domain.IngestionState

// RecordingRef identifies a capture exposed by a RecordingSource.
type RecordingRef = domain.RecordingRef

// RawSample is one measurement at an offset (seconds) from the recording start.
type RawSample = domain.RawSample

// Subject is attached to every record submission.
type Subject = domain.Subject

// RecordingFile is the JSON document read by directory and MQTT sources.
type RecordingFile = source.RecordingFile

// RecordingSource lists and loads recordings from a sensing platform.
type RecordingSource = ports.RecordingSource

// ResultStore persists the watermark and outcomes together.
type ResultStore = ports.ResultStore

// ArtifactStore holds the per-outcome waveform and prediction files.
type ArtifactStore = ports.ArtifactStore

// Predictor classifies a raw waveform upload.
type Predictor = ports.Predictor

// Recorder receives the observation bundle.
type Recorder = ports.Recorder

// OutcomePublisher is told about outcomes after each persisted batch.
type OutcomePublisher = ports.OutcomePublisher

// Observability emits logs and metrics.
type Observability = ports.Observability

// Field is a structured log field.
type Field = ports.Field

// MemorySource is an in-process RecordingSource.
type MemorySource = source.MemorySource

func NewMemorySource() *MemorySource { return source.NewMemorySource() }

var (
	ErrSourceUnavailable  = domain.ErrSourceUnavailable
	ErrPermissionDenied   = domain.ErrPermissionDenied
	ErrStorageCorrupt     = domain.ErrStorageCorrupt
	ErrStorageUnavailable = domain.ErrStorageUnavailable
	ErrNetworkFailure     = domain.ErrNetworkFailure
	ErrRunInProgress      = domain.ErrRunInProgress
)
