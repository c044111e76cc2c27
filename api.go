package xalute

import (
	"context"

	base "github.com/os-libera/xalute-mobile/pkg/xalute"
)

// Re-exported errors for convenience.
var (
	ErrSourceUnavailable      = base.ErrSourceUnavailable
	ErrPermissionDenied       = base.ErrPermissionDenied
	ErrStorageCorrupt         = base.ErrStorageCorrupt
	ErrStorageUnavailable     = base.ErrStorageUnavailable
	ErrNetworkFailure         = base.ErrNetworkFailure
	ErrRunInProgress          = base.ErrRunInProgress
	ErrChannelPublisherClosed = base.ErrChannelPublisherClosed
)

// Type aliases so consumers can import github.com/os-libera/xalute-mobile directly.
type (
	Config           = base.Config
	Policy           = base.Policy
	Flow             = base.Flow
	FlowOption       = base.FlowOption
	StreamInOption   = base.StreamInOption
	StreamOutOption  = base.StreamOutOption
	Runtime          = base.Runtime
	RuntimeOption    = base.RuntimeOption
	Outcome          = base.Outcome
	Label            = base.Label
	IngestionState   = base.IngestionState
	RecordingRef     = base.RecordingRef
	RawSample        = base.RawSample
	RecordingFile    = base.RecordingFile
	Subject          = base.Subject
	MemorySource     = base.MemorySource
	RecordingSource  = base.RecordingSource
	ResultStore      = base.ResultStore
	ArtifactStore    = base.ArtifactStore
	Predictor        = base.Predictor
	Recorder         = base.Recorder
	OutcomePublisher = base.OutcomePublisher
	OutcomeHandler   = base.OutcomeHandler
	Observability    = base.Observability
	Field            = base.Field
)

const (
	LabelNormal   = base.LabelNormal
	LabelAbnormal = base.LabelAbnormal
	LabelUnknown  = base.LabelUnknown
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInSource(src RecordingSource) StreamInOption {
	return base.StreamInSource(src)
}

func StreamInResultStore(s ResultStore) StreamInOption {
	return base.StreamInResultStore(s)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutPredictor(p Predictor) StreamOutOption {
	return base.StreamOutPredictor(p)
}

func StreamOutRecorder(r Recorder) StreamOutOption {
	return base.StreamOutRecorder(r)
}

func StreamOutArtifacts(s ArtifactStore) StreamOutOption {
	return base.StreamOutArtifacts(s)
}

func StreamOutPublisher(p OutcomePublisher) StreamOutOption {
	return base.StreamOutPublisher(p)
}

func StreamOutCallback(name string, fn OutcomeHandler) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Runtime and options.
func NewRuntime(ctx context.Context, cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(ctx, cfg, opts...)
}

func WithSource(src RecordingSource) RuntimeOption {
	return base.WithSource(src)
}

func WithResultStore(s ResultStore) RuntimeOption {
	return base.WithResultStore(s)
}

func WithArtifactStore(s ArtifactStore) RuntimeOption {
	return base.WithArtifactStore(s)
}

func WithPredictor(p Predictor) RuntimeOption {
	return base.WithPredictor(p)
}

func WithRecorder(r Recorder) RuntimeOption {
	return base.WithRecorder(r)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithPublisher(p OutcomePublisher) RuntimeOption {
	return base.WithPublisher(p)
}

// Sources and publishers.
func NewMemorySource() *MemorySource {
	return base.NewMemorySource()
}

func NewCallbackPublisher(name string, fn OutcomeHandler) OutcomePublisher {
	return base.NewCallbackPublisher(name, fn)
}

func NewChannelPublisher(name string, buffer int) (OutcomePublisher, <-chan []Outcome, func()) {
	return base.NewChannelPublisher(name, buffer)
}
