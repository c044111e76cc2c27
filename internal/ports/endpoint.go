package ports

import "context"

// Predictor submits the raw waveform text and returns the response body.
type Predictor interface {
	Predict(ctx context.Context, fileName string, raw []byte) ([]byte, error)
}

// Recorder submits a structured batch document; the response is not inspected.
type Recorder interface {
	Record(ctx context.Context, bundle any) error
}
