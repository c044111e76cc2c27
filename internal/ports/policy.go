package ports

import "time"

type Policy struct {
	TargetRateHz     float64
	MaxConcurrency   int
	WatermarkEpsilon time.Duration
	ZoneOffset       time.Duration
	PollInterval     time.Duration // 0 disables periodic batches
	MaxRecording     time.Duration // longest span a recording may cover
}
