package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/os-libera/xalute-mobile/internal/ports"
)

type PromObs struct {
	logger   *zap.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the pipeline metrics on reg (DefaultRegisterer when nil)
// and logs through logger (a no-op logger when nil).
func NewPromObs(reg prometheus.Registerer, logger *zap.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	counters := map[string]prometheus.Counter{
		"xalute_batches_total":                 counter("xalute_batches_total", "Ingestion batches started."),
		"xalute_batch_failures_total":          counter("xalute_batch_failures_total", "Batches aborted by a source or store failure."),
		"xalute_recordings_processed_total":    counter("xalute_recordings_processed_total", "Recordings that produced a persisted outcome."),
		"xalute_outcomes_normal_total":         counter("xalute_outcomes_normal_total", "Outcomes labelled normal."),
		"xalute_outcomes_abnormal_total":       counter("xalute_outcomes_abnormal_total", "Outcomes labelled abnormal."),
		"xalute_outcomes_unknown_total":        counter("xalute_outcomes_unknown_total", "Outcomes labelled unknown."),
		"xalute_endpoint_failures_total":       counter("xalute_endpoint_failures_total", "Predict or record submissions that failed."),
		"xalute_artifact_write_failures_total": counter("xalute_artifact_write_failures_total", "Artifact files that could not be written."),
		"xalute_degraded_total":                counter("xalute_degraded_total", "Recordings degraded to an unknown outcome."),
		"xalute_source_received_total":         counter("xalute_source_received_total", "Recordings received by a streaming source."),
		"xalute_source_rejected_total":         counter("xalute_source_rejected_total", "Streaming source messages that could not be decoded."),
	}
	gauges := map[string]prometheus.Gauge{
		"xalute_watermark_unix_seconds": prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xalute_watermark_unix_seconds",
			Help: "Start time of the latest ingested recording.",
		}),
		"xalute_outcomes_stored": prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xalute_outcomes_stored",
			Help: "Outcomes currently held by the result store.",
		}),
	}
	histos := map[string]prometheus.Observer{
		"xalute_batch_duration_seconds": prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "xalute_batch_duration_seconds",
			Help:    "Wall time of one ingestion batch.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		"xalute_predict_latency_seconds": prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "xalute_predict_latency_seconds",
			Help:    "Predict endpoint round trip.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		"xalute_record_latency_seconds": prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "xalute_record_latency_seconds",
			Help:    "Record endpoint round trip.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	for _, c := range counters {
		reg.MustRegister(c)
	}
	for _, g := range gauges {
		reg.MustRegister(g)
	}
	for _, h := range histos {
		reg.MustRegister(h.(prometheus.Collector))
	}

	return &PromObs{
		logger:   logger,
		counters: counters,
		gauges:   gauges,
		histos:   histos,
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, zapFields(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(zapFields(fields), zap.Error(err), zap.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDegraded(recordedAt time.Time, err error) {
	p.IncCounter("xalute_degraded_total", 1)
	p.logger.Warn("recording_degraded", zap.Time("recorded_at", recordedAt), zap.Error(err))
}

func (p *PromObs) Logger() *zap.Logger { return p.logger }

func zapFields(fields []ports.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
