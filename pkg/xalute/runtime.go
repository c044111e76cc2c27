package xalute

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/os-libera/xalute-mobile/internal/adapters/artifacts"
	"github.com/os-libera/xalute-mobile/internal/adapters/endpoint"
	"github.com/os-libera/xalute-mobile/internal/adapters/notify"
	"github.com/os-libera/xalute-mobile/internal/adapters/observability"
	"github.com/os-libera/xalute-mobile/internal/adapters/source"
	"github.com/os-libera/xalute-mobile/internal/adapters/store"
	"github.com/os-libera/xalute-mobile/internal/app/pipeline"
	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source        RecordingSource
	results       ResultStore
	artifacts     ArtifactStore
	predictor     Predictor
	recorder      Recorder
	observability Observability
	publishers    []OutcomePublisher
	registry      *prometheus.Registry
}

// WithSource injects a custom recording source (platform bridge, simulator, etc.).
func WithSource(src RecordingSource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithResultStore replaces the configured file or SQL result store.
func WithResultStore(s ResultStore) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.results = s
	}
}

// WithArtifactStore replaces the artifact directory.
func WithArtifactStore(s ArtifactStore) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.artifacts = s
	}
}

// WithPredictor replaces the HTTP predict client.
func WithPredictor(p Predictor) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.predictor = p
	}
}

// WithRecorder replaces the HTTP record client.
func WithRecorder(r Recorder) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.recorder = r
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithPublisher adds a publisher; it may be given more than once.
func WithPublisher(p OutcomePublisher) RuntimeOption {
	return func(o *runtimeOverrides) {
		if p != nil {
			o.publishers = append(o.publishers, p)
		}
	}
}

// WithRegistry registers the default metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.registry = reg
	}
}

// Runtime wires source → resample → predict/record → store and exposes
// lifecycle hooks for embedding the ingestion pipeline in any Go service.
type Runtime struct {
	cfg      *Config
	policy   ports.Policy
	obs      ports.Observability
	logger   *zap.Logger
	registry *prometheus.Registry
	pipe     *pipeline.IngestPipeline
	closers  []func() error

	metricsSrv *http.Server
	apiSrv     *http.Server

	pollCancel context.CancelFunc
	pollDone   chan struct{}
	startOnce  sync.Once
}

// NewRuntime bootstraps the default adapters from cfg (directory or MQTT
// source, file or SQL store, HTTP endpoints, Prometheus and zap observability,
// optional NATS notifications) and loads the persisted state. RuntimeOption
// values override any dependency.
func NewRuntime(ctx context.Context, cfg *Config, opts ...RuntimeOption) (_ *Runtime, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	rt := &Runtime{cfg: cfg, policy: cfg.Policy()}
	defer func() {
		if err != nil {
			_ = rt.closeAll()
		}
	}()

	rt.registry = overrides.registry
	if rt.registry == nil {
		rt.registry = prometheus.NewRegistry()
	}
	rt.obs = overrides.observability
	if rt.obs == nil {
		logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, err
		}
		rt.logger = logger
		rt.closers = append(rt.closers, func() error { _ = logger.Sync(); return nil })
		rt.obs = observability.NewPromObs(rt.registry, logger)
	}

	src := overrides.source
	if src == nil {
		if src, err = rt.openSource(); err != nil {
			return nil, err
		}
	}

	results := overrides.results
	if results == nil {
		if results, err = rt.openResultStore(ctx); err != nil {
			return nil, err
		}
	}

	arts := overrides.artifacts
	if arts == nil {
		if arts, err = artifacts.NewDirStore(cfg.Artifacts.Dir); err != nil {
			return nil, err
		}
	}

	predictor := overrides.predictor
	if predictor == nil {
		if predictor, err = endpoint.NewPredictClient(cfg.Endpoints.PredictURL, cfg.Endpoints.Timeout); err != nil {
			return nil, err
		}
	}
	recorder := overrides.recorder
	if recorder == nil {
		if recorder, err = endpoint.NewRecordClient(cfg.Endpoints.RecordURL, cfg.Endpoints.Timeout); err != nil {
			return nil, err
		}
	}

	publishers := overrides.publishers
	if cfg.NATS.URL != "" {
		np, err := notify.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		rt.closers = append(rt.closers, func() error { np.Close(); return nil })
		publishers = append(publishers, np)
	}

	coord, err := pipeline.NewCoordinator(pipeline.CoordinatorConfig{
		Subject:        cfg.Subject,
		ArtifactPrefix: cfg.Artifacts.Prefix,
		OriginValue:    cfg.Endpoints.OriginValue,
		TargetRateHz:   rt.policy.TargetRateHz,
		ZoneOffset:     rt.policy.ZoneOffset,
	}, predictor, recorder, arts, rt.obs)
	if err != nil {
		return nil, err
	}

	rt.pipe, err = pipeline.NewIngestPipeline(ctx, src, results, arts, coord, rt.policy, rt.obs)
	if err != nil {
		return nil, err
	}
	if len(publishers) > 0 {
		rt.pipe.SetPublisher(multiPublisher(publishers))
	}
	return rt, nil
}

func (r *Runtime) openSource() (ports.RecordingSource, error) {
	switch r.cfg.Source.Type {
	case "mqtt":
		m := r.cfg.Source.MQTT
		src, err := source.NewMQTTSource(source.MQTTConfig{
			Broker:   m.Broker,
			Topic:    m.Topic,
			ClientID: m.ClientID,
			QoS:      byte(m.QoS),
		}, r.obs)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func() error { src.Close(); return nil })
		return src, nil
	default:
		return source.NewDirSource(r.cfg.Source.Dir, r.obs), nil
	}
}

func (r *Runtime) openResultStore(ctx context.Context) (ports.ResultStore, error) {
	if r.cfg.Store.Driver == "file" {
		return store.NewFileStore(r.cfg.Store.Dir)
	}
	s, err := store.OpenSQLStore(ctx, r.cfg.Store.Driver, r.cfg.Store.DSN, r.cfg.Store.Table)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, s.Close)
	return s, nil
}

// Ingest runs one batch and returns the outcomes it produced. ErrRunInProgress
// is returned while another batch is running.
func (r *Runtime) Ingest(ctx context.Context) ([]Outcome, error) {
	return r.pipe.RunBatch(ctx)
}

// Outcomes lists every persisted outcome with the artifact paths present now.
func (r *Runtime) Outcomes(ctx context.Context) ([]Outcome, error) {
	return r.pipe.History(ctx)
}

// State returns the last persisted watermark and outcomes.
func (r *Runtime) State() IngestionState {
	return r.pipe.State()
}

// Start launches the HTTP API, the metrics server and, when configured, the
// periodic ingestion loop. It returns immediately.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.startOnce.Do(func() {
		r.startMetrics()
		r.startAPI()
		if r.policy.PollInterval > 0 {
			ctx, cancel := context.WithCancel(context.Background())
			r.pollCancel = cancel
			r.pollDone = make(chan struct{})
			go r.pollLoop(ctx, r.policy.PollInterval)
		}
	})
	return nil
}

// Run starts the runtime and blocks until ctx is cancelled, then shuts down.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the poll loop, both servers and any opened connections.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.pollCancel != nil {
		r.pollCancel()
		select {
		case <-r.pollDone:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("poll loop: %w", ctx.Err()))
		}
	}

	for _, srv := range []*http.Server{r.apiSrv, r.metricsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := r.closeAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runtime) closeAll() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Runtime) pollLoop(ctx context.Context, interval time.Duration) {
	defer close(r.pollDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.scheduledBatch(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runtime) scheduledBatch(ctx context.Context) {
	_, err := r.pipe.RunBatch(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRunInProgress):
		r.obs.LogInfo("scheduled_batch_skipped")
	default:
		r.obs.LogError("scheduled_batch_failed", err)
	}
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go r.serve("metrics", r.metricsSrv)
}

func (r *Runtime) startAPI() {
	r.apiSrv = &http.Server{
		Addr:              r.cfg.API.Addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go r.serve("api", r.apiSrv)
}

func (r *Runtime) serve(name string, srv *http.Server) {
	r.obs.LogInfo("server_listening", Field{Key: "server", Value: name}, Field{Key: "addr", Value: srv.Addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.obs.LogError("server_exited", err, Field{Key: "server", Value: name})
	}
}
