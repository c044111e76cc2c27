package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

const DefaultZoneOffset = 9 * time.Hour

type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Subject   domain.Subject  `yaml:"subject"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Store     StoreConfig     `yaml:"store"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Source    SourceConfig    `yaml:"source"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	API       APIConfig       `yaml:"api"`
	NATS      NATSConfig      `yaml:"nats"`
	Log       LogConfig       `yaml:"log"`
}

// PipelineConfig.ZoneOffset is a pointer so an explicit 0 (UTC) survives defaulting.
type PipelineConfig struct {
	TargetRateHz     float64        `yaml:"target_rate_hz"`
	MaxConcurrency   int            `yaml:"max_concurrency"`
	WatermarkEpsilon time.Duration  `yaml:"watermark_epsilon"`
	ZoneOffset       *time.Duration `yaml:"zone_offset"`
	PollInterval     time.Duration  `yaml:"poll_interval"`
	MaxRecording     time.Duration  `yaml:"max_recording"`
}

type EndpointsConfig struct {
	PredictURL  string        `yaml:"predict_url"`
	RecordURL   string        `yaml:"record_url"`
	Timeout     time.Duration `yaml:"timeout"`
	OriginValue float64       `yaml:"origin_value"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // file | postgres | sqlite3 | mysql
	Dir    string `yaml:"dir"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

type ArtifactsConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

type SourceConfig struct {
	Type string     `yaml:"type"` // dir | mqtt
	Dir  string     `yaml:"dir"`
	MQTT MQTTConfig `yaml:"mqtt"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      int    `yaml:"qos"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

// NATSConfig enables outcome notifications when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Policy converts the pipeline section into the runtime policy.
func (c *Config) Policy() ports.Policy {
	offset := DefaultZoneOffset
	if c.Pipeline.ZoneOffset != nil {
		offset = *c.Pipeline.ZoneOffset
	}
	return ports.Policy{
		TargetRateHz:     c.Pipeline.TargetRateHz,
		MaxConcurrency:   c.Pipeline.MaxConcurrency,
		WatermarkEpsilon: c.Pipeline.WatermarkEpsilon,
		ZoneOffset:       offset,
		PollInterval:     c.Pipeline.PollInterval,
		MaxRecording:     c.Pipeline.MaxRecording,
	}
}

func (c *Config) applyDefaults() {
	if c.Pipeline.TargetRateHz == 0 {
		c.Pipeline.TargetRateHz = 512
	}
	if c.Pipeline.MaxConcurrency == 0 {
		c.Pipeline.MaxConcurrency = 8
	}
	if c.Pipeline.WatermarkEpsilon == 0 {
		c.Pipeline.WatermarkEpsilon = time.Millisecond
	}
	if c.Pipeline.MaxRecording == 0 {
		c.Pipeline.MaxRecording = time.Hour
	}
	if c.Pipeline.ZoneOffset == nil {
		offset := DefaultZoneOffset
		c.Pipeline.ZoneOffset = &offset
	}
	if c.Subject.Name == "" {
		c.Subject.Name = "Unknown"
	}
	if c.Endpoints.Timeout == 0 {
		c.Endpoints.Timeout = 30 * time.Second
	}
	if c.Endpoints.OriginValue == 0 {
		c.Endpoints.OriginValue = 55
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "./data/state"
	}
	if c.Store.Table == "" {
		c.Store.Table = "ecg_outcomes"
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "./data/artifacts"
	}
	if c.Artifacts.Prefix == "" {
		c.Artifacts.Prefix = "ecg"
	}
	if c.Source.Type == "" {
		c.Source.Type = "dir"
	}
	if c.Source.Dir == "" && c.Source.Type == "dir" {
		c.Source.Dir = "./data/recordings"
	}
	if c.Source.MQTT.Topic == "" {
		c.Source.MQTT.Topic = "xalute/ecg/#"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "xalute.outcomes"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) validate() error {
	if c.Pipeline.TargetRateHz <= 0 {
		return fmt.Errorf("pipeline.target_rate_hz must be > 0")
	}
	if c.Pipeline.MaxConcurrency <= 0 {
		return fmt.Errorf("pipeline.max_concurrency must be > 0")
	}
	if c.Pipeline.WatermarkEpsilon < 0 {
		return fmt.Errorf("pipeline.watermark_epsilon must be >= 0")
	}
	if c.Pipeline.PollInterval < 0 {
		return fmt.Errorf("pipeline.poll_interval must be >= 0")
	}
	if c.Pipeline.MaxRecording < 0 {
		return fmt.Errorf("pipeline.max_recording must be > 0")
	}
	if c.Endpoints.PredictURL == "" {
		return fmt.Errorf("endpoints.predict_url is required")
	}
	if c.Endpoints.RecordURL == "" {
		return fmt.Errorf("endpoints.record_url is required")
	}
	switch c.Store.Driver {
	case "file":
	case "postgres", "sqlite3", "mysql":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	switch c.Source.Type {
	case "dir":
		if c.Source.Dir == "" {
			return fmt.Errorf("source.dir is required")
		}
	case "mqtt":
		if c.Source.MQTT.Broker == "" {
			return fmt.Errorf("source.mqtt.broker is required")
		}
		if c.Source.MQTT.QoS < 0 || c.Source.MQTT.QoS > 2 {
			return fmt.Errorf("source.mqtt.qos must be 0, 1 or 2")
		}
	default:
		return fmt.Errorf("source.type %q is not supported", c.Source.Type)
	}
	return nil
}
