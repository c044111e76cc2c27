package xalute

import (
	"github.com/os-libera/xalute-mobile/internal/app/config"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy is the runtime view of the pipeline section.
	Policy          = ports.Policy
	PipelineConfig  = config.PipelineConfig
	EndpointsConfig = config.EndpointsConfig
	StoreConfig     = config.StoreConfig
	ArtifactsConfig = config.ArtifactsConfig
	SourceConfig    = config.SourceConfig
	MQTTConfig      = config.MQTTConfig
	MetricsConfig   = config.MetricsConfig
	APIConfig       = config.APIConfig
	NATSConfig      = config.NATSConfig
	LogConfig       = config.LogConfig
)

// LoadConfig loads YAML from disk, applies defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig is LoadConfig for YAML already in memory.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}
