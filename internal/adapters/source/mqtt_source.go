package source

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/os-libera/xalute-mobile/internal/domain"
	"github.com/os-libera/xalute-mobile/internal/ports"
)

type MQTTConfig struct {
	Broker         string
	Topic          string
	ClientID       string
	QoS            byte
	ConnectTimeout time.Duration
}

// MQTTSource buffers recordings published on a topic. Each message carries
// one RecordingFile document; a repeated id replaces the earlier capture.
type MQTTSource struct {
	*MemorySource
	cfg    MQTTConfig
	client mqtt.Client
	obs    ports.Observability
}

func NewMQTTSource(cfg MQTTConfig, obs ports.Observability) (*MQTTSource, error) {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt broker and topic are required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("xalute-%d", time.Now().Unix())
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	s := &MQTTSource{MemorySource: NewMemorySource(), cfg: cfg, obs: obs}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = s.onConnect
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.obs.LogError("mqtt_connection_lost", err, ports.Field{Key: "broker", Value: cfg.Broker})
	}

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("%w: mqtt connect timeout", domain.ErrSourceUnavailable)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return s, nil
}

func (s *MQTTSource) onConnect(c mqtt.Client) {
	token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.obs.LogError("mqtt_subscribe_failed", err, ports.Field{Key: "topic", Value: s.cfg.Topic})
		return
	}
	s.obs.LogInfo("mqtt_subscribed", ports.Field{Key: "topic", Value: s.cfg.Topic})
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	rec, err := DecodeRecording(msg.Payload())
	if err != nil {
		s.obs.LogError("recording_skipped", err, ports.Field{Key: "topic", Value: msg.Topic()})
		s.obs.IncCounter("xalute_source_rejected_total", 1)
		return
	}
	ref := s.Add(rec)
	s.obs.IncCounter("xalute_source_received_total", 1)
	s.obs.LogInfo("recording_received",
		ports.Field{Key: "id", Value: ref.ID},
		ports.Field{Key: "start", Value: ref.Start},
		ports.Field{Key: "samples", Value: len(rec.Samples)},
	)
}

func (s *MQTTSource) Close() {
	if s.client != nil {
		s.client.Disconnect(250)
	}
}

var _ ports.RecordingSource = (*MQTTSource)(nil)
