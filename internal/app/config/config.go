package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/collector"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

type Config struct {
	Policy    ports.Policy    `yaml:"policy"`
	Collector CollectorConfig `yaml:"collector"`
	Logs      LogsConfig      `yaml:"logs"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	HTTP      HTTPConfig      `yaml:"http"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

type CollectorConfig struct {
	// Type selects the downlink source: "udp" or "sim".
	Type string              `yaml:"type"`
	UDP  collector.UDPConfig `yaml:"udp"`
	Sim  collector.SimConfig `yaml:"sim"`
}

type LogsConfig struct {
	Dir string `yaml:"dir"`
}

type BroadcastConfig struct {
	// Buffer is the per-client outbound channel capacity; a client that
	// falls this many events behind is dropped.
	Buffer int `yaml:"buffer"`
	// HeartbeatTimeout is how long a viewer may stay silent before its
	// connection is closed.
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout"`
	// SendTimeout bounds a single WebSocket write.
	SendTimeout time.Duration `yaml:"send_timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// CatalogConfig is optional; an empty conn_string disables the SQL catalog.
type CatalogConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Policy.MaxQueueLen == 0 {
		c.Policy.MaxQueueLen = 10_000
	}
	if c.Policy.MaxBatchSize == 0 {
		c.Policy.MaxBatchSize = 256
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = 5 * time.Millisecond
	}
	if c.Policy.AppendRetries == 0 {
		c.Policy.AppendRetries = 5
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = "block"
	}
	if c.Collector.Type == "" {
		c.Collector.Type = "udp"
	}
	c.Collector.UDP.ApplyDefaults()
	c.Collector.Sim.ApplyDefaults()
	if c.Logs.Dir == "" {
		c.Logs.Dir = "./flight_logs"
	}
	if c.Broadcast.Buffer == 0 {
		c.Broadcast.Buffer = 256
	}
	if c.Broadcast.HeartbeatTimeout == 0 {
		c.Broadcast.HeartbeatTimeout = 30 * time.Second
	}
	if c.Broadcast.SendTimeout == 0 {
		c.Broadcast.SendTimeout = 5 * time.Second
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8000"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Catalog.Table == "" {
		c.Catalog.Table = "flights"
	}
}

func (c *Config) Validate() error {
	switch c.Collector.Type {
	case "udp":
		if err := c.Collector.UDP.Validate(); err != nil {
			return fmt.Errorf("collector.udp: %w", err)
		}
	case "sim":
	default:
		return fmt.Errorf("collector.type must be \"udp\" or \"sim\", got %q", c.Collector.Type)
	}
	switch c.Policy.OnQueueFull {
	case "block", "drop", "reject":
	default:
		return fmt.Errorf("policy.on_queue_full must be block, drop, or reject, got %q", c.Policy.OnQueueFull)
	}
	if c.Logs.Dir == "" {
		return fmt.Errorf("logs.dir is required")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
