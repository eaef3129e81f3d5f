// Package groundstation re-exports the public runtime surface so consumers
// can import the module root directly.
package groundstation

import (
	base "github.com/DavidHuang10/rocket-ground-station-25-26/pkg/groundlink"
)

// ErrQueueFull indicates the ingestion queue rejected a record according to
// policy.
var ErrQueueFull = base.ErrQueueFull

type (
	Config          = base.Config
	Policy          = base.Policy
	CollectorConfig = base.CollectorConfig
	UDPConfig       = base.UDPConfig
	SimConfig       = base.SimConfig
	LogsConfig      = base.LogsConfig
	BroadcastConfig = base.BroadcastConfig
	HTTPConfig      = base.HTTPConfig
	MetricsConfig   = base.MetricsConfig
	CatalogConfig   = base.CatalogConfig

	Runtime       = base.Runtime
	RuntimeOption = base.RuntimeOption
	Tap           = base.Tap

	Collector     = base.Collector
	PacketQueue   = base.PacketQueue
	Observability = base.Observability
	FlightCatalog = base.FlightCatalog
	FlightRecord  = base.FlightRecord
	Field         = base.Field

	Packet      = base.Packet
	Sample      = base.Sample
	SessionMeta = base.SessionMeta
	ClearSignal = base.ClearSignal
	Event       = base.Event
	EventKind   = base.EventKind
)

const (
	EventSamples = base.EventSamples
	EventClear   = base.EventClear
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime helpers.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithCollector(col Collector) RuntimeOption {
	return base.WithCollector(col)
}

func WithQueue(q PacketQueue) RuntimeOption {
	return base.WithQueue(q)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithCatalog(cat FlightCatalog) RuntimeOption {
	return base.WithCatalog(cat)
}
