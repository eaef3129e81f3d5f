package groundlink

import (
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/collector"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/app/config"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// Config re-exports the root configuration struct so embedding projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls queue and durability thresholds.
	Policy = ports.Policy
	// CollectorConfig selects and configures the downlink source.
	CollectorConfig = config.CollectorConfig
	// UDPConfig configures the UDP downlink listener.
	UDPConfig = collector.UDPConfig
	// SimConfig configures the built-in flight simulator.
	SimConfig = collector.SimConfig
	// LogsConfig configures the flight log directory.
	LogsConfig = config.LogsConfig
	// BroadcastConfig tunes the live fan-out.
	BroadcastConfig = config.BroadcastConfig
	// HTTPConfig configures the API server.
	HTTPConfig = config.HTTPConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// CatalogConfig configures the optional SQL flight catalog.
	CatalogConfig = config.CatalogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
