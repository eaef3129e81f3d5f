package groundlink

import (
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/broadcast"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// Aliases for the interfaces a caller can override and the values a tap
// yields, so embedding projects never import internal packages.
type (
	Collector     = ports.Collector
	PacketQueue   = ports.PacketQueue
	Observability = ports.Observability
	FlightCatalog = ports.FlightCatalog
	FlightRecord  = ports.FlightRecord
	Field         = ports.Field

	Packet      = domain.Packet
	Sample      = domain.Sample
	SessionMeta = domain.SessionMeta
	ClearSignal = domain.ClearSignal

	Event     = broadcast.Event
	EventKind = broadcast.EventKind
)

const (
	EventSamples = broadcast.EventSamples
	EventClear   = broadcast.EventClear
)
