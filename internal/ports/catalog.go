package ports

import (
	"context"
	"time"
)

// FlightRecord identifies one permanently saved flight log.
type FlightRecord struct {
	Name        string
	SessionID   string
	PacketCount int
	SavedAt     time.Time
}

// FlightCatalog indexes saved flight records. The CSV copy on disk is the
// durability ground truth; a catalog failure is logged, not fatal.
type FlightCatalog interface {
	RecordFlight(ctx context.Context, rec FlightRecord) error
}
