package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// PostgresCatalog indexes saved flight records in a flights table so the
// team can query past flights without walking the log directory. The CSV
// copy on disk remains the durability ground truth.
type PostgresCatalog struct {
	db        *sql.DB
	tableName string
}

func NewPostgresCatalog(db *sql.DB, table string) *PostgresCatalog {
	return &PostgresCatalog{db: db, tableName: table}
}

func (c *PostgresCatalog) RecordFlight(ctx context.Context, rec ports.FlightRecord) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (name, session_id, packet_count, saved_at) VALUES ($1,$2,$3,$4) ON CONFLICT (name) DO NOTHING",
		c.tableName,
	)
	if _, err := c.db.ExecContext(ctx, query, rec.Name, rec.SessionID, rec.PacketCount, rec.SavedAt); err != nil {
		return fmt.Errorf("catalog insert: %w", err)
	}
	return nil
}

var _ ports.FlightCatalog = (*PostgresCatalog)(nil)
