package catalog

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

func TestPostgresCatalogRecordFlight(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	cat := NewPostgresCatalog(db, "flights")
	savedAt := time.Now()

	expectedQuery := regexp.QuoteMeta("INSERT INTO flights (name, session_id, packet_count, saved_at) VALUES ($1,$2,$3,$4) ON CONFLICT (name) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs("flight_2026-04-12_10-31-02.csv", "20260412-103000.000", 120, savedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := ports.FlightRecord{
		Name:        "flight_2026-04-12_10-31-02.csv",
		SessionID:   "20260412-103000.000",
		PacketCount: 120,
		SavedAt:     savedAt,
	}
	if err := cat.RecordFlight(context.Background(), rec); err != nil {
		t.Fatalf("record flight: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
