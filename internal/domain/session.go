package domain

import "time"

// SessionMeta describes the current recording epoch. TakeoffOffset is nil
// until the first mid-flight clear marks takeoff; LastSeq is the sequence
// number of the most recently committed packet, 0 when none.
type SessionMeta struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	TakeoffOffset *float64  `json:"takeoff_offset"`
	PacketCount   int       `json:"packet_count"`
	LastSeq       uint64    `json:"last_seq"`
}

// ClearSignal announces a session transition to live viewers. A nil
// TakeoffOffset means a full reset (save-and-clear) rather than a takeoff.
type ClearSignal struct {
	TakeoffOffset *float64   `json:"takeoff_offset"`
	TakeoffTime   *time.Time `json:"takeoff_time"`
}
