package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/flightlog"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// ErrTransitionInFlight rejects a clear/save attempted while another
// transition is still running. Transitions never interleave.
var ErrTransitionInFlight = errors.New("session: transition already in flight")

// Store owns the current flight session: its durable backing log, the
// in-memory sample index, and the takeoff-offset state. All mutating
// operations are serialized by one mutex, so every transition observes a
// complete session and no append is ever split across a transition.
//
// Committed output is pushed to the event sink while the mutex is still
// held, which makes delivery order identical to commit order: a clear's
// control signal always lands after the old session's last sample and
// before the new session's first.
type Store struct {
	mu      sync.Mutex
	dir     *flightlog.Dir
	writer  *flightlog.Writer
	events  ports.EventSink
	catalog ports.FlightCatalog
	obs     ports.Observability

	meta      domain.SessionMeta
	samples   []domain.Sample
	lastRaw   float64
	hasPacket bool
	seq       uint64

	transition atomic.Bool
}

// NewStore opens the log directory and starts the first session. The event
// sink and catalog may be nil.
func NewStore(dir *flightlog.Dir, events ports.EventSink, catalog ports.FlightCatalog, obs ports.Observability) (*Store, error) {
	s := &Store{dir: dir, events: events, catalog: catalog, obs: obs}
	if err := s.startSessionLocked(nil); err != nil {
		return nil, err
	}
	obs.LogInfo("session_started", ports.Field{Key: "id", Value: s.meta.ID})
	return s, nil
}

// Append durably records the packet into the current session's backing log,
// then updates the in-memory index and publishes the derived samples. The
// disk write completes (or fails loudly) before this returns.
func (s *Store) Append(p *domain.Packet) ([]domain.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Append(p); err != nil {
		return nil, fmt.Errorf("durable append: %w", err)
	}

	s.seq++
	s.meta.PacketCount++
	s.meta.LastSeq = s.seq
	s.lastRaw = p.RawTime
	s.hasPacket = true

	samples := p.Samples(s.meta.TakeoffOffset)
	s.samples = append(s.samples, samples...)

	if s.events != nil {
		s.events.PublishSamples(s.seq, samples)
	}
	return samples, nil
}

// Snapshot returns every normalized sample of the current session plus its
// metadata, consistent with the latest completed append.
func (s *Store) Snapshot() ([]domain.Sample, domain.SessionMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Sample, len(s.samples))
	copy(out, s.samples)
	return out, s.meta
}

// Meta returns the current session metadata.
func (s *Store) Meta() domain.SessionMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Clear marks takeoff: the current backing log moves to the archive, the
// raw time of the most recent packet becomes the new session's takeoff
// offset, and a fresh session begins. The archived log is never mutated
// again.
func (s *Store) Clear() (domain.SessionMeta, error) {
	if !s.transition.CompareAndSwap(false, true) {
		return domain.SessionMeta{}, ErrTransitionInFlight
	}
	defer s.transition.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dir.ArchiveCurrent(s.writer, s.meta.ID); err != nil {
		return domain.SessionMeta{}, err
	}

	var offset *float64
	if s.hasPacket {
		v := s.lastRaw
		offset = &v
	}
	if err := s.startSessionLocked(offset); err != nil {
		return domain.SessionMeta{}, err
	}

	if s.events != nil {
		now := time.Now()
		s.events.PublishClear(s.seq, domain.ClearSignal{TakeoffOffset: offset, TakeoffTime: &now})
	}
	s.obs.LogInfo("session_cleared", ports.Field{Key: "id", Value: s.meta.ID})
	return s.meta, nil
}

// Save copies the current backing log to a permanent flight record. The
// session continues recording uninterrupted.
func (s *Store) Save(ctx context.Context) (string, error) {
	if !s.transition.CompareAndSwap(false, true) {
		return "", ErrTransitionInFlight
	}
	defer s.transition.Store(false)

	s.mu.Lock()
	rec, err := s.saveCurrentLocked()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	s.recordInCatalog(ctx, rec)
	return rec.Name, nil
}

// SaveAndClear combines Save's permanent copy with Clear's reset, but the
// new session starts with no takeoff offset at all. Copy, archive, and
// restart happen under one lock hold, so no append can land between the
// saved flight and the archived log.
func (s *Store) SaveAndClear(ctx context.Context) (string, domain.SessionMeta, error) {
	if !s.transition.CompareAndSwap(false, true) {
		return "", domain.SessionMeta{}, ErrTransitionInFlight
	}
	defer s.transition.Store(false)

	s.mu.Lock()
	rec, err := s.saveCurrentLocked()
	if err != nil {
		s.mu.Unlock()
		return "", domain.SessionMeta{}, err
	}
	if err := s.dir.ArchiveCurrent(s.writer, s.meta.ID); err != nil {
		s.mu.Unlock()
		return "", domain.SessionMeta{}, err
	}
	if err := s.startSessionLocked(nil); err != nil {
		s.mu.Unlock()
		return "", domain.SessionMeta{}, err
	}
	if s.events != nil {
		s.events.PublishClear(s.seq, domain.ClearSignal{})
	}
	meta := s.meta
	s.mu.Unlock()

	s.obs.LogInfo("session_saved_and_cleared",
		ports.Field{Key: "flight", Value: rec.Name},
		ports.Field{Key: "id", Value: meta.ID})
	s.recordInCatalog(ctx, rec)
	return rec.Name, meta, nil
}

// Close flushes and closes the current backing log. Used on shutdown, after
// the pipeline has drained its durable obligations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Close()
}

// saveCurrentLocked copies the current backing log to a permanent flight
// record. Caller holds s.mu, so the copy and the session state it describes
// cannot drift apart.
func (s *Store) saveCurrentLocked() (ports.FlightRecord, error) {
	now := time.Now()
	name, err := s.dir.SaveCurrent(s.writer, now)
	if err != nil {
		return ports.FlightRecord{}, err
	}
	s.obs.IncCounter("gs_flights_saved_total", 1)
	s.obs.LogInfo("flight_saved", ports.Field{Key: "flight", Value: name})
	return ports.FlightRecord{
		Name:        name,
		SessionID:   s.meta.ID,
		PacketCount: s.meta.PacketCount,
		SavedAt:     now,
	}, nil
}

// recordInCatalog runs outside the session mutex: the CSV copy is already
// durable, the catalog row is advisory.
func (s *Store) recordInCatalog(ctx context.Context, rec ports.FlightRecord) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.RecordFlight(ctx, rec); err != nil {
		s.obs.LogError("catalog_record_failed", err, ports.Field{Key: "flight", Value: rec.Name})
	}
}

// startSessionLocked opens a fresh backing log and resets per-session state.
// The global packet sequence keeps counting across sessions so late joiners
// can always order live traffic against their snapshot.
func (s *Store) startSessionLocked(offset *float64) error {
	w, err := s.dir.NewSessionLog()
	if err != nil {
		return err
	}
	now := time.Now()
	s.writer = w
	s.meta = domain.SessionMeta{
		ID:            now.Format("20060102-150405.000"),
		StartedAt:     now,
		TakeoffOffset: offset,
		LastSeq:       s.seq,
	}
	s.samples = s.samples[:0]
	s.hasPacket = false
	return nil
}
