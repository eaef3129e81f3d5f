package session

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/flightlog"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)            {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) LogCritical(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)                {}
func (nopObs) ObserveLatency(string, float64)            {}
func (nopObs) SetGauge(string, float64)                  {}
func (nopObs) RecordDecodeFailure(string, error)         {}

type recordedEvent struct {
	clear bool
	seq   uint64
	time  float64
	sig   domain.ClearSignal
}

type recordingSink struct {
	events []recordedEvent
}

func (r *recordingSink) PublishSamples(seq uint64, samples []domain.Sample) {
	r.events = append(r.events, recordedEvent{seq: seq, time: samples[0].Time})
}

func (r *recordingSink) PublishClear(seq uint64, sig domain.ClearSignal) {
	r.events = append(r.events, recordedEvent{clear: true, seq: seq, sig: sig})
}

func mkPacket(rawSeconds float64) *domain.Packet {
	p := &domain.Packet{RawTime: rawSeconds, ReceivedAt: time.Now()}
	p.Values[domain.FieldCurTime] = rawSeconds * 1000
	p.Values[domain.FieldAltitude] = 42
	return p
}

func newTestStore(t *testing.T, sink ports.EventSink) (*Store, *flightlog.Dir) {
	t.Helper()
	dir, err := flightlog.OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("open dir: %v", err)
	}
	s, err := NewStore(dir, sink, nil, nopObs{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, dir
}

func countDataRows(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return len(rows) - 1 // header
}

func TestAppendBeforeClearUsesRawTime(t *testing.T) {
	s, _ := newTestStore(t, nil)
	defer s.Close()

	samples, err := s.Append(mkPacket(37.5))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	for _, sm := range samples {
		if sm.Time != 37.5 {
			t.Fatalf("expected raw time 37.5 before any clear, got %v", sm.Time)
		}
	}

	_, meta := s.Snapshot()
	if meta.TakeoffOffset != nil {
		t.Fatalf("takeoff offset should be unset before first clear")
	}
	if meta.PacketCount != 1 || meta.LastSeq != 1 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestClearSetsOffsetAndArchives(t *testing.T) {
	s, dir := newTestStore(t, nil)
	defer s.Close()

	for _, raw := range []float64{100, 100, 150} {
		if _, err := s.Append(mkPacket(raw)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	samples, meta := s.Snapshot()
	if len(samples) != 3*domain.SamplesPerPacket {
		t.Fatalf("expected %d samples, got %d", 3*domain.SamplesPerPacket, len(samples))
	}
	wantTimes := []float64{100, 100, 150}
	for i, want := range wantTimes {
		if got := samples[i*domain.SamplesPerPacket].Time; got != want {
			t.Fatalf("packet %d: expected time %v, got %v", i, want, got)
		}
	}
	oldID := meta.ID

	newMeta, err := s.Clear()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if newMeta.TakeoffOffset == nil || *newMeta.TakeoffOffset != 150 {
		t.Fatalf("expected takeoff offset 150, got %v", newMeta.TakeoffOffset)
	}
	if newMeta.PacketCount != 0 {
		t.Fatalf("new session should start empty")
	}

	// Snapshot resets, archive preserves.
	post, _ := s.Snapshot()
	if len(post) != 0 {
		t.Fatalf("snapshot should be empty after clear, got %d samples", len(post))
	}
	if got := countDataRows(t, dir.ArchivePath(oldID)); got != 3 {
		t.Fatalf("archived log should hold 3 rows, got %d", got)
	}

	// Mission clock: raw 152 normalizes to 2.0.
	samples, err = s.Append(mkPacket(152))
	if err != nil {
		t.Fatalf("append after clear: %v", err)
	}
	if samples[0].Time != 2.0 {
		t.Fatalf("expected normalized time 2.0, got %v", samples[0].Time)
	}
}

func TestClearWithoutPacketsLeavesOffsetUnset(t *testing.T) {
	s, _ := newTestStore(t, nil)
	defer s.Close()

	meta, err := s.Clear()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if meta.TakeoffOffset != nil {
		t.Fatalf("offset should stay unset when no packet was ever appended")
	}
}

func TestSaveIsNonDestructive(t *testing.T) {
	s, dir := newTestStore(t, nil)
	defer s.Close()

	if _, err := s.Append(mkPacket(10)); err != nil {
		t.Fatalf("append: %v", err)
	}

	name, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := countDataRows(t, dir.FlightPath(name)); got != 1 {
		t.Fatalf("saved record should hold 1 row, got %d", got)
	}

	// Session continues accumulating into the same log.
	if _, err := s.Append(mkPacket(11)); err != nil {
		t.Fatalf("append after save: %v", err)
	}
	samples, meta := s.Snapshot()
	if meta.PacketCount != 2 || len(samples) != 2*domain.SamplesPerPacket {
		t.Fatalf("save must not disturb the session: %+v", meta)
	}
}

func TestSaveAndClearResetsOffset(t *testing.T) {
	s, dir := newTestStore(t, nil)
	defer s.Close()

	for _, raw := range []float64{100, 150} {
		if _, err := s.Append(mkPacket(raw)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.Append(mkPacket(160)); err != nil {
		t.Fatalf("append: %v", err)
	}

	name, meta, err := s.SaveAndClear(context.Background())
	if err != nil {
		t.Fatalf("save and clear: %v", err)
	}
	if meta.TakeoffOffset != nil {
		t.Fatalf("save-and-clear must reset the takeoff offset")
	}
	if got := countDataRows(t, dir.FlightPath(name)); got != 1 {
		t.Fatalf("flight record should hold the pre-transition row, got %d", got)
	}

	samples, err := s.Append(mkPacket(200))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if samples[0].Time != 200 {
		t.Fatalf("new session should be back on the raw clock, got %v", samples[0].Time)
	}
	if got := s.Meta(); got.PacketCount != 1 {
		t.Fatalf("new session packet count should be 1, got %d", got.PacketCount)
	}
}

func TestNoPacketLossAcrossTransitions(t *testing.T) {
	s, dir := newTestStore(t, nil)

	var ids []string
	appended := 0
	for i := 0; i < 10; i++ {
		if _, err := s.Append(mkPacket(float64(i))); err != nil {
			t.Fatalf("append: %v", err)
		}
		appended++
		switch i {
		case 3:
			ids = append(ids, s.Meta().ID)
			if _, err := s.Clear(); err != nil {
				t.Fatalf("clear: %v", err)
			}
		case 6:
			if _, err := s.Save(context.Background()); err != nil {
				t.Fatalf("save: %v", err)
			}
		case 8:
			ids = append(ids, s.Meta().ID)
			if _, _, err := s.SaveAndClear(context.Background()); err != nil {
				t.Fatalf("save and clear: %v", err)
			}
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	total := countDataRows(t, dir.CurrentPath())
	for _, id := range ids {
		total += countDataRows(t, dir.ArchivePath(id))
	}
	if total != appended {
		t.Fatalf("expected %d rows across current+archive, got %d", appended, total)
	}
}

func TestSaveAndClearAtomicUnderAppends(t *testing.T) {
	s, dir := newTestStore(t, nil)
	oldID := s.Meta().ID

	for i := 0; i < 3; i++ {
		if _, err := s.Append(mkPacket(float64(i))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	const racing = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < racing; i++ {
			if _, err := s.Append(mkPacket(float64(100 + i))); err != nil {
				t.Errorf("append: %v", err)
				return
			}
		}
	}()

	name, _, err := s.SaveAndClear(context.Background())
	if err != nil {
		t.Fatalf("save and clear: %v", err)
	}
	<-done
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// The flight copy and the archived log are taken under the same lock
	// hold, so they must describe the same set of appends.
	saved := countDataRows(t, dir.FlightPath(name))
	archived := countDataRows(t, dir.ArchivePath(oldID))
	if saved != archived {
		t.Fatalf("flight record holds %d rows but archive holds %d", saved, archived)
	}

	// Every append landed either before the transition (archive) or after
	// it (new current log).
	if total := archived + countDataRows(t, dir.CurrentPath()); total != 3+racing {
		t.Fatalf("expected %d rows across archive+current, got %d", 3+racing, total)
	}
}

func TestConcurrentTransitionRejected(t *testing.T) {
	s, _ := newTestStore(t, nil)
	defer s.Close()

	s.transition.Store(true)
	if _, err := s.Clear(); !errors.Is(err, ErrTransitionInFlight) {
		t.Fatalf("expected ErrTransitionInFlight, got %v", err)
	}
	if _, err := s.Save(context.Background()); !errors.Is(err, ErrTransitionInFlight) {
		t.Fatalf("expected ErrTransitionInFlight, got %v", err)
	}
	s.transition.Store(false)

	if _, err := s.Clear(); err != nil {
		t.Fatalf("clear after release: %v", err)
	}
}

func TestEventOrderingAcrossClear(t *testing.T) {
	sink := &recordingSink{}
	s, _ := newTestStore(t, sink)
	defer s.Close()

	if _, err := s.Append(mkPacket(150)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.Append(mkPacket(152)); err != nil {
		t.Fatalf("append: %v", err)
	}

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(sink.events))
	}
	if sink.events[0].clear || sink.events[0].seq != 1 {
		t.Fatalf("first event should be the old session's sample: %+v", sink.events[0])
	}
	mid := sink.events[1]
	if !mid.clear || mid.sig.TakeoffOffset == nil || *mid.sig.TakeoffOffset != 150 {
		t.Fatalf("second event should be the clear signal with offset 150: %+v", mid)
	}
	last := sink.events[2]
	if last.clear || last.seq != 2 || last.time != 2.0 {
		t.Fatalf("third event should be the new session's sample at t=2: %+v", last)
	}
}

func TestSessionLogsLandInArchiveAndBackup(t *testing.T) {
	s, dir := newTestStore(t, nil)
	defer s.Close()

	if _, err := s.Append(mkPacket(1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	id := s.Meta().ID
	if _, err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	for _, path := range []string{dir.ArchivePath(id), dir.BackupPath(id)} {
		if got := countDataRows(t, path); got != 1 {
			t.Fatalf("%s should hold 1 row, got %d", filepath.Base(path), got)
		}
	}
}
