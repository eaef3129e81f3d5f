package groundlink

import (
	"sync"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/broadcast"
)

// Tap is an in-process subscription to the live stream: the session history
// at attach time plus every event committed after it, with no gaps and no
// duplicates. It is the embedding-side analog of a WebSocket viewer, so the
// same slow-consumer rule applies: a tap that stops draining its channel is
// dropped by the hub and its channel is closed.
type Tap struct {
	// Session is the session metadata at attach time.
	Session SessionMeta
	// Snapshot holds the samples already accumulated when the tap attached.
	Snapshot []Sample

	events chan Event
	closed chan struct{}
	hub    *broadcast.Hub
	client *broadcast.Client
	once   sync.Once
}

// Subscribe attaches a tap to the running pipeline. The tap registers with
// the hub before taking its snapshot, then suppresses buffered events the
// snapshot already covers.
func (r *Runtime) Subscribe() *Tap {
	client := r.hub.Register()
	samples, meta := r.store.Snapshot()

	t := &Tap{
		Session:  meta,
		Snapshot: samples,
		events:   make(chan Event),
		closed:   make(chan struct{}),
		hub:      r.hub,
		client:   client,
	}
	go t.forward()
	return t
}

// Events yields live events in commit order, starting strictly after the
// snapshot. The channel is closed when the tap is closed or dropped.
func (t *Tap) Events() <-chan Event { return t.events }

// Close detaches the tap. Safe to call more than once.
func (t *Tap) Close() {
	t.once.Do(func() {
		close(t.closed)
		t.hub.Unregister(t.client.ID)
	})
}

func (t *Tap) forward() {
	defer close(t.events)
	for ev := range t.client.Events() {
		if ev.Covered(t.Session.LastSeq) {
			continue
		}
		select {
		case t.events <- ev:
		case <-t.closed:
			return
		}
	}
}
