package broadcast

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

var errOutboundFull = errors.New("broadcast: outbound buffer full")

// EventKind discriminates the two message shapes live viewers receive.
type EventKind int

const (
	// EventSamples carries one packet's normalized samples.
	EventSamples EventKind = iota
	// EventClear announces a session transition; viewers discard their
	// accumulated view when they see it.
	EventClear
)

// Event is one ordered unit of live delivery. Seq is the packet sequence of
// the event's commit point: for samples, the packet itself; for a clear, the
// last packet committed before the transition.
type Event struct {
	Kind    EventKind
	Seq     uint64
	Samples []domain.Sample
	Clear   domain.ClearSignal
}

// Covered reports whether a snapshot taken at snapshotSeq already reflects
// this event. A client that registers before taking its snapshot may find
// events in its buffer the snapshot also contains; covered events are
// duplicates and must not be forwarded. A clear at the exact boundary is not
// covered, because the snapshot may have been taken on either side of the
// transition and replaying a clear against an empty view is harmless.
func (e Event) Covered(snapshotSeq uint64) bool {
	if e.Kind == EventClear {
		return e.Seq < snapshotSeq
	}
	return e.Seq <= snapshotSeq
}

// Client is one live viewer connection. Events arrive on a buffered channel
// drained by the transport's writer goroutine; the channel is closed when
// the client is unregistered.
type Client struct {
	ID     uuid.UUID
	events chan Event
}

// Events is the client's ordered outbound stream.
func (c *Client) Events() <-chan Event { return c.events }

// Hub fans committed pipeline output out to every registered client.
// Publishing hands each event to per-client channels and never blocks: a
// client whose buffer is full has stopped draining, and is removed on the
// spot so it cannot delay anyone else. The channel capacity, times the
// publish rate, is the slow-client grace window.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*Client
	buffer  int
	obs     ports.Observability
}

func NewHub(buffer int, obs ports.Observability) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		buffer:  buffer,
		obs:     obs,
	}
}

// Register adds a connection and makes it eligible for all future publishes.
// History is not delivered retroactively; callers compose a snapshot with
// the live stream using sequence numbers.
func (h *Hub) Register() *Client {
	c := &Client{
		ID:     uuid.New(),
		events: make(chan Event, h.buffer),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.obs.LogInfo("client_registered",
		ports.Field{Key: "client", Value: c.ID.String()},
		ports.Field{Key: "clients", Value: n})
	h.obs.SetGauge("gs_connected_clients", float64(n))
	return c
}

// Unregister removes a connection and closes its event channel. Idempotent;
// safe to call from send-failure paths and disconnect paths alike.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(c.events)
	h.obs.LogInfo("client_unregistered",
		ports.Field{Key: "client", Value: id.String()},
		ports.Field{Key: "clients", Value: n})
	h.obs.SetGauge("gs_connected_clients", float64(n))
}

// Count reports the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PublishSamples delivers one packet's samples to every client.
func (h *Hub) PublishSamples(seq uint64, samples []domain.Sample) {
	h.publish(Event{Kind: EventSamples, Seq: seq, Samples: samples})
}

// PublishClear delivers a session-transition control signal to every client.
func (h *Hub) PublishClear(seq uint64, sig domain.ClearSignal) {
	h.publish(Event{Kind: EventClear, Seq: seq, Clear: sig})
}

func (h *Hub) publish(ev Event) {
	h.mu.Lock()
	var stalled []*Client
	for _, c := range h.clients {
		select {
		case c.events <- ev:
		default:
			// Full buffer: the writer stopped draining. Drop the client,
			// not the event; everyone else is delivered in this same call.
			delete(h.clients, c.ID)
			stalled = append(stalled, c)
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	for _, c := range stalled {
		close(c.events)
		h.obs.IncCounter("gs_clients_dropped_total", 1)
		h.obs.LogError("client_send_stalled", errOutboundFull,
			ports.Field{Key: "client", Value: c.ID.String()})
	}
	if len(stalled) > 0 {
		h.obs.SetGauge("gs_connected_clients", float64(n))
	}
}

var _ ports.EventSink = (*Hub)(nil)
