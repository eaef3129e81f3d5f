package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/broadcast"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// Viewers are co-located dashboards; no origin policy.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsSnapshot struct {
	Type    string             `json:"type"`
	Session domain.SessionMeta `json:"session"`
	Samples []domain.Sample    `json:"samples"`
}

type wsTelemetry struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	Samples []domain.Sample `json:"samples"`
}

type wsClear struct {
	Type          string   `json:"type"`
	TakeoffOffset *float64 `json:"takeoffOffset"`
	TakeoffTime   *string  `json:"takeoffTime"`
}

// handleWS composes history with the live stream, gap- and duplicate-free:
// register first so events start buffering, snapshot second, then forward
// only buffered events the snapshot does not already cover. Sample events
// at or below the snapshot's last sequence are duplicates; a clear at the
// snapshot's exact sequence is kept, because the snapshot may have been
// taken on either side of the transition and replaying it is harmless.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.obs.LogError("ws_upgrade_failed", err)
		return
	}

	client := h.hub.Register()
	samples, meta := h.store.Snapshot()
	if samples == nil {
		samples = []domain.Sample{}
	}

	pongCh := make(chan struct{}, 4)
	go h.wsWriter(conn, client, meta, samples, pongCh)
	h.wsReader(conn, client, pongCh)
}

func (h *handler) wsWriter(conn *websocket.Conn, client *broadcast.Client, meta domain.SessionMeta, samples []domain.Sample, pongCh <-chan struct{}) {
	defer conn.Close()

	if err := h.writeWS(conn, wsSnapshot{Type: "snapshot", Session: meta, Samples: samples}); err != nil {
		h.hub.Unregister(client.ID)
		return
	}

	for {
		select {
		case ev, ok := <-client.Events():
			if !ok {
				// The hub dropped us (stalled buffer or unregister).
				return
			}
			msg, send := h.wsMessage(ev, meta.LastSeq)
			if !send {
				continue
			}
			if err := h.writeWS(conn, msg); err != nil {
				h.obs.LogError("ws_send_failed", err,
					ports.Field{Key: "client", Value: client.ID.String()})
				h.hub.Unregister(client.ID)
				return
			}
		case <-pongCh:
			if err := h.writeWS(conn, "pong"); err != nil {
				h.hub.Unregister(client.ID)
				return
			}
		}
	}
}

func (h *handler) wsMessage(ev broadcast.Event, snapshotSeq uint64) (any, bool) {
	if ev.Covered(snapshotSeq) {
		return nil, false
	}
	if ev.Kind == broadcast.EventClear {
		msg := wsClear{Type: "clear", TakeoffOffset: ev.Clear.TakeoffOffset}
		if ev.Clear.TakeoffTime != nil {
			s := ev.Clear.TakeoffTime.Format(time.RFC3339Nano)
			msg.TakeoffTime = &s
		}
		return msg, true
	}
	return wsTelemetry{Type: "telemetry", Seq: ev.Seq, Samples: ev.Samples}, true
}

func (h *handler) writeWS(conn *websocket.Conn, payload any) error {
	conn.SetWriteDeadline(time.Now().Add(h.opts.SendTimeout))
	if s, ok := payload.(string); ok {
		return conn.WriteMessage(websocket.TextMessage, []byte(s))
	}
	return conn.WriteJSON(payload)
}

// wsReader enforces heartbeat liveness: any inbound traffic resets the read
// deadline, an app-level "ping" is answered with "pong", and a silent or
// failed connection is unregistered.
func (h *handler) wsReader(conn *websocket.Conn, client *broadcast.Client, pongCh chan<- struct{}) {
	defer h.hub.Unregister(client.ID)
	defer conn.Close()

	resetDeadline := func() {
		conn.SetReadDeadline(time.Now().Add(h.opts.HeartbeatTimeout))
	}
	resetDeadline()
	conn.SetPongHandler(func(string) error {
		resetDeadline()
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		resetDeadline()
		if string(msg) == "ping" {
			select {
			case pongCh <- struct{}{}:
			default:
			}
		}
	}
}
