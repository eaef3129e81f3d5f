package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/app/pipeline"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/broadcast"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/session"
)

// handler contains the HTTP handlers and shared dependencies for the REST API.
type handler struct {
	store   *session.Store
	hub     *broadcast.Hub
	queue   ports.PacketQueue
	pol     ports.Policy
	obs     ports.Observability
	healthy func() bool
	opts    Options
}

func registerRoutes(router chi.Router, h *handler) {
	router.Get("/api/session", h.handleSnapshot)
	router.Post("/api/session/clear", h.handleClear)
	router.Post("/api/session/save", h.handleSave)
	router.Post("/api/session/save-and-clear", h.handleSaveAndClear)
	router.Post("/api/telemetry/inject", h.handleInject)
	router.Get("/api/stats", h.handleStats)
	router.Get("/healthz", h.handleHealth)
	router.Get("/ws", h.handleWS)
}

type snapshotResponse struct {
	Session domain.SessionMeta `json:"session"`
	Samples []domain.Sample    `json:"samples"`
}

type saveResponse struct {
	Flight  string              `json:"flight"`
	Session *domain.SessionMeta `json:"session,omitempty"`
}

type injectRequest struct {
	Record string `json:"record"`
}

type statsResponse struct {
	ConnectedClients int    `json:"connected_clients"`
	QueueDepth       int    `json:"queue_depth"`
	PacketCount      int    `json:"packet_count"`
	SessionID        string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (h *handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	samples, meta := h.store.Snapshot()
	if samples == nil {
		samples = []domain.Sample{}
	}
	h.writeJSON(w, http.StatusOK, snapshotResponse{Session: meta, Samples: samples})
}

func (h *handler) handleClear(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.Clear()
	if err != nil {
		h.respondTransitionError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, meta)
}

func (h *handler) handleSave(w http.ResponseWriter, r *http.Request) {
	name, err := h.store.Save(r.Context())
	if err != nil {
		h.respondTransitionError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, saveResponse{Flight: name})
}

func (h *handler) handleSaveAndClear(w http.ResponseWriter, r *http.Request) {
	name, meta, err := h.store.SaveAndClear(r.Context())
	if err != nil {
		h.respondTransitionError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, saveResponse{Flight: name, Session: &meta})
}

// handleInject accepts one well-typed test record. The record must decode
// before it is queued; malformed input never enters the pipeline.
func (h *handler) handleInject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "body must be JSON with a record field")
		return
	}
	if req.Record == "" {
		h.writeError(w, http.StatusBadRequest, "record is required")
		return
	}

	p, err := domain.Decode(req.Record, time.Now())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "record does not decode: "+err.Error())
		return
	}

	if !pipeline.Inject(h.queue, p, h.pol, h.obs) {
		h.writeError(w, http.StatusServiceUnavailable, "ingestion queue rejected the record")
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	meta := h.store.Meta()
	h.writeJSON(w, http.StatusOK, statsResponse{
		ConnectedClients: h.hub.Count(),
		QueueDepth:       h.queue.Len(),
		PacketCount:      meta.PacketCount,
		SessionID:        meta.ID,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.healthy != nil && !h.healthy() {
		h.writeError(w, http.StatusServiceUnavailable, "durable writes are failing")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handler) respondTransitionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrTransitionInFlight) {
		h.writeError(w, http.StatusConflict, "another transition is in flight")
		return
	}
	h.obs.LogError("session_transition_failed", err)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}

func (h *handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message, Code: status})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
