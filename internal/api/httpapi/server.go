package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/broadcast"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/session"
)

// Options carries the transport tuning knobs the handlers need.
type Options struct {
	HeartbeatTimeout time.Duration
	SendTimeout      time.Duration
}

// Server exposes the ground station's query surface and the live WebSocket
// stream.
type Server struct {
	router chi.Router
}

func NewServer(store *session.Store, hub *broadcast.Hub, queue ports.PacketQueue, pol ports.Policy, obs ports.Observability, healthy func() bool, opts Options) *Server {
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = 30 * time.Second
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 5 * time.Second
	}

	h := &handler{
		store:   store,
		hub:     hub,
		queue:   queue,
		pol:     pol,
		obs:     obs,
		healthy: healthy,
		opts:    opts,
	}

	r := chi.NewRouter()
	registerRoutes(r, h)
	return &Server{router: r}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
