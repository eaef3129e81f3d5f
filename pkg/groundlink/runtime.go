// Package groundlink wires the full ground station pipeline behind a small
// lifecycle API so the station can run as a binary or be embedded inside
// another Go service.
package groundlink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/catalog"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/collector"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/flightlog"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/observability"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/queue"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/api/httpapi"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/app/pipeline"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/broadcast"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/session"
)

// ErrQueueFull indicates the ingestion queue rejected the record according
// to policy.
var ErrQueueFull = errors.New("groundlink: queue full")

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	collector     ports.Collector
	queue         ports.PacketQueue
	observability ports.Observability
	catalog       ports.FlightCatalog
}

// WithCollector injects a custom downlink source (serial bridges, replay
// readers, simulators).
func WithCollector(col Collector) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.collector = col
	}
}

// WithQueue injects a custom queue implementation.
func WithQueue(q PacketQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithCatalog injects a custom flight catalog, bypassing the Postgres
// connection the config would otherwise open.
func WithCatalog(cat FlightCatalog) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.catalog = cat
	}
}

// Runtime wires up the collector, queue, session store, broadcaster, and the
// HTTP surfaces, and exposes simple lifecycle hooks.
type Runtime struct {
	cfg        *Config
	obs        ports.Observability
	queue      ports.PacketQueue
	collector  ports.Collector
	hub        *broadcast.Hub
	store      *session.Store
	ingest     *pipeline.Ingest
	consumer   *pipeline.Consumer
	db         *sql.DB
	apiSrv     *http.Server
	metricsSrv *http.Server

	gaugeStopCh chan struct{}
}

// NewRuntime bootstraps the default adapters: a UDP or simulator collector
// per the config, the in-memory packet queue, the file-backed session store,
// the broadcast hub, and Prometheus observability. Options override any
// dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	dir, err := flightlog.OpenDir(cfg.Logs.Dir)
	if err != nil {
		return nil, err
	}

	hub := broadcast.NewHub(cfg.Broadcast.Buffer, obs)

	var db *sql.DB
	cat := overrides.catalog
	if cat == nil && cfg.Catalog.ConnString != "" {
		db, err = sql.Open("postgres", cfg.Catalog.ConnString)
		if err != nil {
			return nil, err
		}
		cat = catalog.NewPostgresCatalog(db, cfg.Catalog.Table)
	}

	store, err := session.NewStore(dir, hub, cat, obs)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	q := overrides.queue
	if q == nil {
		q = queue.NewMemQueue(cfg.Policy.MaxQueueLen)
	}

	col := overrides.collector
	if col == nil {
		switch cfg.Collector.Type {
		case "sim":
			col = collector.NewSim(cfg.Collector.Sim)
		default:
			col = collector.NewUDP(cfg.Collector.UDP)
		}
	}

	return &Runtime{
		cfg:       cfg,
		obs:       obs,
		queue:     q,
		collector: col,
		hub:       hub,
		store:     store,
		consumer:  pipeline.NewConsumer(store, q, cfg.Policy, obs),
		db:        db,
	}, nil
}

// Start launches the ingestion pipeline, the consumer, the API server, and
// the metrics server. It returns immediately; call Run to block on a context
// instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}

	in, err := pipeline.StartIngest(r.collector, r.queue, r.cfg.Policy, r.obs)
	if err != nil {
		return err
	}
	r.ingest = in
	go r.consumer.Run()

	api := httpapi.NewServer(r.store, r.hub, r.queue, r.cfg.Policy, r.obs, r.consumer.Healthy, httpapi.Options{
		HeartbeatTimeout: r.cfg.Broadcast.HeartbeatTimeout,
		SendTimeout:      r.cfg.Broadcast.SendTimeout,
	})
	r.apiSrv = &http.Server{Addr: r.cfg.HTTP.Addr, Handler: api}
	go func() {
		if err := r.apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogCritical("api_server_exited", err)
		}
	}()

	r.startMetrics()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled,
// then attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown closes the intake surfaces first, in accept order: the API server
// stops admitting injects, the ingest loop drains the collector's remaining
// lines into the queue, and only then does the consumer drain the queue into
// the store. Every packet accepted before Shutdown reaches the session log.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		r.gaugeStopCh = nil
	}

	if r.apiSrv != nil {
		if err := r.apiSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if r.ingest != nil {
		if err := r.ingest.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := r.consumer.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := r.store.Close(); err != nil {
		errs = append(errs, err)
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Inject pushes one raw record through the same decode and policy path the
// collector uses.
func (r *Runtime) Inject(record string) error {
	p, err := domain.Decode(record, time.Now())
	if err != nil {
		return err
	}
	if !pipeline.Inject(r.queue, p, r.cfg.Policy, r.obs) {
		return ErrQueueFull
	}
	return nil
}

// Snapshot returns the current session's normalized samples and metadata.
func (r *Runtime) Snapshot() ([]Sample, SessionMeta) {
	return r.store.Snapshot()
}

// Clear archives the current session and starts a fresh one anchored at the
// last received raw timestamp.
func (r *Runtime) Clear() (SessionMeta, error) {
	return r.store.Clear()
}

// Save writes the current session to a named flight file without disturbing
// the live session.
func (r *Runtime) Save(ctx context.Context) (string, error) {
	return r.store.Save(ctx)
}

// SaveAndClear saves the current session and then starts a fresh one with no
// takeoff anchor.
func (r *Runtime) SaveAndClear(ctx context.Context) (string, SessionMeta, error) {
	return r.store.SaveAndClear(ctx)
}

// Healthy reports whether the durable append path is keeping up.
func (r *Runtime) Healthy() bool {
	return r.consumer.Healthy()
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	go r.recordResourceGauges(r.gaugeStopCh, time.Second)
}

func (r *Runtime) recordResourceGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.obs.SetGauge("gs_queue_length", float64(r.queue.Len()))
			r.obs.SetGauge("gs_session_packet_count", float64(r.store.Meta().PacketCount))
		}
	}
}
