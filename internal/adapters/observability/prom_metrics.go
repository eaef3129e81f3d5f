package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	ingested := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gs_packets_ingested_total",
		Help: "Total packets durably appended to the session log.",
	})
	decodeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gs_decode_failures_total",
		Help: "Malformed downlink records dropped before the queue.",
	})
	queueDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gs_queue_dropped_total",
		Help: "Packets lost to queue backpressure policies (bench policies only).",
	})
	clientDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gs_clients_dropped_total",
		Help: "Viewer connections removed after a stalled or failed send.",
	})
	flightsSaved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gs_flights_saved_total",
		Help: "Permanent flight records written.",
	})
	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gs_queue_length",
		Help: "Packets currently buffered in the ingestion queue.",
	})
	clientGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gs_connected_clients",
		Help: "Live viewer connections.",
	})
	sessionGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gs_session_packet_count",
		Help: "Packets recorded in the current session.",
	})
	faultGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gs_durable_fault",
		Help: "1 while durable appends are persistently failing.",
	})
	appendLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gs_append_latency_seconds",
		Help:    "Latency from dequeue to durable append plus broadcast.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	prometheus.MustRegister(ingested, decodeFailures, queueDrops, clientDrops,
		flightsSaved, queueGauge, clientGauge, sessionGauge, faultGauge, appendLatency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"gs_packets_ingested_total": ingested,
			"gs_decode_failures_total":  decodeFailures,
			"gs_queue_dropped_total":    queueDrops,
			"gs_clients_dropped_total":  clientDrops,
			"gs_flights_saved_total":    flightsSaved,
		},
		gauges: map[string]prometheus.Gauge{
			"gs_queue_length":         queueGauge,
			"gs_connected_clients":    clientGauge,
			"gs_session_packet_count": sessionGauge,
			"gs_durable_fault":        faultGauge,
		},
		histos: map[string]prometheus.Observer{
			"gs_append_latency_seconds": appendLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, renderFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, renderFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v%s", msg, err, renderFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDecodeFailure(line string, err error) {
	p.IncCounter("gs_decode_failures_total", 1)
	if len(line) > 64 {
		line = line[:64] + "..."
	}
	log.Printf("ERROR: decode_failed: %v record=%q", err, line)
}

func renderFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}
