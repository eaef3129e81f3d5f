package broadcast

import (
	"testing"

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

func TestPublishDeliversInOrder(t *testing.T) {
	h := NewHub(8, nopObs{})
	c := h.Register()

	h.PublishSamples(1, []domain.Sample{{Time: 1, Source: "altitude", Value: 10}})
	h.PublishSamples(2, []domain.Sample{{Time: 2, Source: "altitude", Value: 20}})

	ev := <-c.Events()
	if ev.Kind != EventSamples || ev.Seq != 1 || ev.Samples[0].Value != 10 {
		t.Fatalf("unexpected first event: %+v", ev)
	}
	ev = <-c.Events()
	if ev.Seq != 2 {
		t.Fatalf("unexpected second event: %+v", ev)
	}
}

func TestStalledClientIsIsolated(t *testing.T) {
	h := NewHub(1, nopObs{})
	stalled := h.Register()
	healthy := h.Register()

	// Fill the stalled client's one-slot buffer, drain the healthy client,
	// then publish again: the stalled client must be removed while the
	// healthy one still gets the event in the same call.
	h.PublishSamples(1, nil)
	if ev := <-healthy.Events(); ev.Seq != 1 {
		t.Fatalf("healthy client missed seq 1: %+v", ev)
	}
	h.PublishSamples(2, nil)
	if ev := <-healthy.Events(); ev.Seq != 2 {
		t.Fatalf("healthy client missed seq 2: %+v", ev)
	}

	// The stalled client's channel holds seq 1 and is then closed.
	if ev, ok := <-stalled.Events(); !ok || ev.Seq != 1 {
		t.Fatalf("expected buffered seq 1 before close, got %+v ok=%v", ev, ok)
	}
	if _, ok := <-stalled.Events(); ok {
		t.Fatalf("stalled client channel should be closed")
	}

	if h.Count() != 1 {
		t.Fatalf("expected 1 remaining client, got %d", h.Count())
	}

	// Healthy client keeps receiving after the removal.
	h.PublishSamples(3, nil)
	if ev := <-healthy.Events(); ev.Seq != 3 {
		t.Fatalf("healthy client missed seq 3: %+v", ev)
	}
}

func TestClearSignalOrdering(t *testing.T) {
	h := NewHub(8, nopObs{})
	c := h.Register()

	offset := 150.0
	h.PublishSamples(1, []domain.Sample{{Time: 150, Source: "altitude", Value: 1}})
	h.PublishClear(1, domain.ClearSignal{TakeoffOffset: &offset})
	h.PublishSamples(2, []domain.Sample{{Time: 2, Source: "altitude", Value: 2}})

	if ev := <-c.Events(); ev.Kind != EventSamples || ev.Seq != 1 {
		t.Fatalf("expected old-session sample first, got %+v", ev)
	}
	ev := <-c.Events()
	if ev.Kind != EventClear || ev.Clear.TakeoffOffset == nil || *ev.Clear.TakeoffOffset != 150 {
		t.Fatalf("expected clear signal second, got %+v", ev)
	}
	if ev := <-c.Events(); ev.Kind != EventSamples || ev.Seq != 2 {
		t.Fatalf("expected new-session sample last, got %+v", ev)
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	h := NewHub(8, nopObs{})
	c := h.Register()

	h.Unregister(c.ID)
	h.Unregister(c.ID)

	if h.Count() != 0 {
		t.Fatalf("expected empty registry, got %d", h.Count())
	}
	if _, ok := <-c.Events(); ok {
		t.Fatalf("events channel should be closed after unregister")
	}
}
