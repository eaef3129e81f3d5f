package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// Ingest feeds the bounded queue from a collector through the decode loop.
// Malformed records are counted and dropped before the queue; they never
// reach the session log. Enqueue backpressure follows the policy: with
// "block" the producer stalls rather than lose telemetry.
type Ingest struct {
	col  ports.Collector
	ch   chan string
	done chan struct{}
}

// StartIngest starts the collector and the decode loop.
func StartIngest(col ports.Collector, q ports.PacketQueue, pol ports.Policy, obs ports.Observability) (*Ingest, error) {
	in := &Ingest{
		col:  col,
		ch:   make(chan string, pol.MaxQueueLen),
		done: make(chan struct{}),
	}

	if err := col.Start(in.ch); err != nil {
		return nil, err
	}

	go func() {
		defer close(in.done)
		for line := range in.ch {
			p, err := domain.Decode(line, time.Now())
			if err != nil {
				obs.RecordDecodeFailure(line, err)
				continue
			}
			if !enqueueWithPolicy(q, p, pol, obs) {
				obs.IncCounter("gs_queue_dropped_total", 1)
			}
		}
	}()

	return in, nil
}

// Stop halts the collector, then waits for the decode loop to finish every
// line the collector already handed over. Collectors only return from Stop
// once their producer goroutines have quit, so closing the channel here
// cannot race a send. Buffered lines reach the queue before Stop returns.
func (in *Ingest) Stop(ctx context.Context) error {
	if err := in.col.Stop(); err != nil {
		return err
	}
	close(in.ch)
	select {
	case <-in.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inject pushes one already-validated record through the same policy path
// the collector uses. Used by the test-injection endpoint.
func Inject(q ports.PacketQueue, p *domain.Packet, pol ports.Policy, obs ports.Observability) bool {
	return enqueueWithPolicy(q, p, pol, obs)
}

func enqueueWithPolicy(q ports.PacketQueue, p *domain.Packet, pol ports.Policy, obs ports.Observability) bool {
	sleep := pol.IdleSleep
	if sleep <= 0 {
		sleep = 5 * time.Millisecond
	}

	for {
		if ok := q.Enqueue(p); ok {
			return true
		}

		switch pol.OnQueueFull {
		case "block":
			time.Sleep(sleep)
		case "drop", "reject":
			obs.LogError("queue_full_drop", fmt.Errorf("queue length exceeded capacity %d", pol.MaxQueueLen))
			return false
		default:
			obs.LogError("queue_policy_invalid", fmt.Errorf("policy=%s", pol.OnQueueFull))
			return false
		}
	}
}
