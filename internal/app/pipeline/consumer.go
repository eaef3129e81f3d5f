package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// Appender is the session store surface the consumer needs.
type Appender interface {
	Append(p *domain.Packet) ([]domain.Sample, error)
}

// Consumer is the single loop that drains the queue into the session store.
// Session state needs no finer locking because this is the only appender.
//
// A durable-write failure is retried with backoff; after the policy's retry
// budget the consumer surfaces a persistent fault (health goes not-ready)
// but keeps retrying the same packet, so the queue backs up and the
// block-producer policy propagates the stall instead of losing data.
type Consumer struct {
	store Appender
	queue ports.PacketQueue
	pol   ports.Policy
	obs   ports.Observability

	faulted atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewConsumer(store Appender, q ports.PacketQueue, pol ports.Policy, obs ports.Observability) *Consumer {
	return &Consumer{
		store:  store,
		queue:  q,
		pol:    pol,
		obs:    obs,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Run blocks, draining the queue until Stop is called and the queue is
// empty: every accepted packet reaches the durable log before Run returns.
func (c *Consumer) Run() {
	defer close(c.doneCh)

	idle := c.pol.IdleSleep
	if idle <= 0 {
		idle = 5 * time.Millisecond
	}

	for {
		batch := c.queue.DequeueBatch(c.pol.MaxBatchSize)
		if len(batch) == 0 {
			select {
			case <-c.stopCh:
				if c.queue.Len() == 0 {
					return
				}
			default:
			}
			time.Sleep(idle)
			continue
		}

		for _, p := range batch {
			c.appendUntilDurable(p)
		}
	}
}

// Stop signals the loop to finish its durable obligations and waits for it,
// respecting the caller's deadline.
func (c *Consumer) Stop(ctx context.Context) error {
	close(c.stopCh)
	select {
	case <-c.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Healthy reports false while durable appends are persistently failing.
func (c *Consumer) Healthy() bool {
	return !c.faulted.Load()
}

func (c *Consumer) appendUntilDurable(p *domain.Packet) {
	idle := c.pol.IdleSleep
	if idle <= 0 {
		idle = 5 * time.Millisecond
	}

	attempts := 0
	for {
		start := time.Now()
		_, err := c.store.Append(p)
		if err == nil {
			c.obs.ObserveLatency("gs_append_latency_seconds", time.Since(start).Seconds())
			c.obs.IncCounter("gs_packets_ingested_total", 1)
			if c.faulted.CompareAndSwap(true, false) {
				c.obs.SetGauge("gs_durable_fault", 0)
				c.obs.LogInfo("durable_fault_cleared")
			}
			return
		}

		attempts++
		c.obs.LogCritical("durable_append_failed", err,
			ports.Field{Key: "attempt", Value: attempts})
		if attempts >= c.pol.AppendRetries && c.faulted.CompareAndSwap(false, true) {
			c.obs.SetGauge("gs_durable_fault", 1)
		}

		backoff := idle * time.Duration(attempts)
		if max := 500 * time.Millisecond; backoff > max {
			backoff = max
		}
		time.Sleep(backoff)
	}
}
