package ports

import "github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"

// PacketQueue is the bounded hand-off between the downlink producer and the
// session pipeline. Enqueue reports false when the queue is at capacity; the
// caller applies the backpressure policy. DequeueBatch preserves FIFO
// arrival order and never reorders.
type PacketQueue interface {
	Enqueue(p *domain.Packet) bool
	DequeueBatch(max int) []*domain.Packet
	Len() int
}
