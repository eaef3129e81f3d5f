package queue

import (
	"sync"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// MemQueue is a bounded in-memory packet queue that preserves FIFO ordering.
type MemQueue struct {
	mu   sync.Mutex
	data []*domain.Packet
	cap  int
}

func NewMemQueue(capacity int) *MemQueue {
	return &MemQueue{
		data: make([]*domain.Packet, 0, capacity),
		cap:  capacity,
	}
}

func (q *MemQueue) Enqueue(p *domain.Packet) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, p)
	return true
}

func (q *MemQueue) DequeueBatch(max int) []*domain.Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]*domain.Packet, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.PacketQueue = (*MemQueue)(nil)
