package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/adapters/queue"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

type mockObs struct {
	mu             sync.Mutex
	errors         []string
	decodeFailures int
}

func (m *mockObs) LogInfo(string, ...ports.Field) {}
func (m *mockObs) LogError(msg string, err error, _ ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
func (m *mockObs) LogCritical(msg string, err error, _ ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}
func (m *mockObs) IncCounter(string, float64)     {}
func (m *mockObs) ObserveLatency(string, float64) {}
func (m *mockObs) SetGauge(string, float64)       {}
func (m *mockObs) RecordDecodeFailure(string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decodeFailures++
}

func (m *mockObs) decodeFailureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decodeFailures
}

type mockAppender struct {
	mu       sync.Mutex
	appended []*domain.Packet
	failures int
}

func (m *mockAppender) Append(p *domain.Packet) ([]domain.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("disk full")
	}
	m.appended = append(m.appended, p)
	return p.Samples(nil), nil
}

func (m *mockAppender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appended)
}

type stubCollector struct {
	lines []string
	wg    sync.WaitGroup
}

func (s *stubCollector) Start(out chan<- string) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, l := range s.lines {
			out <- l
		}
	}()
	return nil
}

func (s *stubCollector) Stop() error {
	s.wg.Wait()
	return nil
}

func validRecord() string {
	return "100,401234567,-1051234567,1523000,15.2,0.3,-9.8,0.05,-0.02,0.1,98.1,10.0,50.0,50.1,1013.25,22.5,300.0,1,45.5,12.3,1,1,0,0,1,1,0,12.6,2"
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestIngestDecodesAndDropsMalformed(t *testing.T) {
	q := queue.NewMemQueue(8)
	obs := &mockObs{}
	col := &stubCollector{lines: []string{validRecord(), "garbage", validRecord()}}
	pol := ports.Policy{MaxQueueLen: 8, OnQueueFull: "block", IdleSleep: time.Millisecond}

	in, err := StartIngest(col, q, pol, obs)
	if err != nil {
		t.Fatalf("start ingest: %v", err)
	}
	defer in.Stop(context.Background())

	waitFor(t, time.Second, func() bool { return q.Len() == 2 })
	if got := obs.decodeFailureCount(); got != 1 {
		t.Fatalf("expected 1 decode failure, got %d", got)
	}
}

func TestIngestStopDrainsBufferedLines(t *testing.T) {
	q := queue.NewMemQueue(64)
	obs := &mockObs{}
	col := &stubCollector{lines: make([]string, 0, 32)}
	for i := 0; i < 32; i++ {
		col.lines = append(col.lines, validRecord())
	}
	pol := ports.Policy{MaxQueueLen: 64, OnQueueFull: "block", IdleSleep: time.Millisecond}

	in, err := StartIngest(col, q, pol, obs)
	if err != nil {
		t.Fatalf("start ingest: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := in.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Every line the collector produced must be in the queue by the time
	// Stop returns; none may be stranded in the decode channel.
	if got := q.Len(); got != 32 {
		t.Fatalf("expected all 32 lines enqueued before stop returned, got %d", got)
	}
}

func TestEnqueueWithPolicyDrop(t *testing.T) {
	q := queue.NewMemQueue(1)
	obs := &mockObs{}
	pol := ports.Policy{MaxQueueLen: 1, OnQueueFull: "drop"}

	if !enqueueWithPolicy(q, &domain.Packet{}, pol, obs) {
		t.Fatalf("first enqueue should succeed")
	}
	if enqueueWithPolicy(q, &domain.Packet{}, pol, obs) {
		t.Fatalf("second enqueue should drop")
	}
	if len(obs.errors) == 0 {
		t.Fatalf("expected drop to be logged")
	}
}

func TestEnqueueWithPolicyBlockThenSucceed(t *testing.T) {
	q := queue.NewMemQueue(1)
	obs := &mockObs{}
	pol := ports.Policy{MaxQueueLen: 1, OnQueueFull: "block", IdleSleep: time.Millisecond}

	if !enqueueWithPolicy(q, &domain.Packet{}, pol, obs) {
		t.Fatalf("first enqueue should succeed")
	}

	done := make(chan bool, 1)
	go func() { done <- enqueueWithPolicy(q, &domain.Packet{}, pol, obs) }()

	time.Sleep(5 * time.Millisecond)
	q.DequeueBatch(1)

	select {
	case ok := <-done:
		if !ok {
			t.Fatalf("blocked enqueue should succeed once capacity frees")
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked enqueue never completed")
	}
}

func TestConsumerDrainsQueueOnStop(t *testing.T) {
	q := queue.NewMemQueue(64)
	app := &mockAppender{}
	pol := ports.Policy{MaxQueueLen: 64, MaxBatchSize: 8, IdleSleep: time.Millisecond, AppendRetries: 3, OnQueueFull: "block"}

	for i := 0; i < 20; i++ {
		q.Enqueue(&domain.Packet{RawTime: float64(i)})
	}

	c := NewConsumer(app, q, pol, &mockObs{})
	go c.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := app.count(); got != 20 {
		t.Fatalf("expected all 20 packets appended before stop returned, got %d", got)
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be drained")
	}
}

func TestConsumerRetriesAndSurfacesFault(t *testing.T) {
	q := queue.NewMemQueue(8)
	app := &mockAppender{failures: 4}
	pol := ports.Policy{MaxQueueLen: 8, MaxBatchSize: 8, IdleSleep: time.Millisecond, AppendRetries: 2, OnQueueFull: "block"}
	obs := &mockObs{}

	c := NewConsumer(app, q, pol, obs)
	q.Enqueue(&domain.Packet{})
	go c.Run()

	// Retries outlast the budget, so the fault surfaces, then clears once
	// the append finally lands.
	waitFor(t, 2*time.Second, func() bool { return app.count() == 1 })
	if !c.Healthy() {
		t.Fatalf("fault should clear after a successful append")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
