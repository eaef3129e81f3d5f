package ports

import "time"

// Policy bounds the ingestion pipeline. OnQueueFull "block" is the only
// policy suitable for a live flight: telemetry loss is unacceptable, so the
// producer stalls instead of dropping. "drop" and "reject" exist for bench
// runs where the producer must never stall.
type Policy struct {
	MaxQueueLen   int           `yaml:"max_queue_len"`
	MaxBatchSize  int           `yaml:"max_batch_size"`
	IdleSleep     time.Duration `yaml:"idle_sleep"`
	AppendRetries int           `yaml:"append_retries"`

	OnQueueFull string `yaml:"on_queue_full"` // "block", "drop", "reject"
}
