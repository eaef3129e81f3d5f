package ports

import "github.com/DavidHuang10/rocket-ground-station-25-26/internal/domain"

// EventSink receives committed pipeline output for live delivery. The
// session store calls it in commit order while still holding the session
// mutex, so implementations must not block: the broadcaster hands batches to
// per-client buffered channels and returns immediately.
//
// PublishClear marks a session transition. It is delivered after the last
// sample of the old session and before the first sample of the new one.
// Both carry the committed packet sequence current at publish time, which
// lets a late joiner order buffered live traffic against its snapshot.
type EventSink interface {
	PublishSamples(seq uint64, samples []domain.Sample)
	PublishClear(seq uint64, sig domain.ClearSignal)
}
