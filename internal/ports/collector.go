package ports

// Collector produces raw telemetry records (one CSV line per record) from
// whatever carries the downlink: a UDP socket, a serial bridge, or the
// flight simulator.
type Collector interface {
	Start(out chan<- string) error
	Stop() error
}
