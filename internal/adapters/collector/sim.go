package collector

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// SimConfig drives the built-in flight simulator used for bench testing
// without a radio link.
type SimConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func (c *SimConfig) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 500 * time.Millisecond
	}
}

// Sim emits a plausible parabolic flight profile, one record per interval,
// on the same boot-relative millisecond clock the flight computer uses.
type Sim struct {
	cfg    SimConfig
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewSim(cfg SimConfig) *Sim {
	cfg.ApplyDefaults()
	return &Sim{cfg: cfg, stopCh: make(chan struct{})}
}

func (s *Sim) Start(out chan<- string) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		var flightMillis int64
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
			}

			select {
			case out <- record(flightMillis):
				flightMillis += s.cfg.Interval.Milliseconds()
			case <-s.stopCh:
				return
			}
		}
	}()
	return nil
}

func (s *Sim) Stop() error {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	return nil
}

func record(flightMillis int64) string {
	t := float64(flightMillis) / 1000.0

	altitude := 10 + 50*t - 2*t*t
	velocity := 50 - 4*t
	smoothVel := velocity + math.Sin(t)*2

	accelX := 15.2 + math.Sin(t*2)*5
	accelY := 0.3 + math.Cos(t*1.5)*2
	accelZ := -9.8 + math.Sin(t*3)
	gyroX := 0.05 + math.Sin(t)*0.1
	gyroY := -0.02 + math.Cos(t*1.2)*0.08
	gyroZ := 0.1 + math.Sin(t*0.8)*0.05

	abServo := 45.5 + math.Sin(t*0.5)*30
	cnrdServo := 12.3 + math.Cos(t*0.7)*10
	battery := 12.6 - t*0.01
	temp := 22.5 + t*0.1

	return fmt.Sprintf(
		"%d,401234567,-1051234567,1523000,%.1f,%.1f,%.1f,%.2f,%.2f,%.2f,98.1,%.1f,%.1f,%.1f,1013.25,%.1f,300.0,1,%.1f,%.1f,1,1,0,0,1,1,0,%.1f,2",
		flightMillis,
		accelX, accelY, accelZ,
		gyroX, gyroY, gyroZ,
		altitude, velocity, smoothVel,
		temp,
		abServo, cnrdServo,
		battery,
	)
}

var _ ports.Collector = (*Sim)(nil)
