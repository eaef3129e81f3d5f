package collector

import (
	"errors"
	"net"
	"sync"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/ports"
)

// UDPConfig captures the downlink listener settings. The radio bridge sends
// one CSV record per datagram.
type UDPConfig struct {
	Addr string `yaml:"addr"`
}

func (c *UDPConfig) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":15550"
	}
}

func (c *UDPConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	return nil
}

// UDP reads raw telemetry records from a UDP socket.
type UDP struct {
	cfg  UDPConfig
	conn *net.UDPConn
	wg   sync.WaitGroup
}

func NewUDP(cfg UDPConfig) *UDP {
	return &UDP{cfg: cfg}
}

func (u *UDP) Start(out chan<- string) error {
	addr, err := net.ResolveUDPAddr("udp", u.cfg.Addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	u.conn = conn

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		buf := make([]byte, 2048)
		for {
			n, _, err := conn.ReadFromUDP(buf)
			if err != nil {
				// Closed socket means Stop was called.
				return
			}
			if n == 0 {
				continue
			}
			out <- string(buf[:n])
		}
	}()
	return nil
}

// LocalAddr reports the bound socket address, or nil before Start.
func (u *UDP) LocalAddr() net.Addr {
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

func (u *UDP) Stop() error {
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.wg.Wait()
	return err
}

var _ ports.Collector = (*UDP)(nil)
