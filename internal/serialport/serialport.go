package serialport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"
)

// Meter line settings: 2400 baud, 8 data bits, no parity, 1 stop bit.
const (
	DefaultBaudRate = 2400
	DefaultTimeout  = 1500 * time.Millisecond
)

// Config is the minimal transport config.
type Config struct {
	Device   string
	BaudRate int
	Timeout  time.Duration
}

// Port is an open serial line whose reads time out after Config.Timeout.
type Port struct {
	port serial.Port
}

// Open opens the device with the meter's fixed line settings.
func Open(cfg Config) (*Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serialport: device required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	p, err := serial.Open(&serial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Device, err)
	}
	return &Port{port: p}, nil
}

var _ io.ReadCloser = (*Port)(nil)

// Read reads from the line. A read that times out returns an error whose
// Timeout method reports true.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err != nil && errors.Is(err, serial.ErrTimeout) {
		return n, timeoutError{err}
	}
	return n, err
}

// Close closes the line.
func (p *Port) Close() error {
	if p == nil || p.port == nil {
		return nil
	}
	return p.port.Close()
}

type timeoutError struct{ err error }

func (e timeoutError) Error() string { return e.err.Error() }
func (e timeoutError) Unwrap() error { return e.err }
func (e timeoutError) Timeout() bool { return true }
