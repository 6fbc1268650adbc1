package serialport

import (
	"fmt"
	"io"

	tarm "github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Device is an open serial line.
type Device interface {
	io.ReadWriteCloser
	// Flush discards unread input and untransmitted output.
	Flush() error
}

// Driver opens a Device for cfg: 8 data bits, no parity, 1 stop bit, reads
// returning after at most cfg.ReadTimeout. On error it returns a nil Device.
type Driver func(cfg Config) (Device, error)

// TarmDriver opens the line with github.com/tarm/serial.
func TarmDriver(cfg Config) (Device, error) {
	p, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return p, nil
}

type bugstDevice struct {
	bugst.Port
}

func (d bugstDevice) Flush() error {
	if err := d.ResetInputBuffer(); err != nil {
		return err
	}
	return d.ResetOutputBuffer()
}

// BugstDriver opens the line with go.bug.st/serial.
func BugstDriver(cfg Config) (Device, error) {
	p, err := bugst.Open(cfg.Device, &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	return bugstDevice{Port: p}, nil
}

// ListPorts returns the serial devices present on the host.
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}
