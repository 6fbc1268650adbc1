// Package serialport binds the port contract to a physical half-duplex
// serial line (RS485 / UART).
package serialport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonamat/go-bms-bridge/internal/frame"
	"github.com/jonamat/go-bms-bridge/internal/port"
)

const (
	DefaultReadTimeout     = 100 * time.Millisecond
	DefaultPacing          = 100 * time.Millisecond
	DefaultReceiveAttempts = 10
	DefaultReceiveInterval = 500 * time.Millisecond
)

// Config of a serial port. FrameLength is supplied by the protocol that
// owns the port.
type Config struct {
	port.Config

	ReadTimeout     time.Duration // listener read granularity
	Pacing          time.Duration // delay after every send
	ReceiveAttempts int
	ReceiveInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.Pacing < 0 {
		c.Pacing = 0
	}
	if c.ReceiveAttempts <= 0 {
		c.ReceiveAttempts = DefaultReceiveAttempts
	}
	if c.ReceiveInterval <= 0 {
		c.ReceiveInterval = DefaultReceiveInterval
	}
	return c
}

// Stats are cumulative counters of a Port.
type Stats struct {
	BytesReceived  uint64
	FramesReceived uint64
	FramesSent     uint64
	ReadErrors     uint64
	OpenFailures   uint64
}

// Port is a serial implementation of port.Port.
type Port struct {
	cfg    Config
	driver Driver
	log    zerolog.Logger
	pacer  port.Pacer
	frames *frame.Buffer

	mu   sync.Mutex
	sess *session

	// one send at a time
	sendMu sync.Mutex

	bytesIn      atomic.Uint64
	framesOut    atomic.Uint64
	readErrors   atomic.Uint64
	openFailures atomic.Uint64
}

var _ port.Port = (*Port)(nil)

// New creates a closed port. The device is opened on Open or on the first
// SendFrame/ReceiveFrame.
func New(cfg Config, driver Driver, log zerolog.Logger) (*Port, error) {
	if err := cfg.Config.Validate(); err != nil {
		return nil, fmt.Errorf("serial: %w", err)
	}
	if driver == nil {
		return nil, fmt.Errorf("serial: driver required")
	}
	cfg = cfg.withDefaults()

	return &Port{
		cfg:    cfg,
		driver: driver,
		log:    log.With().Str("component", "serial").Str("port", cfg.Device).Logger(),
		pacer:  port.NewPacer(cfg.Pacing),
		frames: frame.NewBuffer(cfg.FrameLength),
	}, nil
}

func (p *Port) FrameLength() int { return p.cfg.FrameLength }

func (p *Port) Device() string { return p.cfg.Device }

func (p *Port) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess != nil
}

func (p *Port) current() *session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess
}

// Open binds the device and starts the byte listener. A failed open is
// retried once; the second failure is returned.
func (p *Port) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess != nil {
		return nil
	}

	p.log.Info().Int("baud", p.cfg.BaudRate).Int("frame_length", p.cfg.FrameLength).Msg("opening port")

	dev, err := p.driver(p.cfg)
	if err != nil {
		p.openFailures.Add(1)
		// a failed driver open returns no device, so there is nothing to release
		p.log.Error().Err(err).Msg("could not open port, retrying once")
		dev, err = p.driver(p.cfg)
		if err != nil {
			p.openFailures.Add(1)
			p.log.Error().Err(err).Msg("opening port FAILED")
			return fmt.Errorf("%w: %s: %w", port.ErrOpenFailed, p.cfg.Device, err)
		}
	}

	p.frames.Reset()
	s := newSession(dev)
	p.sess = s
	go p.listen(s)

	p.log.Info().Msg("opening port SUCCESSFUL")
	return nil
}

// Close stops the listener and releases the device.
func (p *Port) Close() error {
	p.mu.Lock()
	s := p.sess
	p.sess = nil
	p.mu.Unlock()

	if s == nil {
		return nil
	}

	close(s.stop)
	err := s.dev.Close()
	<-s.done

	if err != nil {
		p.log.Error().Err(err).Msg("shutting down port FAILED")
		return fmt.Errorf("serial: close %s: %w", p.cfg.Device, err)
	}
	p.log.Info().Msg("shutting down port OK")
	return nil
}

// SendFrame writes one frame. Pending input and output are flushed first so
// stale bytes are never taken for the response to this request, and the
// call returns only after the pacing delay.
func (p *Port) SendFrame(f []byte) error {
	if err := port.CheckFrame(f, p.cfg.FrameLength); err != nil {
		return err
	}
	if err := port.EnsureOpen(p); err != nil {
		return err
	}

	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	s := p.current()
	if s == nil {
		return port.ErrNotOpen
	}

	p.frames.DiscardPartial()
	if err := s.dev.Flush(); err != nil {
		return fmt.Errorf("serial: flush %s: %w", p.cfg.Device, err)
	}

	p.log.Debug().Str("bytes", port.Hex(f)).Msg("send")

	n, err := s.dev.Write(f)
	if err != nil {
		return fmt.Errorf("serial: write %s: %w", p.cfg.Device, err)
	}
	if n != len(f) {
		return fmt.Errorf("serial: write %s: %w", p.cfg.Device, io.ErrShortWrite)
	}
	p.framesOut.Add(1)

	p.pacer.Wait()
	return nil
}

// ReceiveFrame returns the oldest frame accepted by validator, or (nil, nil)
// once the receive budget is spent without one.
func (p *Port) ReceiveFrame(ctx context.Context, validator port.Validator) ([]byte, error) {
	if err := port.EnsureOpen(p); err != nil {
		return nil, err
	}
	p.log.Debug().Int("queued", p.frames.Len()).Msg("receive")
	return p.frames.Next(ctx, validator, p.cfg.ReceiveAttempts, p.cfg.ReceiveInterval)
}

// ClearBuffers drops partial and queued frames. Safe at any time.
func (p *Port) ClearBuffers() {
	p.frames.Reset()
}

func (p *Port) Stats() Stats {
	return Stats{
		BytesReceived:  p.bytesIn.Load(),
		FramesReceived: p.frames.Completed(),
		FramesSent:     p.framesOut.Load(),
		ReadErrors:     p.readErrors.Load(),
		OpenFailures:   p.openFailures.Load(),
	}
}
