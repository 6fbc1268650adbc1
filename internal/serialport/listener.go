package serialport

import (
	"errors"
	"io"
	"time"

	"github.com/jonamat/go-bms-bridge/internal/port"
)

const (
	readBufSize = 256
	// maxReadErrors consecutive hard read errors detach the device so the
	// next SendFrame reopens it.
	maxReadErrors = 10
)

// errHangup stands for an empty read that returned well before the read
// timeout. A tty whose device was unplugged returns (0, io.EOF) at once.
var errHangup = errors.New("serial: empty read before timeout, line hung up")

// session is one open period of the device with its listener goroutine.
type session struct {
	dev  Device
	stop chan struct{}
	done chan struct{}
}

func newSession(dev Device) *session {
	return &session{
		dev:  dev,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (s *session) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// listen forwards every chunk read from the device to the frame buffer.
func (p *Port) listen(s *session) {
	defer close(s.done)

	buf := make([]byte, readBufSize)
	consecutive := 0

	for !s.stopped() {
		start := time.Now()
		n, err := s.dev.Read(buf)
		if n > 0 {
			consecutive = 0
			chunk := buf[:n]
			p.log.Debug().Str("bytes", port.Hex(chunk)).Msg("received")
			p.bytesIn.Add(uint64(n))
			p.frames.Write(chunk)
		}

		if err == nil || errors.Is(err, io.EOF) {
			// timeouts surface as (0, nil) or io.EOF depending on the driver
			if n > 0 || time.Since(start) >= p.cfg.ReadTimeout/2 {
				continue
			}
			err = errHangup
		}
		if s.stopped() {
			return
		}

		consecutive++
		p.readErrors.Add(1)
		p.log.Warn().Err(err).Int("consecutive", consecutive).Msg("read failed, event dropped")

		if consecutive >= maxReadErrors {
			p.detach(s)
			return
		}

		select {
		case <-s.stop:
			return
		case <-time.After(p.cfg.ReadTimeout):
		}
	}
}

// detach drops a session whose device stopped working.
func (p *Port) detach(s *session) {
	p.mu.Lock()
	if p.sess == s {
		p.sess = nil
	}
	p.mu.Unlock()

	if err := s.dev.Close(); err != nil {
		p.log.Debug().Err(err).Msg("close after device loss")
	}
	p.log.Error().Msg("device lost, port closed until next send")
}
