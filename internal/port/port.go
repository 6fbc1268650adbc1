// Package port defines the transport contract every bus implementation
// satisfies, plus the lifecycle helpers they share.
package port

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFrameLength is returned by SendFrame when the frame does not have
	// the configured length.
	ErrFrameLength = errors.New("port: frame length mismatch")
	// ErrNotOpen is returned when an operation needs an open port and the
	// port could not be (re)opened.
	ErrNotOpen = errors.New("port: not open")
	// ErrOpenFailed is returned by Open once the recovery attempt failed too.
	ErrOpenFailed = errors.New("port: open failed")
)

// Validator accepts or rejects a candidate frame in ReceiveFrame.
// A nil Validator accepts every frame.
type Validator func(frame []byte) bool

// AcceptAll is a Validator that accepts every frame.
func AcceptAll([]byte) bool { return true }

// Port is a fixed-length frame transport.
//
// Frames carry no delimiter on the wire; their length is configured
// out-of-band by the protocol that owns the port. One consumer drives
// SendFrame/ReceiveFrame at a time.
type Port interface {
	// Open binds the device. It is a no-op on an open port. A failed open is
	// retried exactly once.
	Open() error
	// Close releases the device. It is idempotent.
	Close() error
	IsOpen() bool
	// SendFrame opens the port if needed and writes one frame.
	SendFrame(frame []byte) error
	// ReceiveFrame returns the oldest accepted frame, waiting a bounded
	// time for one to arrive. It returns (nil, nil) when nothing arrived.
	ReceiveFrame(ctx context.Context, validator Validator) ([]byte, error)
	// ClearBuffers drops partially assembled bytes and queued frames.
	ClearBuffers()
	FrameLength() int
}

// Config is the part of a port configuration common to all transports.
type Config struct {
	Device      string
	BaudRate    int
	FrameLength int
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Device) == "" {
		return errors.New("port: device required")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("port: invalid baud rate %d", c.BaudRate)
	}
	if c.FrameLength <= 0 {
		return fmt.Errorf("port: invalid frame length %d", c.FrameLength)
	}
	return nil
}

// CheckFrame verifies frame has exactly length bytes.
func CheckFrame(frame []byte, length int) error {
	if len(frame) != length {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(frame), length)
	}
	return nil
}

// Hex renders bytes as space separated hex pairs for logging.
func Hex(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	return sb.String()
}
