package port

import (
	"fmt"
	"time"
)

// Opener is the lifecycle subset of Port used by EnsureOpen.
type Opener interface {
	Open() error
	IsOpen() bool
}

// EnsureOpen opens p if it is not open yet.
func EnsureOpen(p Opener) error {
	if p.IsOpen() {
		return nil
	}
	if err := p.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotOpen, err)
	}
	if !p.IsOpen() {
		return ErrNotOpen
	}
	return nil
}

// Pacer imposes a fixed delay after a transmission so the next bus
// operation does not collide with the addressed device's response.
type Pacer struct {
	Delay time.Duration
	sleep func(time.Duration)
}

func NewPacer(delay time.Duration) Pacer {
	return Pacer{Delay: delay, sleep: time.Sleep}
}

// Wait blocks for the pacing delay.
func (p Pacer) Wait() {
	if p.Delay <= 0 {
		return
	}
	if p.sleep == nil {
		time.Sleep(p.Delay)
		return
	}
	p.sleep(p.Delay)
}
