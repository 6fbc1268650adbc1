package frame

import (
	"context"
	"sync"
	"time"
)

// Buffer is the hand-off between the byte-arrival path and the frame
// consumer. One mutex covers both the assembler and the queue.
type Buffer struct {
	mu     sync.Mutex
	asm    *Assembler
	frames [][]byte
	ready  chan struct{}

	completed uint64
}

func NewBuffer(frameLength int) *Buffer {
	return &Buffer{
		asm:   NewAssembler(frameLength),
		ready: make(chan struct{}, 1),
	}
}

func (b *Buffer) FrameLength() int { return b.asm.FrameLength() }

// Write feeds one received chunk. It never fails and always consumes
// the whole chunk.
func (b *Buffer) Write(chunk []byte) (int, error) {
	if len(chunk) == 0 {
		return 0, nil
	}
	b.mu.Lock()
	b.asm.Feed(chunk, b.push)
	b.mu.Unlock()
	return len(chunk), nil
}

// push must be called with mu held.
func (b *Buffer) push(frame []byte) {
	b.frames = append(b.frames, frame)
	b.completed++
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest completed frame.
func (b *Buffer) Pop() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.frames) == 0 {
		return nil, false
	}
	f := b.frames[0]
	b.frames[0] = nil
	b.frames = b.frames[1:]
	return f, true
}

// Next returns the oldest frame accepted by validator. Rejected frames are
// dropped. When the queue is empty it waits up to interval for a new frame,
// for at most attempts*interval in total, then returns (nil, nil).
func (b *Buffer) Next(ctx context.Context, validator func([]byte) bool, attempts int, interval time.Duration) ([]byte, error) {
	deadline := time.Now().Add(time.Duration(attempts) * interval)

	for {
		for {
			f, ok := b.Pop()
			if !ok {
				break
			}
			if validator == nil || validator(f) {
				return f, nil
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		wait := interval
		if remaining < wait {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-b.ready:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Reset drops partially accumulated bytes and all queued frames.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.asm.Reset()
	b.frames = nil
	select {
	case <-b.ready:
	default:
	}
}

// DiscardPartial drops partially accumulated bytes only.
func (b *Buffer) DiscardPartial() {
	b.mu.Lock()
	b.asm.Reset()
	b.mu.Unlock()
}

// Len returns the number of queued frames.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// Pending returns the number of bytes of the frame under assembly.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asm.Pending()
}

// Completed returns the number of frames assembled since creation.
func (b *Buffer) Completed() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.completed
}
