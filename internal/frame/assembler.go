// Package frame reassembles an arbitrarily chunked byte stream into
// fixed-length frames and hands completed frames to a blocking consumer.
package frame

import "fmt"

// Assembler accumulates stream bytes into frames of a fixed length.
//
// It is not safe for concurrent use; Buffer guards it together with the
// completed-frame queue.
type Assembler struct {
	buf []byte
	n   int
}

func NewAssembler(frameLength int) *Assembler {
	if frameLength <= 0 {
		panic(fmt.Sprintf("frame: invalid frame length %d", frameLength))
	}
	return &Assembler{buf: make([]byte, frameLength)}
}

func (a *Assembler) FrameLength() int { return len(a.buf) }

// Pending returns the number of bytes of the next frame received so far.
func (a *Assembler) Pending() int { return a.n }

// Reset drops any partially accumulated frame.
func (a *Assembler) Reset() { a.n = 0 }

// Feed consumes one chunk and calls emit for every frame it completes, in
// stream order. Emitted slices are copies owned by the callee.
func (a *Assembler) Feed(chunk []byte, emit func([]byte)) {
	size := len(a.buf)
	free := size - a.n

	if len(chunk) <= free {
		a.n += copy(a.buf[a.n:], chunk)
		if a.n == size {
			a.flush(emit)
		}
		return
	}

	// The chunk completes the current frame and spills over.
	idx := copy(a.buf[a.n:], chunk)
	a.n = size
	a.flush(emit)

	for len(chunk)-idx >= size {
		copy(a.buf, chunk[idx:idx+size])
		a.n = size
		idx += size
		a.flush(emit)
	}

	a.n = copy(a.buf, chunk[idx:])
}

func (a *Assembler) flush(emit func([]byte)) {
	frame := make([]byte, len(a.buf))
	copy(frame, a.buf)
	a.n = 0
	emit(frame)
}
