package bms

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// FrameLength is the size of every Daly UART frame:
	// start, address, command, data length, 8 data bytes, checksum.
	FrameLength = 13

	startByte  = 0xa5
	dataLength = 0x08
	dataOffset = 4
)

var (
	errNoResponse = errors.New("daly: no response")
	// ErrIncomplete is returned when a multi-frame answer misses frames.
	ErrIncomplete = errors.New("daly: incomplete response")
)

// buildRequestFrame encodes a request for command with up to 8 bytes of data.
func (b *DalyBMS) buildRequestFrame(command byte, data []byte) []byte {
	frame := make([]byte, FrameLength)
	frame[0] = startByte
	frame[1] = b.address
	frame[2] = command
	frame[3] = dataLength
	copy(frame[dataOffset:FrameLength-1], data)
	frame[FrameLength-1] = computeCRC(frame[:FrameLength-1])
	return frame
}

// responseValidator accepts well formed answers to command.
func responseValidator(command byte) func([]byte) bool {
	return func(frame []byte) bool {
		if len(frame) != FrameLength || frame[0] != startByte || frame[2] != command {
			return false
		}
		return computeCRC(frame[:FrameLength-1]) == frame[FrameLength-1]
	}
}

// sendReadRequest retries readSerialResponse up to b.retries times until
// at least minResponses answers arrive.
func (b *DalyBMS) sendReadRequest(ctx context.Context, command byte, data []byte, minResponses, maxResponses int) ([][]byte, error) {
	var lastErr error

	for attempt := 0; attempt < b.retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, b.retryDelay); err != nil {
				return nil, err
			}
		}

		frames, err := b.readSerialResponse(ctx, command, data, maxResponses)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.log.Warn().Err(err).Int("attempt", attempt+1).Msgf("command 0x%02x failed", command)
			lastErr = err
			continue
		}
		if len(frames) == 0 {
			b.log.Warn().Int("attempt", attempt+1).Msgf("command 0x%02x returned no response; retrying", command)
			lastErr = errNoResponse
			continue
		}
		if len(frames) < minResponses {
			b.log.Warn().Int("attempt", attempt+1).Int("frames", len(frames)).Int("want", minResponses).
				Msgf("command 0x%02x answer incomplete; retrying", command)
			lastErr = fmt.Errorf("%w: %d of %d frames", ErrIncomplete, len(frames), minResponses)
			continue
		}
		return frames, nil
	}
	return nil, fmt.Errorf("daly: command 0x%02x failed after %d tries: %w", command, b.retries, lastErr)
}

// readSerialResponse writes one request and collects up to maxResponses
// answers. It returns the 8 data bytes of every accepted frame; an empty
// result means the BMS did not answer in time.
func (b *DalyBMS) readSerialResponse(ctx context.Context, command byte, data []byte, maxResponses int) ([][]byte, error) {
	// stale answers from a previous request must not be taken for this one
	b.port.ClearBuffers()

	if err := b.port.SendFrame(b.buildRequestFrame(command, data)); err != nil {
		return nil, fmt.Errorf("daly: write command 0x%02x: %w", command, err)
	}

	validate := responseValidator(command)
	var collected [][]byte
	for len(collected) < maxResponses {
		frame, err := b.port.ReceiveFrame(ctx, validate)
		if err != nil {
			return collected, err
		}
		if frame == nil {
			break
		}
		collected = append(collected, frame[dataOffset:FrameLength-1])
	}
	return collected, nil
}

// requestOne sends command and returns the data of the first answer.
func (b *DalyBMS) requestOne(ctx context.Context, command byte) ([]byte, error) {
	frames, err := b.sendReadRequest(ctx, command, nil, 1, 1)
	if err != nil {
		return nil, err
	}
	return frames[0], nil
}

// computeCRC sums all bytes and returns the low byte of the sum.
func computeCRC(message []byte) byte {
	var sum byte
	for _, c := range message {
		sum += c
	}
	return sum
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
