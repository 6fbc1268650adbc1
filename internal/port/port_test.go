package port

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpener struct {
	open  bool
	calls int
	err   error
}

func (f *fakeOpener) Open() error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.open = true
	return nil
}

func (f *fakeOpener) IsOpen() bool { return f.open }

func TestEnsureOpen(t *testing.T) {
	f := &fakeOpener{}
	require.NoError(t, EnsureOpen(f))
	require.NoError(t, EnsureOpen(f))
	assert.Equal(t, 1, f.calls, "already open ports must not be reopened")
}

func TestEnsureOpenFailure(t *testing.T) {
	boom := errors.New("device busy")
	f := &fakeOpener{err: boom}
	err := EnsureOpen(f)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, err, boom)
}

func TestCheckFrame(t *testing.T) {
	assert.NoError(t, CheckFrame(make([]byte, 13), 13))
	assert.ErrorIs(t, CheckFrame(make([]byte, 12), 13), ErrFrameLength)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Device: "/dev/ttyUSB0", BaudRate: 9600, FrameLength: 13}.Validate())
	assert.Error(t, Config{BaudRate: 9600, FrameLength: 13}.Validate())
	assert.Error(t, Config{Device: "/dev/ttyUSB0", FrameLength: 13}.Validate())
	assert.Error(t, Config{Device: "/dev/ttyUSB0", BaudRate: 9600}.Validate())
}

func TestPacerWait(t *testing.T) {
	var slept time.Duration
	p := NewPacer(100 * time.Millisecond)
	p.sleep = func(d time.Duration) { slept = d }
	p.Wait()
	assert.Equal(t, 100*time.Millisecond, slept)

	slept = 0
	p.Delay = 0
	p.Wait()
	assert.Zero(t, slept)
}

func TestHex(t *testing.T) {
	assert.Equal(t, "A5 40 90 08", Hex([]byte{0xa5, 0x40, 0x90, 0x08}))
	assert.Equal(t, "", Hex(nil))
}
