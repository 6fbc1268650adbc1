package inverter

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonamat/go-bms-bridge/pkg/battery"
)

// ---- fakes ----

type writeCall struct {
	addr uint16
	qty  uint16
	data []byte
}

type fakeClient struct {
	writes []writeCall
	err    error
}

func (f *fakeClient) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.writes = append(f.writes, writeCall{address, quantity, value})
	return []byte{byte(address >> 8), byte(address), byte(quantity >> 8), byte(quantity)}, nil
}

type fakeCloser struct{ closed int }

func (f *fakeCloser) Close() error { f.closed++; return nil }

func samplePack() *battery.Pack {
	p := &battery.Pack{
		PackVoltage:             532,
		PackCurrent:             -125,
		PackSOC:                 641,
		PackSOH:                 1000,
		MaxPackVoltageLimit:     584,
		MinPackVoltageLimit:     416,
		MaxPackChargeCurrent:    1000,
		MaxPackDischargeCurrent: 1500,
		RemainingCapacitymAh:    96150,
		RatedCapacitymAh:        150000,
		TempMax:                 130,
		TempMin:                 -52,
		TempAverage:             39,
		MaxCellmV:               3279,
		MinCellmV:               3255,
		CellDiffmV:              24,
		NumberOfCells:           16,
		BMSCycles:               273,
		BMSHeartBeat:            42,
		ChargeDischargeStatus:   battery.Discharging,
		ChargeMOSState:          true,
		DischargeMOSState:       true,
		LoadState:               true,
	}
	p.Alarms.CellVoltageLow = battery.AlarmWarning
	p.Alarms.ShortCircuit = battery.AlarmActive
	return p
}

// ---- tests ----

func TestEncode(t *testing.T) {
	regs := Encode(samplePack())
	require.Len(t, regs, RegisterCount)

	assert.Equal(t, uint16(532), regs[RegPackVoltage])
	assert.Equal(t, uint16(0xff83), regs[RegPackCurrent])
	assert.Equal(t, int16(-125), int16(regs[RegPackCurrent]))
	assert.Equal(t, uint16(641), regs[RegSOC])
	assert.Equal(t, uint16(1000), regs[RegSOH])
	assert.Equal(t, uint16(584), regs[RegMaxChargeVoltage])
	assert.Equal(t, uint16(416), regs[RegMinDischargeVoltage])
	assert.Equal(t, uint16(1000), regs[RegMaxChargeCurrent])
	assert.Equal(t, uint16(1500), regs[RegMaxDischargeCurrent])
	assert.Equal(t, uint16(961), regs[RegRemainingCapacity])
	assert.Equal(t, uint16(1500), regs[RegRatedCapacity])
	assert.Equal(t, int16(130), int16(regs[RegTempMax]))
	assert.Equal(t, int16(-52), int16(regs[RegTempMin]))
	assert.Equal(t, uint16(3279), regs[RegMaxCellVoltage])
	assert.Equal(t, uint16(24), regs[RegCellDiff])
	assert.Equal(t, uint16(16), regs[RegNumberOfCells])
	assert.Equal(t, uint16(273), regs[RegCycles])
	assert.Equal(t, uint16(42), regs[RegHeartBeat])

	assert.Equal(t, FlagChargeMOS|FlagDischargeMOS|FlagDischarging|FlagLoadConnected, regs[RegFlags])
	assert.Equal(t, uint16(battery.AlarmActive), regs[RegAlarmLevel])

	// cell_voltage_low is condition 1, short_circuit condition 32
	assert.Equal(t, uint16(1<<1), regs[RegAlarmBits])
	assert.Zero(t, regs[RegAlarmBits+1])
	assert.Equal(t, uint16(1), regs[RegAlarmBits+2])
}

func TestEncodeZeroPack(t *testing.T) {
	regs := Encode(&battery.Pack{})
	assert.Equal(t, make([]uint16, RegisterCount), regs)
}

func TestEncodeClampsOutOfRange(t *testing.T) {
	regs := Encode(&battery.Pack{PackVoltage: 70000, PackSOC: -5, PackCurrent: 40000, TempMin: -40000})
	assert.Equal(t, uint16(0xffff), regs[RegPackVoltage])
	assert.Zero(t, regs[RegSOC])
	assert.Equal(t, int16(0x7fff), int16(regs[RegPackCurrent]))
	assert.Equal(t, int16(-0x8000), int16(regs[RegTempMin]))
}

func TestAlarmBitsFitImage(t *testing.T) {
	var a battery.Alarms
	assert.LessOrEqual(t, len(a.Each()), AlarmRegisters*16)
	assert.Equal(t, RegisterCount, RegAlarmBits+AlarmRegisters)
}

func TestModbusWriterWritesImage(t *testing.T) {
	client := &fakeClient{}
	closer := &fakeCloser{}
	w := newModbusWriter(Config{Mode: ModeTCP, Endpoint: "inv:502", BaseAddress: 100}, client, closer, zerolog.Nop())

	pack := samplePack()
	require.NoError(t, w.WritePack(pack))
	require.Len(t, client.writes, 1)

	call := client.writes[0]
	assert.Equal(t, uint16(100), call.addr)
	assert.Equal(t, uint16(RegisterCount), call.qty)
	require.Len(t, call.data, 2*RegisterCount)
	assert.Equal(t, []byte{0x02, 0x14}, call.data[0:2])
	assert.Equal(t, []byte{0xff, 0x83}, call.data[2:4])

	require.NoError(t, w.Close())
	assert.Equal(t, 1, closer.closed)
}

func TestModbusWriterWrapsError(t *testing.T) {
	boom := errors.New("i/o timeout")
	w := newModbusWriter(Config{BaseAddress: 7}, &fakeClient{err: boom}, nil, zerolog.Nop())

	err := w.WritePack(samplePack())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "at 7")
	assert.NoError(t, w.Close())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"tcp", Config{Mode: ModeTCP, Endpoint: "10.0.0.2:502"}, true},
		{"rtu", Config{Mode: ModeRTU, Endpoint: "/dev/ttyUSB1", BaudRate: 9600}, true},
		{"no endpoint", Config{Mode: ModeTCP}, false},
		{"rtu no baud", Config{Mode: ModeRTU, Endpoint: "/dev/ttyUSB1"}, false},
		{"bad mode", Config{Mode: "udp", Endpoint: "x"}, false},
		{"address overflow", Config{Mode: ModeTCP, Endpoint: "x", BaseAddress: 0xfff0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewModbusWriter(t *testing.T) {
	_, err := NewModbusWriter(Config{Mode: ModeTCP}, zerolog.Nop())
	assert.Error(t, err)

	// nothing listens on port 1; the writer is still built and reconnects lazily
	w, err := NewModbusWriter(Config{Mode: ModeTCP, Endpoint: "127.0.0.1:1", UnitID: 1, Timeout: 100 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}

func TestLogWriter(t *testing.T) {
	w := NewLogWriter(zerolog.Nop())
	assert.NoError(t, w.WritePack(samplePack()))
	assert.NoError(t, w.Close())
}
