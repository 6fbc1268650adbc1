package bms

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/jonamat/go-bms-bridge/pkg/battery"
)

const (
	cmdRatedCapacity    = 0x50
	cmdVoltageLimits    = 0x5a
	cmdCurrentLimits    = 0x5b
	cmdSOC              = 0x90
	cmdCellVoltageRange = 0x91
	cmdTemperatureRange = 0x92
	cmdMosfetStatus     = 0x93
	cmdStatus           = 0x94
	cmdCellVoltages     = 0x95
	cmdTemperatures     = 0x96
	cmdBalancingStatus  = 0x97
	cmdAlarms           = 0x98

	cmdSetSOC          = 0x21
	cmdDischargeMosfet = 0xd9
	cmdChargeMosfet    = 0xda
	cmdRestart         = 0x00

	currentOffset     = 30000
	temperatureOffset = 40

	cellsPerFrame        = 3
	temperaturesPerFrame = 7
	bluetoothCellFrames  = 16
	bluetoothTempFrames  = 3
)

func decode(data []byte, v any) error {
	return binary.Read(bytes.NewReader(data), binary.BigEndian, v)
}

// ReadStatus reads cell and sensor counts, charger and load state,
// digital IO and the cycle counter.
func (b *DalyBMS) ReadStatus(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdStatus)
	if err != nil {
		return err
	}

	var raw struct {
		Cells              uint8
		TemperatureSensors uint8
		ChargerRunning     bool
		LoadRunning        bool
		StateBits          uint8
		CycleCount         uint16
		Skip               byte
	}
	if err := decode(data, &raw); err != nil {
		return fmt.Errorf("daly: decode status: %w", err)
	}

	pack.NumberOfCells = int(raw.Cells)
	pack.NumOfTempSensors = int(raw.TemperatureSensors)
	pack.ChargeState = raw.ChargerRunning
	pack.LoadState = raw.LoadRunning
	for i := range pack.DIO {
		pack.DIO[i] = raw.StateBits&(1<<i) != 0
	}
	pack.BMSCycles = int(raw.CycleCount)
	return nil
}

// ReadRatedCapacity reads the rated capacity and nominal cell voltage.
func (b *DalyBMS) ReadRatedCapacity(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdRatedCapacity)
	if err != nil {
		return err
	}

	var raw struct {
		CapacitymAh uint32
		Skip        uint16
		CellmV      uint16
	}
	if err := decode(data, &raw); err != nil {
		return fmt.Errorf("daly: decode rated capacity: %w", err)
	}

	pack.RatedCapacitymAh = int(raw.CapacitymAh)
	pack.RatedCellmV = int(raw.CellmV)
	return nil
}

// ReadVoltageLimits reads the level 1 pack voltage alarm thresholds.
func (b *DalyBMS) ReadVoltageLimits(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdVoltageLimits)
	if err != nil {
		return err
	}

	var raw struct {
		MaxLevel1 uint16
		MaxLevel2 uint16
		MinLevel1 uint16
		MinLevel2 uint16
	}
	if err := decode(data, &raw); err != nil {
		return fmt.Errorf("daly: decode voltage limits: %w", err)
	}

	pack.MaxPackVoltageLimit = int(raw.MaxLevel1)
	pack.MinPackVoltageLimit = int(raw.MinLevel1)
	return nil
}

// ReadCurrentLimits reads the level 1 charge and discharge current alarm
// thresholds. Both are stored as positive values.
func (b *DalyBMS) ReadCurrentLimits(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdCurrentLimits)
	if err != nil {
		return err
	}

	var raw struct {
		ChargeLevel1    uint16
		ChargeLevel2    uint16
		DischargeLevel1 uint16
		DischargeLevel2 uint16
	}
	if err := decode(data, &raw); err != nil {
		return fmt.Errorf("daly: decode current limits: %w", err)
	}

	pack.MaxPackChargeCurrent = abs(int(raw.ChargeLevel1) - currentOffset)
	pack.MaxPackDischargeCurrent = abs(int(raw.DischargeLevel1) - currentOffset)
	return nil
}

// ReadSOC reads pack voltage, current and state of charge.
func (b *DalyBMS) ReadSOC(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdSOC)
	if err != nil {
		return err
	}

	var raw struct {
		TotalVoltage uint16
		Acquisition  uint16
		Current      uint16
		SOC          uint16
	}
	if err := decode(data, &raw); err != nil {
		return fmt.Errorf("daly: decode soc: %w", err)
	}

	pack.PackVoltage = int(raw.TotalVoltage)
	pack.PackCurrent = int(raw.Current) - currentOffset
	pack.PackSOC = int(raw.SOC)
	return nil
}

// ReadCellVoltageRange reads the highest and lowest cell voltage.
func (b *DalyBMS) ReadCellVoltageRange(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdCellVoltageRange)
	if err != nil {
		return err
	}

	var raw struct {
		HighestmV   uint16
		HighestCell uint8
		LowestmV    uint16
		LowestCell  uint8
		Skip        [2]byte
	}
	if err := decode(data, &raw); err != nil {
		return fmt.Errorf("daly: decode cell voltage range: %w", err)
	}

	pack.MaxCellmV = int(raw.HighestmV)
	pack.MaxCellVNum = int(raw.HighestCell)
	pack.MinCellmV = int(raw.LowestmV)
	pack.MinCellVNum = int(raw.LowestCell)
	pack.CellDiffmV = pack.MaxCellmV - pack.MinCellmV
	return nil
}

// ReadTemperatureRange reads the highest and lowest sensor temperature.
func (b *DalyBMS) ReadTemperatureRange(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdTemperatureRange)
	if err != nil {
		return err
	}

	var raw struct {
		Highest       uint8
		HighestSensor uint8
		Lowest        uint8
		LowestSensor  uint8
		Skip          [4]byte
	}
	if err := decode(data, &raw); err != nil {
		return fmt.Errorf("daly: decode temperature range: %w", err)
	}

	pack.TempMax = toDeciCelsius(raw.Highest)
	pack.TempMaxCellNum = int(raw.HighestSensor)
	pack.TempMin = toDeciCelsius(raw.Lowest)
	pack.TempMinCellNum = int(raw.LowestSensor)
	return nil
}

// ReadMosfetStatus reads the charge direction, MOSFET states, heartbeat
// and remaining capacity.
func (b *DalyBMS) ReadMosfetStatus(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdMosfetStatus)
	if err != nil {
		return err
	}

	var raw struct {
		Mode              uint8
		ChargingMosfet    bool
		DischargingMosfet bool
		Life              uint8
		CapacitymAh       uint32
	}
	if err := decode(data, &raw); err != nil {
		return fmt.Errorf("daly: decode mosfet status: %w", err)
	}

	switch raw.Mode {
	case 0:
		pack.ChargeDischargeStatus = battery.Stationary
	case 1:
		pack.ChargeDischargeStatus = battery.Charging
	default:
		pack.ChargeDischargeStatus = battery.Discharging
	}
	pack.ChargeMOSState = raw.ChargingMosfet
	pack.DischargeMOSState = raw.DischargingMosfet
	pack.BMSHeartBeat = int(raw.Life)
	pack.RemainingCapacitymAh = int(raw.CapacitymAh)
	return nil
}

// expectedFrames is the number of answers to a multi-frame query. The
// Bluetooth module always sends the maximum.
func (b *DalyBMS) expectedFrames(items, perFrame, bluetoothFrames int) int {
	if b.address == AddressBluetooth {
		return bluetoothFrames
	}
	return ceilDiv(items, perFrame)
}

// ReadCellVoltages reads every cell voltage. ReadStatus must have set
// the cell count.
func (b *DalyBMS) ReadCellVoltages(ctx context.Context, pack *battery.Pack) error {
	cells := min(pack.NumberOfCells, battery.MaxCells)
	if cells <= 0 {
		return nil
	}

	frames, err := b.sendReadRequest(ctx, cmdCellVoltages, nil,
		ceilDiv(cells, cellsPerFrame), b.expectedFrames(cells, cellsPerFrame, bluetoothCellFrames))
	if err != nil {
		return err
	}

	var filled [battery.MaxCells]bool
	for _, data := range frames {
		var raw struct {
			FrameNumber uint8
			CellmV      [cellsPerFrame]uint16
			Skip        byte
		}
		if err := decode(data, &raw); err != nil {
			return fmt.Errorf("daly: decode cell voltages: %w", err)
		}
		if raw.FrameNumber == 0 {
			b.log.Warn().Msg("cell voltage frame without frame number")
			continue
		}
		for i, mv := range raw.CellmV {
			idx := (int(raw.FrameNumber)-1)*cellsPerFrame + i
			if idx >= cells {
				break
			}
			pack.CellVmV[idx] = int(mv)
			filled[idx] = true
		}
	}
	return checkFilled("cell voltages", filled[:cells])
}

// ReadTemperatures reads every temperature sensor. ReadStatus must have
// set the sensor count.
func (b *DalyBMS) ReadTemperatures(ctx context.Context, pack *battery.Pack) error {
	sensors := min(pack.NumOfTempSensors, battery.MaxTempSensors)
	if sensors <= 0 {
		return nil
	}

	frames, err := b.sendReadRequest(ctx, cmdTemperatures, nil,
		ceilDiv(sensors, temperaturesPerFrame), b.expectedFrames(sensors, temperaturesPerFrame, bluetoothTempFrames))
	if err != nil {
		return err
	}

	var filled [battery.MaxTempSensors]bool
	for _, data := range frames {
		if data[0] == 0 {
			b.log.Warn().Msg("temperature frame without frame number")
			continue
		}
		for i, t := range data[1 : 1+temperaturesPerFrame] {
			idx := (int(data[0])-1)*temperaturesPerFrame + i
			if idx >= sensors {
				break
			}
			pack.CellTemperature[idx] = toDeciCelsius(t)
			filled[idx] = true
		}
	}
	return checkFilled("temperatures", filled[:sensors])
}

// checkFilled fails when an active slot got no value, so a missing frame
// never reads as a 0 entry.
func checkFilled(what string, filled []bool) error {
	for i, ok := range filled {
		if !ok {
			return fmt.Errorf("%w: %s missing from slot %d of %d", ErrIncomplete, what, i+1, len(filled))
		}
	}
	return nil
}

// ReadBalancingStatus reads the per cell balancing bits. Bit 0 of the
// first data byte is cell 1.
func (b *DalyBMS) ReadBalancingStatus(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdBalancingStatus)
	if err != nil {
		return err
	}

	for i := range min(pack.NumberOfCells, battery.MaxCells, 8*len(data)) {
		pack.CellBalanceState[i] = data[i/8]&(1<<(i%8)) != 0
	}
	return nil
}

// twoLevelAlarms is the number of conditions at the start of the 0x98
// answer that carry a warning and an alarm bit. The rest have one fault
// bit each, starting at byte 4.
const twoLevelAlarms = 14

// ReadAlarms reads the alarm and fault bits.
func (b *DalyBMS) ReadAlarms(ctx context.Context, pack *battery.Pack) error {
	data, err := b.requestOne(ctx, cmdAlarms)
	if err != nil {
		return err
	}

	bit := func(pos int) bool {
		return data[pos/8]&(1<<(pos%8)) != 0
	}

	for i, n := range pack.Alarms.Each() {
		*n.Level = battery.AlarmNone
		if i < twoLevelAlarms {
			switch {
			case bit(2*i + 1):
				*n.Level = battery.AlarmActive
			case bit(2 * i):
				*n.Level = battery.AlarmWarning
			}
			continue
		}
		if bit(32 + i - twoLevelAlarms) {
			*n.Level = battery.AlarmActive
		}
	}
	if active := pack.Alarms.Active(); len(active) > 0 {
		b.log.Debug().Strs("alarms", active).Msg("alarms reported")
	}
	return nil
}

// SetChargeMosfet switches the charge MOSFET.
func (b *DalyBMS) SetChargeMosfet(ctx context.Context, on bool) error {
	return b.write(ctx, cmdChargeMosfet, []byte{boolByte(on)})
}

// SetDischargeMosfet switches the discharge MOSFET.
func (b *DalyBMS) SetDischargeMosfet(ctx context.Context, on bool) error {
	return b.write(ctx, cmdDischargeMosfet, []byte{boolByte(on)})
}

// SetSOC overwrites the state of charge, in percent (0..100).
func (b *DalyBMS) SetSOC(ctx context.Context, percent float64) error {
	raw := min(max(battery.ToDeci(percent), 0), 1000)
	data := make([]byte, 8)
	binary.BigEndian.PutUint16(data[6:], uint16(raw))
	return b.write(ctx, cmdSetSOC, data)
}

// Restart reboots the BMS. It does not wait for an answer since the BMS
// may reset before sending one.
func (b *DalyBMS) Restart() error {
	b.port.ClearBuffers()
	if err := b.port.SendFrame(b.buildRequestFrame(cmdRestart, nil)); err != nil {
		return fmt.Errorf("daly: restart: %w", err)
	}
	return nil
}

func (b *DalyBMS) write(ctx context.Context, command byte, data []byte) error {
	frames, err := b.sendReadRequest(ctx, command, data, 1, 1)
	if err != nil {
		return err
	}
	b.log.Info().Hex("response", frames[0]).Msgf("command 0x%02x acknowledged", command)
	return nil
}

func toDeciCelsius(raw uint8) int {
	return (int(raw) - temperatureOffset) * 10
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
